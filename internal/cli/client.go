package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/healthz", nil, &out)
	return out, err
}

func (c *Client) Instruments(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/instruments", nil, &out)
	return out, err
}

func (c *Client) InstrumentDetail(ctx context.Context, id string, hours int) (map[string]any, error) {
	path := "/v1/instruments/" + url.PathEscape(id)
	if hours > 0 {
		path += fmt.Sprintf("?hours=%d", hours)
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Predict(ctx context.Context, id string, buff float64) (map[string]any, error) {
	path := "/v1/instruments/" + url.PathEscape(id) + "/predict"
	if buff > 0 {
		path += fmt.Sprintf("?buff=%g", buff)
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Rank(ctx context.Context, topN int, buff float64, buyableOnly bool) (map[string]any, error) {
	q := url.Values{}
	if topN > 0 {
		q.Set("top", fmt.Sprint(topN))
	}
	if buff > 0 {
		q.Set("buff", fmt.Sprint(buff))
	}
	if buyableOnly {
		q.Set("buyable", "1")
	}
	path := "/v1/rank"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) PlaceOrder(ctx context.Context, id, side string, qty, balance int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/orders", map[string]any{
		"instrument_id": id,
		"side":          side,
		"quantity":      qty,
		"balance":       balance,
	}, &out)
	return out, err
}

func (c *Client) Portfolio(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/portfolio", nil, &out)
	return out, err
}

func (c *Client) Advance(ctx context.Context, hours int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/advance", map[string]any{
		"hours": hours,
	}, &out)
	return out, err
}

func (c *Client) Export(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/export", nil, &out)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
