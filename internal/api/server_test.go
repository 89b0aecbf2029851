package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"simarket/internal/config"
	"simarket/internal/ledger"
	"simarket/internal/market"
)

func newTestServer(t *testing.T) (*Server, *market.Engine) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := market.NewEngine(777, 6, market.EffectModeHourly, ledger.NewBook(), logger)
	cfg := config.ServerConfig{
		Seed:            777,
		InstrumentCount: 6,
		EffectMode:      market.EffectModeHourly,
		HoursPerTick:    1,
		RankTopN:        5,
	}
	return New(cfg, logger, engine, nil), engine
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, out
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec, out := doJSON(t, s.Handler(), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if out["ok"] != true {
		t.Fatalf("body %v", out)
	}
}

func TestInstrumentsList(t *testing.T) {
	s, engine := newTestServer(t)
	rec, out := doJSON(t, s.Handler(), http.MethodGet, "/v1/instruments", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	list, ok := out["instruments"].([]any)
	if !ok {
		t.Fatalf("instruments missing: %v", out)
	}
	if len(list) != len(engine.Instruments()) {
		t.Fatalf("got %d instruments, want %d", len(list), len(engine.Instruments()))
	}
}

func TestInstrumentDetailNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/v1/instruments/NOSUCH", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestInstrumentDetailSeries(t *testing.T) {
	s, engine := newTestServer(t)
	id := engine.Instruments()[0].ID
	rec, out := doJSON(t, s.Handler(), http.MethodGet, "/v1/instruments/"+id+"?hours=6", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	series, ok := out["series"].([]any)
	if !ok || len(series) == 0 {
		t.Fatalf("series missing: %v", out)
	}
	// hour 0 clamps the window to a single point
	if len(series) != 1 {
		t.Fatalf("series length %d at hour 0, want 1", len(series))
	}
}

func TestPredictEndpoint(t *testing.T) {
	s, engine := newTestServer(t)
	s.AdvanceHours(context.Background(), 12)
	id := engine.Instruments()[0].ID
	rec, out := doJSON(t, s.Handler(), http.MethodGet, "/v1/instruments/"+id+"/predict", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %v", rec.Code, out)
	}
	for _, key := range []string{"trend", "status", "risk_level", "buy_window", "reason"} {
		if _, ok := out[key]; !ok {
			t.Fatalf("prediction missing %q: %v", key, out)
		}
	}
}

func TestRankEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	s.AdvanceHours(context.Background(), 12)
	rec, out := doJSON(t, s.Handler(), http.MethodGet, "/v1/rank?top=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	entries, ok := out["entries"].([]any)
	if !ok {
		t.Fatalf("entries missing: %v", out)
	}
	if len(entries) > 3 {
		t.Fatalf("entries %d, want at most 3", len(entries))
	}
}

func TestOrderLifecycle(t *testing.T) {
	s, engine := newTestServer(t)
	id := engine.Instruments()[0].ID
	price, _ := engine.Price(id)

	rec, out := doJSON(t, s.Handler(), http.MethodPost, "/v1/orders", map[string]any{
		"instrument_id": id,
		"side":          "buy",
		"quantity":      2,
		"balance":       price * 4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("buy status %d: %v", rec.Code, out)
	}
	if out["direction"] != "buy" {
		t.Fatalf("trade %v", out)
	}

	rec, out = doJSON(t, s.Handler(), http.MethodPost, "/v1/orders", map[string]any{
		"instrument_id": id,
		"side":          "sell",
		"quantity":      1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("sell status %d: %v", rec.Code, out)
	}

	rec, out = doJSON(t, s.Handler(), http.MethodGet, "/v1/portfolio", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("portfolio status %d", rec.Code)
	}
	holdings := out["holdings"].([]any)
	if len(holdings) != 1 {
		t.Fatalf("holdings %v", holdings)
	}
	trades := out["trades"].([]any)
	if len(trades) != 2 {
		t.Fatalf("trades %d, want 2", len(trades))
	}
}

func TestOrderRejections(t *testing.T) {
	s, engine := newTestServer(t)
	id := engine.Instruments()[0].ID
	price, _ := engine.Price(id)

	cases := []struct {
		name string
		body map[string]any
		code int
	}{
		{"unknown instrument", map[string]any{"instrument_id": "NOSUCH", "side": "buy", "quantity": 1, "balance": price}, http.StatusNotFound},
		{"bad side", map[string]any{"instrument_id": id, "side": "hold", "quantity": 1, "balance": price}, http.StatusBadRequest},
		{"insufficient funds", map[string]any{"instrument_id": id, "side": "buy", "quantity": 5, "balance": price}, http.StatusBadRequest},
		{"sell without shares", map[string]any{"instrument_id": id, "side": "sell", "quantity": 1}, http.StatusBadRequest},
		{"wrapping notional", map[string]any{"instrument_id": id, "side": "buy", "quantity": math.MaxInt64/price + 1, "balance": 0}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec, out := doJSON(t, s.Handler(), http.MethodPost, "/v1/orders", tc.body)
		if rec.Code != tc.code {
			t.Fatalf("%s: status %d, want %d (%v)", tc.name, rec.Code, tc.code, out)
		}
	}
}

func TestAdvanceEndpoint(t *testing.T) {
	s, engine := newTestServer(t)
	rec, out := doJSON(t, s.Handler(), http.MethodPost, "/v1/advance", map[string]any{"hours": 30})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if out["hour"] != float64(30) {
		t.Fatalf("hour %v, want 30", out["hour"])
	}
	if out["day"] != float64(2) {
		t.Fatalf("day %v, want 2", out["day"])
	}
	if engine.CurrentHour() != 30 {
		t.Fatalf("engine hour %d", engine.CurrentHour())
	}
}

func TestExportEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec, out := doJSON(t, s.Handler(), http.MethodGet, "/v1/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if out["seed"] != float64(777) {
		t.Fatalf("seed %v", out["seed"])
	}
	if out["cycle_days"] != float64(market.EffectCycleDays) {
		t.Fatalf("cycle_days %v", out["cycle_days"])
	}
	effects := out["effects"].(map[string]any)
	if len(effects) != market.EffectCycleDays {
		t.Fatalf("effects entries %d", len(effects))
	}
}
