package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

type instrumentView struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Tags         []string `json:"tags"`
	Archetype    string   `json:"archetype"`
	CurrentPrice int64    `json:"current_price"`
	LowerBand    int64    `json:"lower_band"`
	UpperBand    int64    `json:"upper_band"`
}

type instrumentsPayload struct {
	Hour        int              `json:"hour"`
	Day         int              `json:"day"`
	Instruments []instrumentView `json:"instruments"`
}

type detailPayload struct {
	Instrument instrumentView `json:"instrument"`
	FromHour   int            `json:"from_hour"`
	Series     []int64        `json:"series"`
}

type predictionView struct {
	InstrumentID       string  `json:"instrument_id"`
	Day                int     `json:"day"`
	Hour               int     `json:"hour"`
	Trend              string  `json:"trend"`
	Status             string  `json:"status"`
	CurrentPrice       int64   `json:"current_price"`
	UpperBand          int64   `json:"upper_band"`
	DistToLimit        float64 `json:"dist_to_limit"`
	LimitHour          int     `json:"limit_hour"`
	LimitReachable     bool    `json:"limit_reachable"`
	MaxPotentialGain   float64 `json:"max_potential_gain"`
	SafeExpectedGain   float64 `json:"safe_expected_gain"`
	RiskLevel          float64 `json:"risk_level"`
	BuyWindow          string  `json:"buy_window"`
	SellWindow         string  `json:"sell_window"`
	RemainingGoodHours int     `json:"remaining_good_hours"`
	Reason             string  `json:"reason"`
}

type rankEntryView struct {
	InstrumentID string         `json:"instrument_id"`
	DisplayName  string         `json:"display_name"`
	Score        float64        `json:"score"`
	Tier         string         `json:"tier"`
	Advice       string         `json:"advice"`
	Prediction   predictionView `json:"prediction"`
}

type rankPayload struct {
	Hour    int              `json:"hour"`
	Day     int              `json:"day"`
	Entries []rankEntryView  `json:"entries"`
	Sells   []predictionView `json:"sells"`
}

type tradeView struct {
	ID           string `json:"id"`
	Hour         int    `json:"hour"`
	InstrumentID string `json:"instrument_id"`
	Direction    string `json:"direction"`
	Quantity     int64  `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	CashDelta    int64  `json:"cash_delta"`
}

type positionView struct {
	InstrumentID string `json:"instrument_id"`
	Quantity     int64  `json:"quantity"`
	AvgCost      int64  `json:"avg_cost"`
	CurrentPrice int64  `json:"current_price"`
	MarketValue  int64  `json:"market_value"`
	Unrealized   int64  `json:"unrealized"`
}

type portfolioPayload struct {
	Hour     int            `json:"hour"`
	Holdings []positionView `json:"holdings"`
	Trades   []tradeView    `json:"trades"`
}

type advancePayload struct {
	Hour int `json:"hour"`
	Day  int `json:"day"`
}

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderInstruments(raw map[string]any) error {
	payload, err := decodeInto[instrumentsPayload](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== MARKET (day %d, hour %d) ==\n", payload.Day, payload.Hour)
	if len(payload.Instruments) == 0 {
		printInfo("No instruments in this session.")
		return nil
	}
	fmt.Printf("%-8s %-24s %-10s %12s %12s %12s %-24s\n", "ID", "NAME", "ARCHETYPE", "PRICE", "LOWER", "UPPER", "TAGS")
	for _, in := range payload.Instruments {
		fmt.Printf("%-8s %-24s %-10s %12s %12s %12s %-24s\n",
			in.ID,
			truncate(in.DisplayName, 24),
			in.Archetype,
			formatPrice(in.CurrentPrice),
			formatPrice(in.LowerBand),
			formatPrice(in.UpperBand),
			truncate(strings.Join(in.Tags, ","), 24),
		)
	}
	fmt.Println()
	return nil
}

func renderInstrumentDetail(raw map[string]any) error {
	payload, err := decodeInto[detailPayload](raw)
	if err != nil {
		return err
	}
	in := payload.Instrument
	accent.Printf("\n== %s (%s) ==\n", in.ID, in.DisplayName)
	fmt.Printf("Archetype:  %s\n", in.Archetype)
	fmt.Printf("Tags:       %s\n", strings.Join(in.Tags, ", "))
	fmt.Printf("Price:      %s credits\n", formatPrice(in.CurrentPrice))
	fmt.Printf("Band:       %s - %s credits\n", formatPrice(in.LowerBand), formatPrice(in.UpperBand))

	if len(payload.Series) > 1 {
		delta := payload.Series[len(payload.Series)-1] - payload.Series[0]
		fmt.Printf("Recent move:%s credits over %d hours\n", colorizePrice(delta), len(payload.Series)-1)
		fmt.Println()
		accent.Println("Recent Hours")
		fmt.Printf("%-8s %12s\n", "HOUR", "PRICE")
		start := len(payload.Series) - 8
		if start < 0 {
			start = 0
		}
		for i := start; i < len(payload.Series); i++ {
			fmt.Printf("%-8d %12s\n", payload.FromHour+i, formatPrice(payload.Series[i]))
		}
	}
	fmt.Println()
	return nil
}

func renderPrediction(raw map[string]any) error {
	p, err := decodeInto[predictionView](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== PREDICT %s (day %d, hour %d) ==\n", p.InstrumentID, p.Day, p.Hour)
	fmt.Printf("Trend:       %s\n", p.Trend)
	fmt.Printf("Status:      %s\n", colorizeStatus(p.Status))
	fmt.Printf("Price:       %s credits (%.1f%% below band)\n", formatPrice(p.CurrentPrice), p.DistToLimit*100)
	if p.LimitHour >= 0 {
		reach := "unreachable today"
		if p.LimitReachable {
			reach = "reachable today"
		}
		fmt.Printf("Limit hour:  %d (%s)\n", p.LimitHour, reach)
	}
	fmt.Printf("Max gain:    %.2f%%\n", p.MaxPotentialGain)
	fmt.Printf("Safe gain:   %.2f%%\n", p.SafeExpectedGain)
	fmt.Printf("Risk:        %s\n", colorizeRisk(p.RiskLevel))
	fmt.Printf("Buy window:  %s\n", p.BuyWindow)
	fmt.Printf("Sell window: %s\n", p.SellWindow)
	fmt.Printf("Good hours:  %d\n", p.RemainingGoodHours)
	fmt.Printf("Reason:      %s\n\n", p.Reason)
	return nil
}

func renderRank(raw map[string]any) error {
	payload, err := decodeInto[rankPayload](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== ADVISORY (day %d, hour %d) ==\n", payload.Day, payload.Hour)
	if len(payload.Entries) == 0 {
		printInfo("Nothing to recommend right now.")
	} else {
		fmt.Printf("%-8s %-22s %7s %-18s %-10s %-10s %6s\n", "ID", "NAME", "SCORE", "TIER", "STATUS", "TREND", "RISK")
		for _, e := range payload.Entries {
			fmt.Printf("%-8s %-22s %7.1f %-18s %-10s %-10s %6.2f\n",
				e.InstrumentID,
				truncate(e.DisplayName, 22),
				e.Score,
				e.Tier,
				e.Prediction.Status,
				e.Prediction.Trend,
				e.Prediction.RiskLevel,
			)
		}
	}
	if len(payload.Sells) > 0 {
		fmt.Println()
		warn.Println("Consider selling")
		for _, p := range payload.Sells {
			fmt.Printf("  %-8s %-10s %s\n", p.InstrumentID, p.Status, p.Reason)
		}
	}
	fmt.Println()
	return nil
}

func renderTrade(raw map[string]any) error {
	t, err := decodeInto[tradeView](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== ORDER %s ==\n", strings.ToUpper(t.Direction))
	fmt.Printf("Instrument: %s\n", t.InstrumentID)
	fmt.Printf("Quantity:   %d\n", t.Quantity)
	fmt.Printf("Price:      %s credits\n", formatPrice(t.UnitPrice))
	fmt.Printf("Cash delta: %s credits\n", colorizePrice(t.CashDelta))
	fmt.Println()
	return nil
}

func renderPortfolio(raw map[string]any) error {
	payload, err := decodeInto[portfolioPayload](raw)
	if err != nil {
		return err
	}
	accent.Printf("\n== PORTFOLIO (hour %d) ==\n", payload.Hour)
	if len(payload.Holdings) == 0 {
		printInfo("No open positions.")
	} else {
		fmt.Printf("%-8s %8s %12s %12s %14s %14s\n", "ID", "QTY", "AVG", "NOW", "VALUE", "P/L")
		var totalValue, totalPL int64
		for _, h := range payload.Holdings {
			totalValue += h.MarketValue
			totalPL += h.Unrealized
			fmt.Printf("%-8s %8d %12s %12s %14s %14s\n",
				h.InstrumentID,
				h.Quantity,
				formatPrice(h.AvgCost),
				formatPrice(h.CurrentPrice),
				formatPrice(h.MarketValue),
				colorizePrice(h.Unrealized),
			)
		}
		fmt.Printf("%-8s %8s %12s %12s %14s %14s\n", "TOTAL", "", "", "", formatPrice(totalValue), colorizePrice(totalPL))
	}
	if len(payload.Trades) > 0 {
		fmt.Println()
		accent.Println("Trades")
		fmt.Printf("%-6s %-8s %-5s %8s %12s %14s\n", "HOUR", "ID", "SIDE", "QTY", "PRICE", "CASH")
		for _, t := range payload.Trades {
			fmt.Printf("%-6d %-8s %-5s %8d %12s %14s\n",
				t.Hour, t.InstrumentID, t.Direction, t.Quantity,
				formatPrice(t.UnitPrice), colorizePrice(t.CashDelta))
		}
	}
	fmt.Println()
	return nil
}

func jsonIndent(in any) string {
	raw, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", in)
	}
	return string(raw)
}

func decodeInto[T any](in any) (T, error) {
	var out T
	raw, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

func colorizeStatus(s string) string {
	switch s {
	case "early-stage", "rising":
		return success.Sprint(s)
	case "near-limit":
		return warn.Sprint(s)
	case "limit-up", "falling":
		return danger.Sprint(s)
	default:
		return neutral.Sprint(s)
	}
}

func colorizeRisk(v float64) string {
	text := fmt.Sprintf("%.2f", v)
	switch {
	case v < 0.35:
		return success.Sprint(text)
	case v < 0.65:
		return warn.Sprint(text)
	default:
		return danger.Sprint(text)
	}
}

func colorizePrice(v int64) string {
	text := formatPrice(v)
	if v > 0 {
		text = "+" + text
	}
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

// formatPrice renders minor units as credits with two decimals.
func formatPrice(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%s.%02d", sign, comma(v/100), v%100)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
