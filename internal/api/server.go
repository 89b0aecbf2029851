package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"simarket/internal/advisor"
	"simarket/internal/config"
	"simarket/internal/ledger"
	"simarket/internal/market"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TickArchiver receives each advanced hour for out-of-band persistence.
// Archiving failures are logged, never surfaced to clients.
type TickArchiver interface {
	ArchiveTick(ctx context.Context, hour int, prices map[string]int64) error
}

// Server exposes one engine session over HTTP. The engine is a single
// logical writer, so every handler takes the read lock and every advance
// takes the write lock.
type Server struct {
	cfg      config.ServerConfig
	log      *slog.Logger
	mu       sync.RWMutex
	engine   *market.Engine
	hub      *Hub
	archiver TickArchiver
	mux      *chi.Mux
}

func New(cfg config.ServerConfig, logger *slog.Logger, engine *market.Engine, archiver TickArchiver) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		log:      logger,
		engine:   engine,
		hub:      NewHub(logger),
		archiver: archiver,
		mux:      chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/instruments", s.handleInstrumentsList)
		r.Get("/instruments/{id}", s.handleInstrumentDetail)
		r.Get("/instruments/{id}/predict", s.handlePredict)
		r.Get("/rank", s.handleRank)
		r.Post("/orders", s.handleOrder)
		r.Get("/portfolio", s.handlePortfolio)
		r.Post("/advance", s.handleAdvance)
		r.Get("/export", s.handleExport)
		r.Get("/stream", s.handleStream)
	})
}

type instrumentSummary struct {
	ID           string          `json:"id"`
	DisplayName  string          `json:"display_name"`
	Tags         []market.Sector `json:"tags"`
	Archetype    string          `json:"archetype"`
	CurrentPrice int64           `json:"current_price"`
	LowerBand    int64           `json:"lower_band"`
	UpperBand    int64           `json:"upper_band"`
}

func summarize(in *market.Instrument, price int64) instrumentSummary {
	return instrumentSummary{
		ID:           in.ID,
		DisplayName:  in.DisplayName,
		Tags:         in.Tags,
		Archetype:    in.Archetype.String(),
		CurrentPrice: price,
		LowerBand:    in.LowerBand,
		UpperBand:    in.UpperBand,
	}
}

func (s *Server) handleInstrumentsList(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	insts := s.engine.Instruments()
	out := make([]instrumentSummary, 0, len(insts))
	for _, in := range insts {
		price, _ := s.engine.Price(in.ID)
		out = append(out, summarize(in, price))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hour":        s.engine.CurrentHour(),
		"day":         s.engine.CurrentDay(),
		"instruments": out,
	})
}

func (s *Server) handleInstrumentDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.engine.Instrument(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, market.ErrInstrumentNotFound.Error())
		return
	}
	price, _ := s.engine.Price(in.ID)

	hours := queryInt(r, "hours", market.HoursPerDay)
	if hours < 1 {
		hours = 1
	}
	hour := s.engine.CurrentHour()
	start := hour - hours + 1
	if start < 0 {
		start = 0
	}
	series := make([]int64, 0, hour-start+1)
	for h := start; h <= hour; h++ {
		p, _ := in.PriceAt(h)
		series = append(series, p)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instrument": summarize(in, price),
		"from_hour":  start,
		"series":     series,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in, ok := s.engine.Instrument(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, market.ErrInstrumentNotFound.Error())
		return
	}
	buff := queryFloat(r, "buff", s.cfg.Buff)
	p := advisor.Predict(in, s.engine.CurrentDay(), s.engine.CurrentHour(), s.engine.Effects(), buff)
	predictionsTotal.Inc()
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buff := queryFloat(r, "buff", s.cfg.Buff)
	topN := queryInt(r, "top", s.cfg.RankTopN)

	insts := s.engine.Instruments()
	byID := make(map[string]*market.Instrument, len(insts))
	preds := make([]advisor.Prediction, 0, len(insts))
	day, hour := s.engine.CurrentDay(), s.engine.CurrentHour()
	for _, in := range insts {
		byID[in.ID] = in
		preds = append(preds, advisor.Predict(in, day, hour, s.engine.Effects(), buff))
	}
	entries := advisor.Rank(preds, byID, advisor.DefaultWeights, topN)
	if r.URL.Query().Get("buyable") == "1" {
		entries = advisor.Buyable(entries, advisor.BuyableThreshold)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hour":    hour,
		"day":     day,
		"entries": entries,
		"sells":   advisor.SellCandidates(preds),
	})
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		InstrumentID string `json:"instrument_id"`
		Side         string `json:"side"`
		Quantity     int64  `json:"quantity"`
		Balance      int64  `json:"balance"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var trade ledger.Trade
	var err error
	switch strings.ToLower(strings.TrimSpace(in.Side)) {
	case "buy":
		trade, err = s.engine.Buy(in.InstrumentID, in.Quantity, in.Balance)
	case "sell":
		trade, err = s.engine.Sell(in.InstrumentID, in.Quantity)
	default:
		writeError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	ordersTotal.WithLabelValues(string(trade.Direction)).Inc()
	writeJSON(w, http.StatusOK, trade)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holdings := s.engine.Book().Holdings()
	type position struct {
		ledger.Holding
		CurrentPrice int64 `json:"current_price"`
		MarketValue  int64 `json:"market_value"`
		Unrealized   int64 `json:"unrealized"`
	}
	out := make([]position, 0, len(holdings))
	for _, h := range holdings {
		price, _ := s.engine.Price(h.InstrumentID)
		out = append(out, position{
			Holding:      h,
			CurrentPrice: price,
			MarketValue:  h.Quantity * price,
			Unrealized:   h.Quantity * (price - h.AvgCost),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hour":     s.engine.CurrentHour(),
		"holdings": out,
		"trades":   s.engine.Book().Trades(),
	})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Hours int `json:"hours"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Hours <= 0 {
		in.Hours = s.cfg.HoursPerTick
	}
	hour, day := s.AdvanceHours(r.Context(), in.Hours)
	writeJSON(w, http.StatusOK, map[string]any{"hour": hour, "day": day})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, s.engine.Export())
}

// AdvanceHours moves the clock forward, archives the new hour and notifies
// stream subscribers. The periodic ticker and the advance endpoint share it.
func (s *Server) AdvanceHours(ctx context.Context, hours int) (hour, day int) {
	s.mu.Lock()
	target := s.engine.CurrentHour() + hours
	s.engine.AdvanceTo(target)
	hour, day = s.engine.CurrentHour(), s.engine.CurrentDay()
	prices := make(map[string]int64, len(s.engine.Instruments()))
	for _, in := range s.engine.Instruments() {
		p, _ := s.engine.Price(in.ID)
		prices[in.ID] = p
	}
	s.mu.Unlock()

	ticksTotal.Inc()
	currentHour.Set(float64(hour))
	s.log.Info("advanced", "hour", hour, "day", day)

	if s.archiver != nil {
		if err := s.archiver.ArchiveTick(ctx, hour, prices); err != nil {
			s.log.Error("tick archive failed", "hour", hour, "error", err)
		}
	}
	s.hub.Broadcast(TickEvent{Hour: hour, Day: day, Prices: prices})
	return hour, day
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrInstrumentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientShares),
		errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrNotionalOverflow):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
