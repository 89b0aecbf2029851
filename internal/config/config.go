package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"simarket/internal/market"
)

type ServerConfig struct {
	Addr            string
	Seed            int64
	InstrumentCount int
	EffectMode      market.EffectMode
	TickEvery       time.Duration
	HoursPerTick    int
	Buff            float64
	RankTopN        int
	// DatabaseURL is optional; when empty, tick archiving is disabled.
	DatabaseURL string
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadServerFromEnv() (ServerConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("SIMARKET_ADDR", ":8080")
	}

	cfg := ServerConfig{
		Addr:            addr,
		InstrumentCount: envIntDefault("SIMARKET_INSTRUMENTS", market.DefaultSessionInstruments),
		EffectMode:      market.ParseEffectMode(envDefault("SIMARKET_EFFECT_MODE", "hourly")),
		TickEvery:       envDurationDefault("SIMARKET_TICK_EVERY", time.Minute),
		HoursPerTick:    envIntDefault("SIMARKET_HOURS_PER_TICK", 1),
		Buff:            envFloatDefault("SIMARKET_BUFF", 0),
		RankTopN:        envIntDefault("SIMARKET_RANK_TOP_N", 10),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}

	raw := strings.TrimSpace(os.Getenv("SIMARKET_SEED"))
	if raw == "" {
		return cfg, fmt.Errorf("SIMARKET_SEED is required")
	}
	seed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("SIMARKET_SEED must be an integer: %w", err)
	}
	cfg.Seed = seed

	if cfg.InstrumentCount <= 0 {
		cfg.InstrumentCount = market.DefaultSessionInstruments
	}
	if cfg.HoursPerTick <= 0 {
		cfg.HoursPerTick = 1
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("SIMCTL_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envIntDefault(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
