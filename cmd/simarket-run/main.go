package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"simarket/internal/advisor"
	"simarket/internal/ledger"
	"simarket/internal/market"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed)
	dim     = color.New(color.FgHiBlack)
)

func main() {
	var (
		seed        int64
		days        int
		instruments int
		mode        string
		buff        float64
		topN        int
		quiet       bool
	)

	root := &cobra.Command{
		Use:          "simarket-run",
		Short:        "Run a session offline and print the daily advisory",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("days must be positive")
			}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if !quiet {
				logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			}

			engine := market.NewEngine(seed, instruments, market.ParseEffectMode(mode), ledger.NewBook(), logger)
			for day := 1; day <= days; day++ {
				engine.AdvanceTo(day*market.HoursPerDay - 1)
				printDay(engine, day, buff, topN)
			}
			return nil
		},
	}

	root.Flags().Int64Var(&seed, "seed", 0, "session seed")
	root.Flags().IntVar(&days, "days", 3, "days to simulate")
	root.Flags().IntVar(&instruments, "instruments", market.DefaultSessionInstruments, "instruments per session")
	root.Flags().StringVar(&mode, "mode", "hourly", "effect mode: hourly or daily-once")
	root.Flags().Float64Var(&buff, "buff", 0, "player sense buff in [0,1]")
	root.Flags().IntVar(&topN, "top", 8, "advisory entries per day")
	root.Flags().BoolVar(&quiet, "quiet", false, "suppress engine logs")
	root.MarkFlagRequired("seed")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printDay(engine *market.Engine, day int, buff float64, topN int) {
	hour := engine.CurrentHour()
	insts := engine.Instruments()
	byID := make(map[string]*market.Instrument, len(insts))
	preds := make([]advisor.Prediction, 0, len(insts))
	for _, in := range insts {
		byID[in.ID] = in
		preds = append(preds, advisor.Predict(in, day, hour, engine.Effects(), buff))
	}
	entries := advisor.Rank(preds, byID, advisor.DefaultWeights, topN)

	heading.Printf("\n== DAY %d (hour %d) ==\n", day, hour)
	fmt.Printf("%-8s %-22s %10s %7s %-18s %-11s %6s\n", "ID", "NAME", "PRICE", "SCORE", "TIER", "STATUS", "RISK")
	for _, e := range entries {
		price, _ := engine.Price(e.InstrumentID)
		fmt.Printf("%-8s %-22s %10s %7.1f %-18s %-11s %6.2f\n",
			e.InstrumentID,
			truncate(e.DisplayName, 22),
			formatPrice(price),
			e.Score,
			e.Tier,
			e.Prediction.StatusLabel,
			e.Prediction.RiskLevel,
		)
	}

	sells := advisor.SellCandidates(preds)
	if len(sells) > 0 {
		bad.Println("exit candidates:")
		for _, p := range sells {
			fmt.Printf("  %-8s %-11s %s\n", p.InstrumentID, p.StatusLabel, p.Reason)
		}
	} else {
		good.Println("no exit pressure today")
	}
	dim.Printf("effects day %d of %d in cycle\n", (day-1)%engine.Effects().CycleLength()+1, engine.Effects().CycleLength())
}

func formatPrice(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
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
