package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "simarket/internal/cli"
	"simarket/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "simctl",
		Short:        "Simarket session client",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&apiBase, "api", apiBase, "API base URL")

	root.AddCommand(
		newInstrumentsCmd(&apiBase),
		newPredictCmd(&apiBase),
		newRankCmd(&apiBase),
		newBuyCmd(&apiBase),
		newSellCmd(&apiBase),
		newPortfolioCmd(&apiBase),
		newAdvanceCmd(&apiBase),
		newExportCmd(&apiBase),
		newWatchlistCmd(),
		newWatchCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newInstrumentsCmd(apiBase *string) *cobra.Command {
	var hours int
	cmd := &cobra.Command{
		Use:     "instruments [id]",
		Short:   "List session instruments or inspect one",
		Aliases: []string{"ls"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			client := newClient(apiBase)

			if len(args) == 0 {
				out, err := client.Instruments(ctx)
				if err != nil {
					return err
				}
				return renderInstruments(out)
			}
			out, err := client.InstrumentDetail(ctx, strings.ToUpper(strings.TrimSpace(args[0])), hours)
			if err != nil {
				return err
			}
			return renderInstrumentDetail(out)
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 24, "series hours to fetch for a single instrument")
	return cmd
}

func newPredictCmd(apiBase *string) *cobra.Command {
	var buff float64
	cmd := &cobra.Command{
		Use:   "predict <id>",
		Short: "Predict one instrument's trajectory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Predict(ctx, strings.ToUpper(strings.TrimSpace(args[0])), buff)
			if err != nil {
				return err
			}
			return renderPrediction(out)
		},
	}
	cmd.Flags().Float64Var(&buff, "buff", 0, "player sense buff in [0,1]")
	return cmd
}

func newRankCmd(apiBase *string) *cobra.Command {
	var topN int
	var buff float64
	var buyable bool
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the session by composite advisory score",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Rank(ctx, topN, buff, buyable)
			if err != nil {
				return err
			}
			return renderRank(out)
		},
	}
	cmd.Flags().IntVar(&topN, "top", 10, "entries to show")
	cmd.Flags().Float64Var(&buff, "buff", 0, "player sense buff in [0,1]")
	cmd.Flags().BoolVar(&buyable, "buyable", false, "only actionable entries")
	return cmd
}

func newBuyCmd(apiBase *string) *cobra.Command {
	var balance int64
	cmd := &cobra.Command{
		Use:   "buy <id> <qty>",
		Short: "Buy shares against your game balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQty(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).PlaceOrder(ctx,
				strings.ToUpper(strings.TrimSpace(args[0])), "buy", qty, balance)
			if err != nil {
				return err
			}
			return renderTrade(out)
		},
	}
	cmd.Flags().Int64Var(&balance, "balance", 0, "available balance in minor units")
	cmd.MarkFlagRequired("balance")
	return cmd
}

func newSellCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sell <id> <qty>",
		Short: "Sell held shares",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQty(args[1])
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).PlaceOrder(ctx,
				strings.ToUpper(strings.TrimSpace(args[0])), "sell", qty, 0)
			if err != nil {
				return err
			}
			return renderTrade(out)
		},
	}
}

func newPortfolioCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:     "portfolio",
		Short:   "Show holdings and trade history",
		Aliases: []string{"pf"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Portfolio(ctx)
			if err != nil {
				return err
			}
			return renderPortfolio(out)
		},
	}
}

func newAdvanceCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "advance [hours]",
		Short: "Advance the session clock",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours := 1
			if len(args) > 0 {
				v, err := strconv.Atoi(strings.TrimSpace(args[0]))
				if err != nil || v <= 0 {
					return fmt.Errorf("hours must be a positive integer")
				}
				hours = v
			}
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Advance(ctx, hours)
			if err != nil {
				return err
			}
			payload, err := decodeInto[advancePayload](out)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Advanced to hour %d (day %d).", payload.Hour, payload.Day))
			return nil
		},
	}
}

func newExportCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Dump the effect cycle and instrument tags as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Export(ctx)
			if err != nil {
				return err
			}
			enc := jsonIndent(out)
			fmt.Println(enc)
			return nil
		},
	}
}

func newWatchlistCmd() *cobra.Command {
	watchlist := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage locally pinned instruments",
	}
	watchlist.AddCommand(&cobra.Command{
		Use:   "add <id>",
		Short: "Pin an instrument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.WatchAdd(args[0]); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Pinned %s.", strings.ToUpper(strings.TrimSpace(args[0]))))
			return nil
		},
	})
	watchlist.AddCommand(&cobra.Command{
		Use:     "remove <id>",
		Short:   "Unpin an instrument",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.WatchRemove(args[0]); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Unpinned %s.", strings.ToUpper(strings.TrimSpace(args[0]))))
			return nil
		},
	})
	watchlist.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List pinned instruments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := cl.LoadWatchlist()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				printInfo("Watchlist is empty.")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	})
	return watchlist
}

func parseQty(arg string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("quantity must be a positive integer")
	}
	return v, nil
}
