package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"options-signal-bot/internal/analysis"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "options-signal-bot",
		Short: "Options trading bot driven by technical and news signals",
		// Silence cobra's own usage dump on runtime errors.
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the yaml config")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(cycleCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(watchlistCmd())
	rootCmd.AddCommand(trendingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCmd() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot and run the strategy on its schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				// no configured channel yet, the log alerter still records it
				return reportFatal(nil, "Bot Startup Failed", err)
			}
			if err := a.engine.Start(ctx); err != nil {
				a.shutdown(context.Background())
				return reportFatal(a.alerter, "Bot Startup Failed", err)
			}

			sched := scheduler.New(ctx, a.cfg.Location(), scheduler.Jobs{
				Engine:        a.engine,
				Eod:           a.eod,
				Journal:       a.journal,
				Alerter:       a.alerter,
				RetentionDays: a.cfg.Journal.RetentionDays,
			})
			if err := sched.Register(a.cfg.Schedule.StrategyCron, a.cfg.Schedule.ReportCron); err != nil {
				a.shutdown(context.Background())
				return reportFatal(a.alerter, "Bot Scheduling Failed", err)
			}
			sched.Start()
			if runNow {
				go sched.RunStrategy()
			}

			logger.Info(ctx, "Bot running",
				"mode", a.cfg.Mode,
				"strategy_cron", a.cfg.Schedule.StrategyCron,
				"report_cron", a.cfg.Schedule.ReportCron,
				"timezone", a.cfg.Schedule.Timezone,
			)
			<-ctx.Done()
			logger.Info(context.Background(), "Shutting down...")

			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			a.engine.Stop(sctx)
			sched.Stop(sctx)
			if p, err := a.eod.SummarizeToday(sctx); err == nil && p != "" {
				logger.Info(sctx, "EOD CSV written", "path", p)
			}
			a.shutdown(sctx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "now", false, "Run one strategy cycle immediately after start")
	return cmd
}

func cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Run a single strategy cycle and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())
			if err := a.engine.Start(ctx); err != nil {
				return err
			}
			res, err := a.engine.ExecuteTradingStrategy(ctx)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Print indicators and the technical signal for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			symbol := strings.ToUpper(args[0])
			bars, err := a.broker.GetStockBars(ctx, symbol, "1Day", 100)
			if err != nil {
				return fmt.Errorf("fetch bars for %s: %w", symbol, err)
			}
			res, err := analysis.Analyze(symbol, bars)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Send the daily report and write the end-of-day CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			perf, err := a.engine.CalculatePerformance(ctx)
			if err != nil {
				logger.Warn(ctx, "Performance incomplete", "error", err)
			}
			if err := a.engine.SendDailyReport(ctx); err != nil {
				return err
			}
			if _, err := a.eod.SummarizeToday(ctx); err != nil {
				return err
			}
			return printJSON(perf)
		},
	}
}

func watchlistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watchlist",
		Short: "Print quotes and the latest headline for each watchlist symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			rows, err := a.engine.GetWatchlist(ctx)
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	}
}

func trendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trending",
		Short: "Detect trending watchlist symbols and print them",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			if err := a.engine.Initialize(ctx); err != nil {
				return err
			}
			items, err := a.engine.GetTrendingStocks(ctx)
			if err != nil {
				return err
			}
			return printJSON(items)
		},
	}
}
