package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"PredictLens/internal/notifier"
	"PredictLens/internal/scheduler"
)

func newWatchCmd(a *app) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run forecasts on the configured cron schedule and report to Telegram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rec := a.recorder()
			defer rec.Close()

			n := a.notifier()
			sched := scheduler.NewScheduler(ctx,
				a.forecastService(a.collector()), a.comparisonService(), a.sources(),
				n, rec, a.forecastOptions(), a.logger.Named("scheduler"))

			tickers := a.cfg.Forecast.WatchTickers
			if len(tickers) == 0 {
				tickers = []string{a.cfg.Forecast.Ticker}
			}
			if err := sched.RegisterWatch(a.cfg.Forecast.WatchCron, tickers); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn, ok := n.(*notifier.TelegramNotifier); ok {
				go tn.StartPolling(ctx, sched.HandleCommand)
				a.logger.Info("telegram polling started")
			} else {
				a.logger.Warn("telegram not configured, reports are logged only")
			}

			if runNow || os.Getenv("RUN_ON_START") == "true" {
				for _, t := range tickers {
					go sched.RunNow(t)
				}
			}

			a.logger.Info("watching", zap.Strings("tickers", tickers), zap.String("cron", a.cfg.Forecast.WatchCron))
			<-ctx.Done()
			a.logger.Info("shutdown signal received, stopping")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "run every watched forecast once at startup (env RUN_ON_START=true)")
	return cmd
}
