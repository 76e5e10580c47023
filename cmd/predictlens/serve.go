package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"PredictLens/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the comparison and forecast dashboard API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			rec := a.recorder()
			defer rec.Close()

			col := a.collector()
			srv := server.New(server.Deps{
				Comparison:    a.comparisonService(),
				Sources:       a.sources(),
				Forecast:      a.forecastService(col),
				Collector:     col,
				Recorder:      rec,
				Defaults:      a.forecastOptions(),
				HistogramBins: a.cfg.Comparison.HistogramBins,
				PreviewRows:   a.cfg.Comparison.PreviewRows,
				Logger:        a.logger.Named("http"),
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutdown signal received, stopping")
			if err := srv.Shutdown(context.Background()); err != nil {
				a.logger.Error("http shutdown", zap.Error(err))
			}
			return <-errCh
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
