package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"PredictLens/internal/notifier"
	"PredictLens/internal/report"
)

func newForecastCmd(a *app) *cobra.Command {
	var (
		ticker  string
		horizon int
		csvPath string
		notify  bool
	)
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Fit a linear model on daily closes and forecast the next trading days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.forecastOptions()
			if ticker != "" {
				opts.Ticker = strings.ToUpper(ticker)
			}
			if cmd.Flags().Changed("horizon") {
				opts.Horizon = horizon
			}

			rec := a.recorder()
			defer rec.Close()

			res, err := a.forecastService(a.collector()).Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := rec.RecordForecast(res); err != nil {
				a.logger.Error("record forecast", zap.Error(err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.ForecastTable(res))

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("create csv: %w", err)
				}
				defer f.Close()
				if err := report.WriteHistoryCSV(f, res.History); err != nil {
					return err
				}
				fmt.Fprintln(out, "history written to", csvPath)
			}

			if notify {
				if err := a.notifier().SendWithRetry(cmd.Context(), notifier.FormatForecastReport(res), 3); err != nil {
					return fmt.Errorf("notify: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&ticker, "ticker", "t", "", "ticker symbol (default from config)")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "trading days to forecast, 1-30 (default from config)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the fetched daily history to this CSV file")
	cmd.Flags().BoolVar(&notify, "notify", false, "send the report to Telegram")
	return cmd
}
