package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"PredictLens/internal/config"
	"PredictLens/internal/logger"
)

const defaultConfigPath = "configs/config.yaml"

// app carries state shared by every subcommand once the root pre-run has loaded it.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{configPath: defaultConfigPath}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		a.configPath = v
	}

	root := &cobra.Command{
		Use:   "predictlens",
		Short: "Compare stock price forecasts and run a linear close forecast",
		Long: `PredictLens compares precomputed model predictions against real prices
(compare), fits a linear regression on fetched daily closes to forecast the
next trading days (forecast), and exposes both over HTTP (serve) or on a
cron schedule with Telegram reports (watch).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg, a.logger = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", a.configPath, "path to the YAML config (env CONFIG_PATH)")

	root.AddCommand(
		newCompareCmd(a),
		newForecastCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
