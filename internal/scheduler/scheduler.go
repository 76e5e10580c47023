package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"PredictLens/internal/comparison"
	"PredictLens/internal/forecast"
	"PredictLens/internal/model"
	"PredictLens/internal/notifier"
	"PredictLens/internal/recorder"
)

const sendRetries = 3

// Scheduler runs forecasts on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron       *cron.Cron
	Forecast   *forecast.Service
	Comparison *comparison.Service
	Sources    []comparison.Source
	Notifier   notifier.Notifier
	Recorder   recorder.Recorder
	Logger     *zap.Logger
	Defaults   forecast.Options // Ticker is set per job
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, fs *forecast.Service, cs *comparison.Service, sources []comparison.Source,
	n notifier.Notifier, rec recorder.Recorder, defaults forecast.Options, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if n == nil {
		n = notifier.NopNotifier{}
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Forecast:   fs,
		Comparison: cs,
		Sources:    sources,
		Notifier:   n,
		Recorder:   rec,
		Logger:     logger,
		Defaults:   defaults,
		Ctx:        ctx,
	}
}

// RegisterWatch registers one forecast job per ticker on spec.
func (s *Scheduler) RegisterWatch(spec string, tickers []string) error {
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers to watch")
	}
	for _, ticker := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(ticker))
		if _, err := s.Cron.AddFunc(spec, func() { s.forecastTask(ticker) }); err != nil {
			return fmt.Errorf("register forecast task for %s: %w", ticker, err)
		}
		s.Logger.Info("forecast task registered", zap.String("ticker", ticker), zap.String("cron", spec))
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started", zap.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// RunNow executes the forecast task for ticker immediately.
func (s *Scheduler) RunNow(ticker string) {
	s.forecastTask(strings.ToUpper(ticker))
}

// RunForecast runs and records one forecast.
func (s *Scheduler) RunForecast(ctx context.Context, ticker string, horizon int) (*model.ForecastResult, error) {
	opts := s.Defaults
	opts.Ticker = ticker
	if horizon > 0 {
		opts.Horizon = horizon
	}
	res, err := s.Forecast.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordForecast(res); err != nil {
		s.Logger.Error("record forecast", zap.String("ticker", ticker), zap.Error(err))
	}
	return res, nil
}

func (s *Scheduler) forecastTask(ticker string) {
	s.Logger.Info("running forecast task", zap.String("ticker", ticker))
	res, err := s.RunForecast(s.Ctx, ticker, 0)
	if err != nil {
		s.Logger.Error("forecast task", zap.String("ticker", ticker), zap.Error(err))
		s.trySend(notifier.FormatFailure("forecast "+ticker, err))
		return
	}
	s.trySend(notifier.FormatForecastReport(res))
}

// RunComparison compares the configured sources and records the metrics.
func (s *Scheduler) RunComparison() (*comparison.Report, error) {
	if s.Comparison == nil {
		return nil, fmt.Errorf("comparison not configured")
	}
	rep, err := s.Comparison.Run(s.Sources)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordComparison(rep.Metrics); err != nil {
		s.Logger.Error("record comparison", zap.Error(err))
	}
	return rep, nil
}

const helpText = "Commands:\n• /forecast TICKER [HORIZON]\n• /compare\n• /history TICKER"

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/forecast":
		ticker := s.Defaults.Ticker
		if len(fields) > 1 {
			ticker = strings.ToUpper(fields[1])
		}
		horizon := 0
		if len(fields) > 2 {
			h, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Sprintf("invalid horizon %q", fields[2])
			}
			horizon = h
		}
		res, err := s.RunForecast(ctx, ticker, horizon)
		if err != nil {
			return notifier.FormatFailure("forecast "+ticker, err)
		}
		return notifier.FormatForecastReport(res)
	case "/compare":
		rep, err := s.RunComparison()
		if err != nil {
			return notifier.FormatFailure("comparison", err)
		}
		return notifier.FormatComparisonReport(rep.Metrics)
	case "/history":
		if len(fields) < 2 {
			return "usage: /history TICKER"
		}
		ticker := strings.ToUpper(fields[1])
		runs, err := s.Recorder.RecentForecasts(ticker, 5)
		if err != nil {
			return notifier.FormatFailure("history "+ticker, err)
		}
		return formatHistory(ticker, runs)
	default:
		return helpText
	}
}

func formatHistory(ticker string, runs []recorder.ForecastRun) string {
	if len(runs) == 0 {
		return fmt.Sprintf("No recorded forecasts for %s", ticker)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>%s recent forecasts</b>\n", ticker))
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("  %s t+%d: %.2f (MAE %.4f)\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.Horizon, r.FinalForecast, r.MAE))
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		s.Logger.Error("send notification", zap.Error(err))
	}
}
