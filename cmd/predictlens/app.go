package main

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"PredictLens/internal/collector"
	"PredictLens/internal/comparison"
	"PredictLens/internal/forecast"
	"PredictLens/internal/notifier"
	"PredictLens/internal/recorder"
)

func (a *app) fetcher() collector.Fetcher {
	ds := a.cfg.DataSource
	var f collector.Fetcher
	switch ds.Provider {
	case "rest":
		f = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, a.cfg.Proxy)
	case "mock":
		f = &collector.MockFetcher{Price: 100}
	default:
		f = collector.NewYahooFetcher(a.cfg.Proxy)
	}
	a.logger.Info("data source selected", zap.String("provider", f.Name()))
	return collector.NewCachedFetcher(f, time.Duration(ds.CacheTTLSeconds)*time.Second, ds.RequestsPerSecond)
}

func (a *app) collector() *collector.Collector {
	return collector.NewCollector(a.fetcher(), a.logger.Named("collector"))
}

func (a *app) forecastService(col *collector.Collector) *forecast.Service {
	return forecast.NewService(col, forecast.OLS{}, a.logger.Named("forecast"))
}

func (a *app) comparisonService() *comparison.Service {
	return comparison.NewService(comparison.MatchPolicy(a.cfg.Comparison.MatchPolicy), a.logger.Named("comparison"))
}

func (a *app) sources() []comparison.Source {
	out := make([]comparison.Source, len(a.cfg.Comparison.Sources))
	for i, s := range a.cfg.Comparison.Sources {
		out[i] = comparison.Source{
			Name: s.Name,
			Path: s.Path,
			Mapping: comparison.ColumnMapping{
				Predicted: s.Mapping.Predicted,
				MAE:       s.Mapping.MAE,
				RMSE:      s.Mapping.RMSE,
			},
		}
	}
	return out
}

func (a *app) forecastOptions() forecast.Options {
	fc := a.cfg.Forecast
	return forecast.Options{
		Ticker:         strings.ToUpper(fc.Ticker),
		Horizon:        fc.Horizon,
		HistoryDays:    fc.HistoryDays,
		TestRatio:      fc.TestRatio,
		BaselineWindow: fc.BaselineWindow,
	}
}

// recorder opens SQLite history, falling back to a no-op recorder.
func (a *app) recorder() recorder.Recorder {
	if a.cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	r, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.logger.Named("recorder"))
	if err != nil {
		a.logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		return recorder.NewNoopRecorder()
	}
	return r
}

func (a *app) notifier() notifier.Notifier {
	if !a.cfg.NotificationsEnabled() {
		return notifier.NopNotifier{}
	}
	return notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.logger.Named("telegram"))
}
