package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PredictLens/internal/collector"
	"PredictLens/internal/comparison"
	"PredictLens/internal/forecast"
	"PredictLens/internal/model"
	"PredictLens/internal/recorder"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

type fakeRecorder struct {
	recorder.NoopRecorder
	comparisons [][]model.MetricSummary
	forecasts   []*model.ForecastResult
}

func (r *fakeRecorder) RecordComparison(m []model.MetricSummary) error {
	r.comparisons = append(r.comparisons, m)
	return nil
}

func (r *fakeRecorder) RecordForecast(res *model.ForecastResult) error {
	r.forecasts = append(r.forecasts, res)
	return nil
}

func (r *fakeRecorder) RecentForecasts(ticker string, _ int) ([]recorder.ForecastRun, error) {
	var out []recorder.ForecastRun
	for _, f := range r.forecasts {
		if f.Ticker == ticker {
			out = append(out, recorder.ForecastRun{Ticker: f.Ticker, Horizon: f.Horizon, Timestamp: f.GeneratedAt})
		}
	}
	return out, nil
}

func writeSource(t *testing.T, dir, name, body string) comparison.Source {
	t.Helper()
	path := filepath.Join(dir, name+".json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return comparison.Source{Name: name, Path: path}
}

func newTestScheduler(t *testing.T, fetcher *collector.MockFetcher) (*Scheduler, *fakeNotifier, *fakeRecorder) {
	t.Helper()
	dir := t.TempDir()
	sources := []comparison.Source{
		writeSource(t, dir, "A", `[{"date":"2023-01-01","real_price":100,"pred_price":101}]`),
		writeSource(t, dir, "B", `[{"date":"2023-01-01","real_price":100,"predicted":98}]`),
	}
	fs := forecast.NewService(collector.NewCollector(fetcher, nil), nil, nil)
	n := &fakeNotifier{}
	rec := &fakeRecorder{}
	defaults := forecast.Options{Ticker: "AAPL", Horizon: 5, HistoryDays: 120, TestRatio: 0.2, BaselineWindow: 20}
	s := NewScheduler(context.Background(), fs, comparison.NewService(comparison.MatchFirst, nil), sources, n, rec, defaults, nil)
	return s, n, rec
}

func mockFetcher() *collector.MockFetcher {
	return &collector.MockFetcher{DailyData: collector.GenerateMockBars(100, 120, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC))}
}

func TestRegisterWatch(t *testing.T) {
	s, _, _ := newTestScheduler(t, mockFetcher())
	assert.Error(t, s.RegisterWatch("0 30 22 * * 1-5", nil))
	assert.Error(t, s.RegisterWatch("not a cron", []string{"AAPL"}))

	s, _, _ = newTestScheduler(t, mockFetcher())
	require.NoError(t, s.RegisterWatch("0 30 22 * * 1-5", []string{"aapl", " msft "}))
	assert.Len(t, s.Cron.Entries(), 2)
}

func TestForecastTask(t *testing.T) {
	s, n, rec := newTestScheduler(t, mockFetcher())
	s.RunNow("aapl")
	require.Len(t, rec.forecasts, 1)
	assert.Equal(t, "AAPL", rec.forecasts[0].Ticker)
	assert.Equal(t, 5, rec.forecasts[0].Horizon)
	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "PredictLens forecast")

	failing, n2, rec2 := newTestScheduler(t, &collector.MockFetcher{Err: errors.New("upstream down")})
	failing.forecastTask("AAPL")
	assert.Empty(t, rec2.forecasts)
	require.Len(t, n2.sent, 1)
	assert.Contains(t, n2.sent[0], "upstream down")
}

func TestHandleCommand(t *testing.T) {
	ctx := context.Background()
	s, _, rec := newTestScheduler(t, mockFetcher())

	reply := s.HandleCommand(ctx, "/forecast msft 3")
	assert.Contains(t, reply, "MSFT")
	require.Len(t, rec.forecasts, 1)
	assert.Equal(t, 3, rec.forecasts[0].Horizon)

	assert.Contains(t, s.HandleCommand(ctx, "/forecast MSFT x"), "invalid horizon")
	assert.Contains(t, s.HandleCommand(ctx, "/forecast MSFT 99"), "failed")

	reply = s.HandleCommand(ctx, "/compare")
	assert.Contains(t, reply, "Model comparison")
	assert.Contains(t, reply, "B: MAE n/a | RMSE n/a | MAPE 2.00%")
	require.Len(t, rec.comparisons, 1)

	assert.Contains(t, s.HandleCommand(ctx, "/history MSFT"), "MSFT recent forecasts")
	assert.Contains(t, s.HandleCommand(ctx, "/history TSLA"), "No recorded forecasts")
	assert.Equal(t, "usage: /history TICKER", s.HandleCommand(ctx, "/history"))
	assert.Equal(t, helpText, s.HandleCommand(ctx, "hello"))
	assert.Equal(t, helpText, s.HandleCommand(ctx, "  "))
}
