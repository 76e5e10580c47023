package collector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"PredictLens/internal/model"
)

// ErrNoBars is returned when the provider has no history for a ticker.
var ErrNoBars = errors.New("no price history returned")

// FetchError reports that the upstream provider could not be reached or read.
type FetchError struct {
	Ticker string
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch daily bars for %s from %s: %v", e.Ticker, e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MockFetcher returns controllable fixed data for development and testing.
// It is safe for concurrent use; the other fields must not change after first use.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Err       error
	Calls     atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	m.Calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return GenerateMockBars(m.Price, days, time.Now().UTC()), nil
}

// GenerateMockBars builds count daily bars with a gentle upward drift ending at end.
func GenerateMockBars(basePrice float64, count int, end time.Time) []model.OHLCV {
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches and sanity-checks price history.
type Collector struct {
	Fetcher Fetcher
	Logger  *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{Fetcher: fetcher, Logger: logger}
}

// Collect fetches daily history for ticker covering the last days calendar days.
// Bars with a non-positive close are dropped.
func (c *Collector) Collect(ctx context.Context, ticker string, days int) (*model.PriceHistory, error) {
	bars, err := c.Fetcher.FetchDailyBars(ctx, ticker, days)
	if err != nil {
		return nil, &FetchError{Ticker: ticker, Source: c.Fetcher.Name(), Err: err}
	}

	clean := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}
		clean = append(clean, b)
	}
	if dropped := len(bars) - len(clean); dropped > 0 {
		c.Logger.Warn("dropped bars without a close",
			zap.String("ticker", ticker), zap.Int("dropped", dropped))
	}
	if len(clean) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoBars)
	}

	c.Logger.Info("price history collected",
		zap.String("ticker", ticker),
		zap.String("source", c.Fetcher.Name()),
		zap.Int("bars", len(clean)))
	return &model.PriceHistory{Ticker: ticker, Bars: clean, FetchedAt: time.Now().UTC()}, nil
}
