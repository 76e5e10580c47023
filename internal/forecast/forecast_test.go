package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PredictLens/internal/collector"
	"PredictLens/internal/model"
)

// linearBars builds n weekday bars whose close rises by 1 each bar from 100.
func linearBars(n int) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // Monday
	bars := make([]model.OHLCV, 0, n)
	d := start
	for i := 0; i < n; i++ {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		p := 100 + float64(i)
		bars = append(bars, model.OHLCV{Time: d, Open: p, High: p + 1, Low: p - 1, Close: p, Volume: 1})
		d = d.AddDate(0, 0, 1)
	}
	return bars
}

func TestBuildFeatures(t *testing.T) {
	bars := linearBars(10)
	f, err := BuildFeatures(bars, 3)
	require.NoError(t, err)
	require.Len(t, f.Samples, 7)
	assert.Equal(t, 100.0, f.Samples[0].X)
	assert.Equal(t, 103.0, f.Samples[0].Y)
	assert.Equal(t, bars[3].Time, f.Samples[0].Date)
	assert.Equal(t, []float64{107, 108, 109}, f.Inputs)

	_, err = BuildFeatures(bars, 0)
	assert.ErrorIs(t, err, ErrHorizonOutOfRange)
	_, err = BuildFeatures(bars, 31)
	assert.ErrorIs(t, err, ErrHorizonOutOfRange)
	_, err = BuildFeatures(bars[:3], 3)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestSplitChronological(t *testing.T) {
	samples := make([]Sample, 10)
	for i := range samples {
		samples[i].Index = i
	}
	split, err := SplitChronological(samples, 0.2)
	require.NoError(t, err)
	assert.Len(t, split.Train, 8)
	assert.Len(t, split.Test, 2)
	assert.Equal(t, 8, split.Test[0].Index)

	split, err = SplitChronological(samples[:3], 0.1)
	require.NoError(t, err)
	assert.Len(t, split.Test, 1)

	_, err = SplitChronological(samples[:2], 0.2)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
	_, err = SplitChronological(samples, 1)
	assert.Error(t, err)
}

func TestNextWeekdays(t *testing.T) {
	fri := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	got := NextWeekdays(fri, 3)
	assert.Equal(t, []time.Time{
		time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}, got)
}

func TestService_Run(t *testing.T) {
	bars := linearBars(60)
	mock := &collector.MockFetcher{DailyData: bars}
	svc := NewService(collector.NewCollector(mock, nil), nil, nil)

	res, err := svc.Run(context.Background(), Options{
		Ticker: "AAPL", Horizon: 5, HistoryDays: 90, TestRatio: 0.2, BaselineWindow: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL", res.Ticker)
	assert.Equal(t, 55, res.TrainSize+res.TestSize)
	assert.Equal(t, 11, res.TestSize)
	assert.InDelta(t, 1.0, res.Slope, 1e-9)
	assert.InDelta(t, 5.0, res.Intercept, 1e-6)
	assert.InDelta(t, 0.0, res.Test.MAE, 1e-6)
	assert.InDelta(t, 1.0, res.Test.R2, 1e-9)
	require.NotNil(t, res.Test.MAPE)
	require.NotNil(t, res.BaselineMAE)
	assert.InDelta(t, 7.0, *res.BaselineMAE, 1e-9, "SMA(5) lags by 2 and the target leads by 5")

	require.Len(t, res.Forecast, 5)
	assert.InDelta(t, 160.0, res.Forecast[0].Price, 1e-6)
	assert.InDelta(t, 164.0, res.Forecast[4].Price, 1e-6)
	assert.True(t, res.Forecast[0].Date.After(bars[59].Time))
	for _, p := range res.Forecast {
		assert.NotEqual(t, time.Saturday, p.Date.Weekday())
		assert.NotEqual(t, time.Sunday, p.Date.Weekday())
	}

	assert.Equal(t, 159.0, res.Summary.LastClose)
	assert.Equal(t, 160.0, res.Summary.High)
	assert.Equal(t, 99.0, res.Summary.Low)
	require.NotNil(t, res.Summary.RSI14)
	assert.Equal(t, 100.0, *res.Summary.RSI14)
	assert.NotEmpty(t, res.RunID)
	assert.Len(t, res.TestFit, res.TestSize)
	assert.Len(t, res.History, 60)
}

func TestService_RunErrors(t *testing.T) {
	boom := errors.New("provider down")
	svc := NewService(collector.NewCollector(&collector.MockFetcher{Err: boom}, nil), nil, nil)

	_, err := svc.Run(context.Background(), Options{Ticker: "AAPL", Horizon: 5, TestRatio: 0.2})
	assert.ErrorIs(t, err, boom)

	_, err = svc.Run(context.Background(), Options{Ticker: "AAPL", Horizon: 45, TestRatio: 0.2})
	assert.ErrorIs(t, err, ErrHorizonOutOfRange)

	_, err = svc.Run(context.Background(), Options{Horizon: 5, TestRatio: 0.2})
	assert.Error(t, err)

	short := NewService(collector.NewCollector(&collector.MockFetcher{DailyData: linearBars(6)}, nil), nil, nil)
	_, err = short.Run(context.Background(), Options{Ticker: "AAPL", Horizon: 5, TestRatio: 0.2})
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

type failingRegressor struct{}

func (failingRegressor) Fit(_, _ []float64) (Model, error) { return nil, errors.New("singular") }

func TestService_FitError(t *testing.T) {
	svc := NewService(collector.NewCollector(&collector.MockFetcher{DailyData: linearBars(30)}, nil), failingRegressor{}, nil)
	_, err := svc.Run(context.Background(), Options{Ticker: "AAPL", Horizon: 2, TestRatio: 0.2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fit model")
}
