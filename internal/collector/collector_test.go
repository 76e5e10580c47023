package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"PredictLens/internal/model"
)

func TestYahooFetcher_FetchDailyBars(t *testing.T) {
	now := time.Now().UTC()
	ts := []int64{
		now.AddDate(0, 0, -2).Unix(),
		now.AddDate(0, 0, -400).Unix(),
		now.AddDate(0, 0, -1).Unix(),
		now.AddDate(0, 0, -3).Unix(),
	}
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d,%d,%d,%d],
			"indicators":{"quote":[{
				"open":[10,1,12,null],"high":[11,1,13,null],"low":[9,1,11,null],
				"close":[10.5,1,12.5,null],"volume":[100,1,200,null]}]}}],"error":null}}`,
			ts[0], ts[1], ts[2], ts[3])
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "SPX500", 30)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^GSPC", gotPath)
	assert.Contains(t, gotQuery, "range=1mo")
	require.Len(t, bars, 2, "null bar skipped, out-of-window bar trimmed")
	assert.Equal(t, 10.5, bars[0].Close)
	assert.Equal(t, 12.5, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, 0, bars[0].Time.Hour())
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"http status", http.StatusTooManyRequests, `slow down`, "status 429"},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, "No data found"},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, "no data"},
		{"bad json", http.StatusOK, `{`, "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			f := NewYahooFetcher("")
			f.BaseURL = srv.URL
			_, err := f.FetchDailyBars(context.Background(), "AAPL", 30)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestYahooRange(t *testing.T) {
	assert.Equal(t, "1mo", yahooRange(30))
	assert.Equal(t, "1y", yahooRange(365))
	assert.Equal(t, "2y", yahooRange(500))
	assert.Equal(t, "10y", yahooRange(5000))
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "MSFT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`[
			{"timestamp":1672704000,"open":2,"high":2,"low":2,"close":2,"volume":5},
			{"timestamp":1672617600,"open":1,"high":1,"low":1,"close":1,"volume":5}]`))
	}))
	defer srv.Close()

	bars, err := NewRESTFetcher(srv.URL, "secret", "").FetchDailyBars(context.Background(), "MSFT", 10)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time)
}

func TestCollector_Collect(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock := &MockFetcher{DailyData: []model.OHLCV{
		{Time: day, Close: 10},
		{Time: day.AddDate(0, 0, 1), Close: 0},
		{Time: day.AddDate(0, 0, 2), Close: 11},
	}}
	hist, err := NewCollector(mock, nil).Collect(context.Background(), "AAPL", 30)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", hist.Ticker)
	assert.Equal(t, []float64{10, 11}, hist.Closes())

	_, err = NewCollector(&MockFetcher{DailyData: []model.OHLCV{}}, nil).Collect(context.Background(), "X", 30)
	assert.ErrorIs(t, err, ErrNoBars)

	boom := errors.New("boom")
	_, err = NewCollector(&MockFetcher{Err: boom}, nil).Collect(context.Background(), "X", 30)
	assert.ErrorIs(t, err, boom)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "mock", fe.Source)
}

func TestCachedFetcher(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	f := NewCachedFetcher(mock, time.Minute, 1000)

	first, err := f.FetchDailyBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	first[0].Close = -1

	second, err := f.FetchDailyBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mock.Calls.Load())
	assert.NotEqual(t, -1.0, second[0].Close, "cached bars are isolated from callers")

	_, err = f.FetchDailyBars(context.Background(), "MSFT", 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mock.Calls.Load())
	assert.Equal(t, "mock", f.Name())
}

func TestCachedFetcher_NoCache(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	f := NewCachedFetcher(mock, 0, 1000)
	for i := 0; i < 3; i++ {
		_, err := f.FetchDailyBars(context.Background(), "AAPL", 5)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), mock.Calls.Load())
}

func TestMockFetcher_ConcurrentCalls(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	f := NewCachedFetcher(mock, 0, 1000)
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			_, err := NewCollector(f, nil).Collect(context.Background(), "AAPL", 40)
			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(16), mock.Calls.Load())
}

func TestCachedFetcher_CancelledContext(t *testing.T) {
	f := NewCachedFetcher(&MockFetcher{Price: 1}, 0, 0.001)
	_, _ = f.FetchDailyBars(context.Background(), "A", 1) // consume the burst token
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.FetchDailyBars(ctx, "A", 1)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "rate limit"))
}

func TestGenerateMockBars(t *testing.T) {
	end := time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC)
	bars := GenerateMockBars(100, 5, end)
	require.Len(t, bars, 5)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), bars[4].Time)
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), bars[0].Time)
}
