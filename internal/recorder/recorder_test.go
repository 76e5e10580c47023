package recorder

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PredictLens/internal/model"
)

func f(v float64) *float64 { return &v }

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteRecorder_RecordComparison(t *testing.T) {
	r := openTestDB(t)
	require.NoError(t, r.RecordComparison([]model.MetricSummary{
		{Source: "A", MAE: f(1.25), RMSE: f(1.5), MAPE: f(1.409), Observations: 2},
		{Source: "C"},
	}))

	var n int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM comparison_metrics`).Scan(&n))
	assert.Equal(t, 2, n)

	var nulls int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(*) FROM comparison_metrics WHERE model = 'C' AND mae IS NULL AND mape_pct IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls, "absent metrics are stored as NULL, not zero")

	var runs int
	require.NoError(t, r.db.QueryRow(`SELECT COUNT(DISTINCT run_id) FROM comparison_metrics`).Scan(&runs))
	assert.Equal(t, 1, runs)
}

func TestSQLiteRecorder_Forecasts(t *testing.T) {
	r := openTestDB(t)
	base := time.Date(2024, 5, 3, 22, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		res := &model.ForecastResult{
			RunID:  fmt.Sprintf("run-%d", i),
			Ticker: "AAPL", Horizon: 7, TrainSize: 200, TestSize: 50,
			Slope: 1, Intercept: float64(i),
			Test:        model.RegressionMetrics{MAE: 2, RMSE: 3, R2: 0.9},
			BaselineMAE: f(4),
			Summary:     model.PriceSummary{LastClose: 180},
			Forecast:    []model.ForecastPoint{{Price: 181}, {Price: 182 + float64(i)}},
			GeneratedAt: base.AddDate(0, 0, i),
		}
		require.NoError(t, r.RecordForecast(res))
	}
	require.NoError(t, r.RecordForecast(&model.ForecastResult{Ticker: "MSFT", GeneratedAt: base}))

	runs, err := r.RecentForecasts("AAPL", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, base.AddDate(0, 0, 2), runs[0].Timestamp)
	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, 184.0, runs[0].FinalForecast)
	assert.Nil(t, runs[0].MAPE)
	require.NotNil(t, runs[0].BaselineMAE)
	assert.Equal(t, 4.0, *runs[0].BaselineMAE)

	none, err := r.RecentForecasts("TSLA", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordComparison(nil))
	assert.NoError(t, r.RecordForecast(&model.ForecastResult{}))
	runs, err := r.RecentForecasts("AAPL", 5)
	assert.NoError(t, err)
	assert.Nil(t, runs)
	assert.NoError(t, r.Close())
}
