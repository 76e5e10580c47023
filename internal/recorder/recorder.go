package recorder

import (
	"time"

	"PredictLens/internal/model"
)

// ForecastRun is one stored forecast run.
type ForecastRun struct {
	ID            int64     `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	RunID         string    `json:"run_id"`
	Ticker        string    `json:"ticker"`
	Horizon       int       `json:"horizon"`
	TrainSize     int       `json:"train_size"`
	TestSize      int       `json:"test_size"`
	Slope         float64   `json:"slope"`
	Intercept     float64   `json:"intercept"`
	MAE           float64   `json:"mae"`
	RMSE          float64   `json:"rmse"`
	MAPE          *float64  `json:"mape_pct"`
	R2            float64   `json:"r2"`
	BaselineMAE   *float64  `json:"baseline_mae"`
	LastClose     float64   `json:"last_close"`
	FinalForecast float64   `json:"final_forecast"` // close predicted for the last horizon day
}

// Recorder persists run history for later analysis.
type Recorder interface {
	RecordComparison(metrics []model.MetricSummary) error
	RecordForecast(res *model.ForecastResult) error
	RecentForecasts(ticker string, limit int) ([]ForecastRun, error)
	Close() error
}
