package model

import "time"

// ForecastPoint is one predicted close.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// FitPoint pairs an actual target with the model's prediction on the test split.
type FitPoint struct {
	Date      time.Time `json:"date"`
	Actual    float64   `json:"actual"`
	Predicted float64   `json:"predicted"`
}

// RegressionMetrics scores a fitted model on held-out samples.
type RegressionMetrics struct {
	MAE  float64  `json:"mae"`
	RMSE float64  `json:"rmse"`
	MAPE *float64 `json:"mape_pct"`
	R2   float64  `json:"r2"`
}

// PriceSummary describes the fetched history.
type PriceSummary struct {
	LastClose float64  `json:"last_close"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Position  float64  `json:"position"` // 0.0 ~ 1.0
	RSI14     *float64 `json:"rsi14"`
}

// ForecastResult is the output of one forecast run.
type ForecastResult struct {
	RunID          string            `json:"run_id"`
	Ticker         string            `json:"ticker"`
	Horizon        int               `json:"horizon"`
	TrainSize      int               `json:"train_size"`
	TestSize       int               `json:"test_size"`
	Slope          float64           `json:"slope"`
	Intercept      float64           `json:"intercept"`
	Test           RegressionMetrics `json:"test_metrics"`
	BaselineWindow int               `json:"baseline_window"`
	BaselineMAE    *float64          `json:"baseline_mae"`
	Summary        PriceSummary      `json:"summary"`
	TestFit        []FitPoint        `json:"test_fit"`
	Forecast       []ForecastPoint   `json:"forecast"`
	History        []OHLCV           `json:"-"`
	GeneratedAt    time.Time         `json:"generated_at"`
}
