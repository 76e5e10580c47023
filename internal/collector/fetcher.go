package collector

import (
	"context"

	"PredictLens/internal/model"
)

// Fetcher defines the interface for fetching historical market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, ticker string, days int) ([]model.OHLCV, error)
	Name() string
}
