package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"PredictLens/internal/model"
)

// CachedFetcher memoizes another Fetcher per (ticker, days) and throttles
// upstream requests.
type CachedFetcher struct {
	next    Fetcher
	cache   *cache.Cache
	limiter *rate.Limiter
}

// NewCachedFetcher wraps next. A ttl of zero disables caching.
func NewCachedFetcher(next Fetcher, ttl time.Duration, requestsPerSecond float64) *CachedFetcher {
	f := &CachedFetcher{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
	if ttl > 0 {
		f.cache = cache.New(ttl, 2*ttl)
	}
	return f
}

func (f *CachedFetcher) Name() string { return f.next.Name() }

func (f *CachedFetcher) FetchDailyBars(ctx context.Context, ticker string, days int) ([]model.OHLCV, error) {
	key := fmt.Sprintf("%s:%d", ticker, days)
	if f.cache != nil {
		if v, ok := f.cache.Get(key); ok {
			return cloneBars(v.([]model.OHLCV)), nil
		}
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	bars, err := f.next.FetchDailyBars(ctx, ticker, days)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.Set(key, cloneBars(bars), cache.DefaultExpiration)
	}
	return bars, nil
}

func cloneBars(bars []model.OHLCV) []model.OHLCV {
	return append([]model.OHLCV(nil), bars...)
}
