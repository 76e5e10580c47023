package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"PredictLens/internal/model"
)

// Horizon bounds in trading days.
const (
	MinHorizon = 1
	MaxHorizon = 30
)

var (
	// ErrInsufficientHistory is returned when there are too few bars to train and test.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrHorizonOutOfRange is returned for a horizon outside [MinHorizon, MaxHorizon].
	ErrHorizonOutOfRange = errors.New("horizon out of range")
)

// Sample pairs the close at bar Index with the close horizon bars later.
type Sample struct {
	Index int
	Date  time.Time
	X     float64
	Y     float64
}

// Features holds the supervised samples and the inputs for the live forecast.
type Features struct {
	Samples []Sample
	Inputs  []float64 // last horizon closes, oldest first
}

// BuildFeatures shifts closes by horizon: x = close[t], y = close[t+horizon].
// Sample dates are the target dates.
func BuildFeatures(bars []model.OHLCV, horizon int) (*Features, error) {
	if horizon < MinHorizon || horizon > MaxHorizon {
		return nil, fmt.Errorf("%d: %w", horizon, ErrHorizonOutOfRange)
	}
	if len(bars) <= horizon {
		return nil, fmt.Errorf("%d bars for horizon %d: %w", len(bars), horizon, ErrInsufficientHistory)
	}

	n := len(bars)
	f := &Features{Samples: make([]Sample, 0, n-horizon)}
	for t := 0; t+horizon < n; t++ {
		f.Samples = append(f.Samples, Sample{
			Index: t,
			Date:  bars[t+horizon].Time,
			X:     bars[t].Close,
			Y:     bars[t+horizon].Close,
		})
	}
	for t := n - horizon; t < n; t++ {
		f.Inputs = append(f.Inputs, bars[t].Close)
	}
	return f, nil
}

// Split is a chronological train/test partition.
type Split struct {
	Train []Sample
	Test  []Sample
}

// SplitChronological keeps the earliest samples for training and holds out
// the last ceil(n*testRatio) for testing.
func SplitChronological(samples []Sample, testRatio float64) (Split, error) {
	if testRatio <= 0 || testRatio >= 1 {
		return Split{}, fmt.Errorf("test ratio %.2f must be in (0, 1)", testRatio)
	}
	n := len(samples)
	testN := int(math.Ceil(float64(n) * testRatio))
	if testN < 1 {
		testN = 1
	}
	if n-testN < 2 {
		return Split{}, fmt.Errorf("%d samples: %w", n, ErrInsufficientHistory)
	}
	return Split{Train: samples[:n-testN], Test: samples[n-testN:]}, nil
}

func xy(samples []Sample) (x, y []float64) {
	x = make([]float64, len(samples))
	y = make([]float64, len(samples))
	for i, s := range samples {
		x[i], y[i] = s.X, s.Y
	}
	return x, y
}

// NextWeekdays returns the n weekdays following after.
func NextWeekdays(after time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := after
	for len(out) < n {
		d = d.AddDate(0, 0, 1)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		out = append(out, d)
	}
	return out
}
