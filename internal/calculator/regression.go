package calculator

import "errors"

// ErrDegenerateFeature is returned when the feature has zero variance.
var ErrDegenerateFeature = errors.New("feature has zero variance")

// LinearModel is a fitted single-feature ordinary least squares model.
type LinearModel struct {
	Slope     float64
	Intercept float64
}

// Predict evaluates the model at x.
func (m LinearModel) Predict(x float64) float64 {
	return m.Intercept + m.Slope*x
}

// PredictAll evaluates the model at every x.
func (m LinearModel) PredictAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = m.Predict(x)
	}
	return out
}

// FitLinear fits y = intercept + slope*x by ordinary least squares.
func FitLinear(x, y []float64) (LinearModel, error) {
	if len(x) != len(y) {
		return LinearModel{}, ErrLengthMismatch
	}
	if len(x) < 2 {
		return LinearModel{}, errors.New("at least two samples are required")
	}
	mx, _ := Mean(x)
	my, _ := Mean(y)
	var sxy, sxx float64
	for i := range x {
		dx := x[i] - mx
		sxy += dx * (y[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return LinearModel{}, ErrDegenerateFeature
	}
	slope := sxy / sxx
	return LinearModel{Slope: slope, Intercept: my - slope*mx}, nil
}
