package forecast

import "PredictLens/internal/calculator"

// Model predicts a target from a single feature.
type Model interface {
	Predict(x float64) float64
}

// Regressor fits a Model to training data.
type Regressor interface {
	Fit(x, y []float64) (Model, error)
}

// OLS is the default Regressor: single-feature ordinary least squares.
type OLS struct{}

func (OLS) Fit(x, y []float64) (Model, error) {
	m, err := calculator.FitLinear(x, y)
	if err != nil {
		return nil, err
	}
	return m, nil
}
