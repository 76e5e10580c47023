package comparison

import (
	"fmt"
	"strings"
	"time"

	"PredictLens/internal/calculator"
	"PredictLens/internal/model"
)

// DefaultHistogramBins matches the residual histogram of the dashboard.
const DefaultHistogramBins = 50

// ResidualPoint is one row where both real and predicted prices are present.
type ResidualPoint struct {
	Date      time.Time `json:"date"`
	Real      float64   `json:"real_price"`
	Predicted float64   `json:"predicted"`
	Residual  float64   `json:"residual"`
}

// Trendline is the OLS fit of predicted against real prices.
type Trendline struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// ResidualAnalysis backs the residual histogram and the prediction scatter.
type ResidualAnalysis struct {
	Source    string           `json:"model"`
	Points    []ResidualPoint  `json:"points"`
	Histogram []calculator.Bin `json:"histogram"`
	Trendline *Trendline       `json:"trendline"`
}

// AnalyzeResiduals computes residuals (predicted - real) for source.
func AnalyzeResiduals(merged *model.MergedTable, source string, bins int) (*ResidualAnalysis, error) {
	predCol := model.CanonicalColumn(model.KindPredicted, source)
	if !merged.HasColumn(predCol) {
		return nil, fmt.Errorf("%s: %w", source, ErrNoPredictions)
	}
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	ra := &ResidualAnalysis{Source: source}
	var reals, preds, residuals []float64
	for i, row := range merged.Rows {
		truth, pred := merged.Cell(i, model.ColRealPrice), merged.Cell(i, predCol)
		if truth == nil || pred == nil {
			continue
		}
		r := *pred - *truth
		ra.Points = append(ra.Points, ResidualPoint{Date: row.Date, Real: *truth, Predicted: *pred, Residual: r})
		reals = append(reals, *truth)
		preds = append(preds, *pred)
		residuals = append(residuals, r)
	}
	if len(residuals) == 0 {
		return ra, nil
	}

	hist, err := calculator.Histogram(residuals, bins)
	if err != nil {
		return nil, fmt.Errorf("residual histogram: %w", err)
	}
	ra.Histogram = hist

	if fit, err := calculator.FitLinear(reals, preds); err == nil {
		r2, _ := calculator.RSquared(preds, fit.PredictAll(reals))
		ra.Trendline = &Trendline{Slope: fit.Slope, Intercept: fit.Intercept, R2: r2}
	}
	return ra, nil
}

// SeriesPoint is one value of the long-format price chart.
type SeriesPoint struct {
	Date   time.Time `json:"date"`
	Series string    `json:"model"`
	Price  *float64  `json:"price"`
}

// ChartSeries melts real_price and every predicted column into long format.
// Predicted series are labelled by their source key.
func ChartSeries(merged *model.MergedTable) []SeriesPoint {
	var cols []string
	for _, c := range merged.Columns {
		if c == model.ColRealPrice || strings.HasPrefix(c, model.KindPredicted.Prefix()+"_") {
			cols = append(cols, c)
		}
	}
	out := make([]SeriesPoint, 0, len(cols)*len(merged.Rows))
	for _, c := range cols {
		label := strings.TrimPrefix(c, model.KindPredicted.Prefix()+"_")
		for i, row := range merged.Rows {
			out = append(out, SeriesPoint{Date: row.Date, Series: label, Price: merged.Cell(i, c)})
		}
	}
	return out
}
