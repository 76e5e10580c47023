package comparison

import (
	"PredictLens/internal/calculator"
	"PredictLens/internal/model"
)

// Aggregate computes one MetricSummary per source, in the given order.
// Sources without a predicted column get an all-absent summary. MAE and RMSE
// average the precomputed per-row columns; MAPE is computed against
// real_price, skipping rows where either value is absent or real_price is zero.
func Aggregate(merged *model.MergedTable, sources []string) []model.MetricSummary {
	out := make([]model.MetricSummary, 0, len(sources))
	for _, source := range sources {
		summary := model.MetricSummary{Source: source}
		predCol := model.CanonicalColumn(model.KindPredicted, source)
		if !merged.HasColumn(predCol) {
			out = append(out, summary)
			continue
		}

		summary.MAE = meanAbsColumn(merged, model.CanonicalColumn(model.KindMAE, source))
		summary.RMSE = meanAbsColumn(merged, model.CanonicalColumn(model.KindRMSE, source))

		var actual, predicted []float64
		for i := range merged.Rows {
			truth, pred := merged.Cell(i, model.ColRealPrice), merged.Cell(i, predCol)
			if truth == nil || pred == nil {
				continue
			}
			actual = append(actual, *truth)
			predicted = append(predicted, *pred)
		}
		if mape, n, err := calculator.MeanAbsolutePercentageError(actual, predicted); err == nil {
			summary.MAPE = &mape
			summary.Observations = n
		}
		out = append(out, summary)
	}
	return out
}

func meanAbsColumn(merged *model.MergedTable, column string) *float64 {
	if !merged.HasColumn(column) {
		return nil
	}
	var values []float64
	for i := range merged.Rows {
		if v := merged.Cell(i, column); v != nil {
			values = append(values, *v)
		}
	}
	mean, err := calculator.MeanAbs(values)
	if err != nil {
		return nil
	}
	return &mean
}
