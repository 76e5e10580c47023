package comparison

import (
	"time"

	"PredictLens/internal/model"
)

func day(s string) time.Time {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func f(v float64) *float64 { return &v }

// scenarioRaws builds the three-source fixture: A is the reference with
// predictions, B predicts only the first day, C has no predictions at all.
func scenarioRaws() ([]Source, []model.RawTable) {
	sources := []Source{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	raws := []model.RawTable{
		{
			Columns: []string{"date", "real_price", "pred_price", "mae", "rmse"},
			Rows: []map[string]any{
				{"date": "2023-01-01", "real_price": 100.0, "pred_price": 101.0, "mae": 1.0, "rmse": 1.0},
				{"date": "2023-01-02", "real_price": 110.0, "pred_price": 108.0, "mae": -2.0, "rmse": 2.0},
			},
		},
		{
			Columns: []string{"date", "real_price", "Predicted"},
			Rows: []map[string]any{
				{"date": "2023-01-01", "real_price": 100.0, "Predicted": 99.0},
			},
		},
		{
			Columns: []string{"date", "real_price", "MAE_value"},
			Rows: []map[string]any{
				{"date": "2023-01-01", "real_price": 100.0, "MAE_value": 3.0},
				{"date": "2023-01-02", "real_price": 110.0, "MAE_value": 4.0},
			},
		},
	}
	return sources, raws
}
