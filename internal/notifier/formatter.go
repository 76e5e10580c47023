package notifier

import (
	"fmt"
	"html"
	"strings"

	"PredictLens/internal/model"
)

func optional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

// FormatForecastReport formats a forecast run into a Telegram message.
func FormatForecastReport(res *model.ForecastResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>PredictLens forecast</b> | %s | %s\n\n",
		html.EscapeString(res.Ticker), res.GeneratedAt.Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("Last close: %.2f\n", res.Summary.LastClose))
	b.WriteString(fmt.Sprintf("Range: %.2f - %.2f (position %.0f%%)\n",
		res.Summary.Low, res.Summary.High, res.Summary.Position*100))
	b.WriteString(fmt.Sprintf("RSI(14): %s\n\n", optional(res.Summary.RSI14, "%.0f")))

	b.WriteString(fmt.Sprintf("🧮 <b>Model</b> (t+%d, train %d / test %d)\n", res.Horizon, res.TrainSize, res.TestSize))
	b.WriteString(fmt.Sprintf("  MAE: %.4f | RMSE: %.4f\n", res.Test.MAE, res.Test.RMSE))
	b.WriteString(fmt.Sprintf("  MAPE: %s | R²: %.4f\n", optional(res.Test.MAPE, "%.2f%%"), res.Test.R2))
	b.WriteString(fmt.Sprintf("  SMA(%d) baseline MAE: %s\n\n", res.BaselineWindow, optional(res.BaselineMAE, "%.4f")))

	b.WriteString("🔮 <b>Next closes:</b>\n")
	for _, p := range res.Forecast {
		b.WriteString(fmt.Sprintf("  %s: %.2f\n", p.Date.Format(model.DateLayout), p.Price))
	}
	return b.String()
}

// FormatComparisonReport formats per-model metrics into a Telegram message.
func FormatComparisonReport(metrics []model.MetricSummary) string {
	var b strings.Builder
	b.WriteString("📊 <b>Model comparison</b>\n\n")
	for _, m := range metrics {
		if m.Absent() {
			b.WriteString(fmt.Sprintf("%s: no predictions\n", html.EscapeString(m.Source)))
			continue
		}
		b.WriteString(fmt.Sprintf("%s: MAE %s | RMSE %s | MAPE %s\n",
			html.EscapeString(m.Source),
			optional(m.MAE, "%.4f"), optional(m.RMSE, "%.4f"), optional(m.MAPE, "%.2f%%")))
	}
	return b.String()
}

// FormatFailure formats a failed run.
func FormatFailure(what string, err error) string {
	return fmt.Sprintf("❌ %s failed: %s", html.EscapeString(what), html.EscapeString(err.Error()))
}
