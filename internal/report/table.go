package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"PredictLens/internal/comparison"
	"PredictLens/internal/model"
)

// Absent is how missing values are printed.
const Absent = "n/a"

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// FormatValue prints v with four decimals, or Absent.
func FormatValue(v *float64) string {
	if v == nil {
		return Absent
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

// MetricsTable renders one row per model: mae, rmse, mape_%.
func MetricsTable(metrics []model.MetricSummary) string {
	t := newTable("model", "mae", "rmse", "mape_%", "rows")
	for _, m := range metrics {
		t.Row(m.Source, FormatValue(m.MAE), FormatValue(m.RMSE), FormatValue(m.MAPE), strconv.Itoa(m.Observations))
	}
	return t.String()
}

// MergedTable renders the first limit rows of the merged table.
func MergedTable(m *model.MergedTable, limit int) string {
	head := m.Head(limit)
	t := newTable(head.Columns...)
	for i, row := range head.Rows {
		cells := make([]string, len(head.Columns))
		for j, col := range head.Columns {
			if col == model.ColDate {
				cells[j] = row.Date.Format(model.DateLayout)
				continue
			}
			cells[j] = FormatValue(head.Cell(i, col))
		}
		t.Row(cells...)
	}
	return t.String()
}

// ForecastTable renders the forecast points and a metrics summary.
func ForecastTable(res *model.ForecastResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s | horizon %d | train %d / test %d\n",
		res.Ticker, res.Horizon, res.TrainSize, res.TestSize))
	b.WriteString(fmt.Sprintf("model: close[t+%d] = %.4f + %.4f * close[t]\n", res.Horizon, res.Intercept, res.Slope))

	mt := newTable("metric", "value")
	mt.Row("test MAE", strconv.FormatFloat(res.Test.MAE, 'f', 4, 64))
	mt.Row("test RMSE", strconv.FormatFloat(res.Test.RMSE, 'f', 4, 64))
	mt.Row("test MAPE %", FormatValue(res.Test.MAPE))
	mt.Row("test R2", strconv.FormatFloat(res.Test.R2, 'f', 4, 64))
	mt.Row(fmt.Sprintf("SMA(%d) baseline MAE", res.BaselineWindow), FormatValue(res.BaselineMAE))
	mt.Row("last close", strconv.FormatFloat(res.Summary.LastClose, 'f', 2, 64))
	mt.Row("period high / low", fmt.Sprintf("%.2f / %.2f", res.Summary.High, res.Summary.Low))
	mt.Row("position in range", fmt.Sprintf("%.0f%%", res.Summary.Position*100))
	mt.Row("RSI(14)", FormatValue(res.Summary.RSI14))
	b.WriteString(mt.String())
	b.WriteString("\n")

	ft := newTable("date", "forecast close")
	for _, p := range res.Forecast {
		ft.Row(p.Date.Format(model.DateLayout), strconv.FormatFloat(p.Price, 'f', 2, 64))
	}
	b.WriteString(ft.String())
	return b.String()
}

// ResidualSummary renders the trendline and histogram of one model's residuals.
func ResidualSummary(ra *comparison.ResidualAnalysis) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("residuals for %s: %d points\n", ra.Source, len(ra.Points)))
	if ra.Trendline != nil {
		b.WriteString(fmt.Sprintf("trendline: predicted = %.4f + %.4f * real (R2 %.4f)\n",
			ra.Trendline.Intercept, ra.Trendline.Slope, ra.Trendline.R2))
	}
	if len(ra.Histogram) == 0 {
		return b.String()
	}
	t := newTable("from", "to", "count")
	for _, bin := range ra.Histogram {
		t.Row(strconv.FormatFloat(bin.Lower, 'f', 4, 64), strconv.FormatFloat(bin.Upper, 'f', 4, 64), strconv.Itoa(bin.Count))
	}
	b.WriteString(t.String())
	return b.String()
}
