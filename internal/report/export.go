package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"PredictLens/internal/model"
)

// HistoryCSVHeader is the header row of the price history export.
var HistoryCSVHeader = []string{"date", "open", "high", "low", "close", "volume"}

// WriteHistoryCSV writes the raw daily bars as comma-separated text.
func WriteHistoryCSV(w io.Writer, bars []model.OHLCV) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HistoryCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, b := range bars {
		rec := []string{b.Time.Format(model.DateLayout), ff(b.Open), ff(b.High), ff(b.Low), ff(b.Close), ff(b.Volume)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const (
	mergedSheet  = "merged"
	metricsSheet = "metrics"
)

// WriteComparisonXLSX writes the merged table and metric summaries as a workbook
// with one sheet each. Absent cells are left empty.
func WriteComparisonXLSX(w io.Writer, merged *model.MergedTable, metrics []model.MetricSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", mergedSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, len(merged.Columns))
	for i, c := range merged.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(mergedSheet, "A1", &header); err != nil {
		return fmt.Errorf("write merged header: %w", err)
	}
	for i, row := range merged.Rows {
		vals := make([]any, len(merged.Columns))
		for j, col := range merged.Columns {
			if col == model.ColDate {
				vals[j] = row.Date.Format(model.DateLayout)
				continue
			}
			if v := merged.Cell(i, col); v != nil {
				vals[j] = *v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(mergedSheet, cell, &vals); err != nil {
			return fmt.Errorf("write merged row %d: %w", i, err)
		}
	}

	if _, err := f.NewSheet(metricsSheet); err != nil {
		return fmt.Errorf("create metrics sheet: %w", err)
	}
	if err := f.SetSheetRow(metricsSheet, "A1", &[]any{"model", "mae", "rmse", "mape_%", "rows"}); err != nil {
		return fmt.Errorf("write metrics header: %w", err)
	}
	for i, m := range metrics {
		vals := []any{m.Source, nilOrValue(m.MAE), nilOrValue(m.RMSE), nilOrValue(m.MAPE), m.Observations}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(metricsSheet, cell, &vals); err != nil {
			return fmt.Errorf("write metrics row %d: %w", i, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func nilOrValue(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
