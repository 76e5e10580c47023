package comparison

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"PredictLens/internal/model"
)

// Aligner left-joins source tables onto the reference source's dates.
type Aligner struct {
	Logger *zap.Logger
}

// NewAligner creates an Aligner.
func NewAligner(logger *zap.Logger) *Aligner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aligner{Logger: logger}
}

// Align merges tables on date. The first table is the reference: its distinct
// dates form the row set and its real_price is authoritative. Every table,
// the reference included, then contributes its value columns via a left join.
// Duplicate dates within a table resolve to the last occurrence.
func (a *Aligner) Align(tables []*model.SourceTable) (*model.MergedTable, []Warning, error) {
	if len(tables) == 0 {
		return nil, nil, &SchemaError{Reason: "no source tables to merge"}
	}
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		if t == nil || t.Source == "" {
			return nil, nil, &SchemaError{Reason: "source table has no name"}
		}
		if !t.HasColumn(model.ColDate) {
			return nil, nil, &SchemaError{Source: t.Source, Reason: "missing date column"}
		}
		key := model.SourceKey(t.Source)
		if seen[key] {
			return nil, nil, &SchemaError{Source: t.Source, Reason: "duplicate source name"}
		}
		seen[key] = true
	}

	var warnings []Warning
	indexes := make([]map[time.Time]model.SeriesRecord, len(tables))
	for i, t := range tables {
		idx, dups := indexByDate(t)
		if dups > 0 {
			warnings = append(warnings, Warning{
				Source:  t.Source,
				Column:  model.ColDate,
				Message: fmt.Sprintf("%d duplicate dates, last occurrence kept", dups),
			})
			a.Logger.Warn("duplicate dates in source",
				zap.String("source", t.Source), zap.Int("duplicates", dups))
		}
		indexes[i] = idx
	}

	ref := tables[0]
	refIdx := indexes[0]
	merged := &model.MergedTable{Columns: []string{model.ColDate}}
	hasReal := ref.HasColumn(model.ColRealPrice)
	if hasReal {
		merged.Columns = append(merged.Columns, model.ColRealPrice)
	} else {
		warnings = append(warnings, Warning{
			Source:  ref.Source,
			Column:  model.ColRealPrice,
			Message: "reference source has no real_price; percentage errors unavailable",
		})
	}

	dates := make([]time.Time, 0, len(refIdx))
	for d := range refIdx {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	merged.Rows = make([]model.MergedRow, len(dates))
	for i, d := range dates {
		row := model.MergedRow{Date: d, Cells: make(map[string]*float64), OmitRealPrice: !hasReal}
		if hasReal {
			row.RealPrice = refIdx[d].RealPrice
		}
		merged.Rows[i] = row
	}

	for ti, t := range tables {
		merged.Sources = append(merged.Sources, t.Source)
		for _, kind := range model.ColumnKinds {
			if !t.HasKind(kind) {
				continue
			}
			col := model.CanonicalColumn(kind, t.Source)
			merged.Columns = append(merged.Columns, col)
			for i := range merged.Rows {
				var v *float64
				if rec, ok := indexes[ti][merged.Rows[i].Date]; ok {
					v = rec.Value(kind)
				}
				merged.Rows[i].Cells[col] = v
			}
		}
	}

	a.Logger.Debug("sources aligned",
		zap.Int("sources", len(tables)),
		zap.Int("rows", len(merged.Rows)),
		zap.Strings("columns", merged.Columns))
	return merged, warnings, nil
}

// indexByDate keys records by date, last occurrence winning.
func indexByDate(t *model.SourceTable) (map[time.Time]model.SeriesRecord, int) {
	idx := make(map[time.Time]model.SeriesRecord, len(t.Records))
	dups := 0
	for _, rec := range t.Records {
		if _, ok := idx[rec.Date]; ok {
			dups++
		}
		idx[rec.Date] = rec
	}
	return idx, dups
}
