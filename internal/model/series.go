package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Fixed column names shared by every source.
const (
	ColDate      = "date"
	ColRealPrice = "real_price"
)

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// ColumnKind identifies one of the per-source value columns.
type ColumnKind int

const (
	KindPredicted ColumnKind = iota
	KindMAE
	KindRMSE
)

// ColumnKinds lists the per-source kinds in detection order.
var ColumnKinds = []ColumnKind{KindPredicted, KindMAE, KindRMSE}

// Prefix is the canonical column prefix for the kind.
func (k ColumnKind) Prefix() string {
	switch k {
	case KindPredicted:
		return "predicted"
	case KindMAE:
		return "mae"
	case KindRMSE:
		return "rmse"
	default:
		return "unknown"
	}
}

func (k ColumnKind) String() string { return k.Prefix() }

// SourceKey is the lower-cased form of a source name used in column names.
func SourceKey(source string) string {
	return strings.ToLower(source)
}

// CanonicalColumn returns the column name for kind under source, e.g. predicted_gru.
func CanonicalColumn(kind ColumnKind, source string) string {
	return kind.Prefix() + "_" + SourceKey(source)
}

// SeriesRecord is one (source, date) observation. Nil values are absent.
type SeriesRecord struct {
	Date      time.Time
	RealPrice *float64
	Predicted *float64
	MAE       *float64
	RMSE      *float64
}

// Value returns the record's value for kind.
func (r SeriesRecord) Value(kind ColumnKind) *float64 {
	switch kind {
	case KindPredicted:
		return r.Predicted
	case KindMAE:
		return r.MAE
	case KindRMSE:
		return r.RMSE
	default:
		return nil
	}
}

// SourceTable is the canonical form of one source's results.
type SourceTable struct {
	Source  string
	Columns []string
	Records []SeriesRecord
}

// HasColumn reports whether the table carries the named column.
func (t *SourceTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// HasKind reports whether the canonical column for kind is present.
func (t *SourceTable) HasKind(kind ColumnKind) bool {
	return t.HasColumn(CanonicalColumn(kind, t.Source))
}

// Raw converts the table back into raw rows using its canonical column names.
func (t *SourceTable) Raw() RawTable {
	raw := RawTable{Columns: append([]string(nil), t.Columns...)}
	for _, rec := range t.Records {
		row := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			switch col {
			case ColDate:
				row[col] = rec.Date.Format(DateLayout)
			case ColRealPrice:
				row[col] = floatOrNil(rec.RealPrice)
			default:
				for _, kind := range ColumnKinds {
					if col == CanonicalColumn(kind, t.Source) {
						row[col] = floatOrNil(rec.Value(kind))
					}
				}
			}
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// RawTable is tabular input with free-form column names.
// Columns holds the column order; each row maps a column to its cell.
type RawTable struct {
	Columns []string
	Rows    []map[string]any
}

// HasColumn reports whether name is one of the raw columns.
func (r RawTable) HasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MergedRow is one date of the merged table. Cells is keyed by canonical column.
// OmitRealPrice is set when the table has no real_price column.
type MergedRow struct {
	Date          time.Time
	RealPrice     *float64
	Cells         map[string]*float64
	OmitRealPrice bool
}

// MarshalJSON flattens the row into a single object.
func (r MergedRow) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Cells)+2)
	out[ColDate] = r.Date.Format(DateLayout)
	if !r.OmitRealPrice {
		out[ColRealPrice] = r.RealPrice
	}
	for k, v := range r.Cells {
		out[k] = v
	}
	return json.Marshal(out)
}

// MergedTable holds all sources aligned on the reference source's dates.
type MergedTable struct {
	Sources []string    `json:"sources"`
	Columns []string    `json:"columns"`
	Rows    []MergedRow `json:"rows"`
}

// HasColumn reports whether the merged table carries the named column.
func (m *MergedTable) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Cell returns the value of column in row i; real_price is served from the row itself.
func (m *MergedTable) Cell(i int, column string) *float64 {
	row := m.Rows[i]
	if column == ColRealPrice {
		return row.RealPrice
	}
	return row.Cells[column]
}

// Head returns a copy of the table limited to the first n rows.
func (m *MergedTable) Head(n int) *MergedTable {
	if n > len(m.Rows) || n < 0 {
		n = len(m.Rows)
	}
	return &MergedTable{Sources: m.Sources, Columns: m.Columns, Rows: m.Rows[:n]}
}

// MetricSummary holds the per-source averages. Nil fields are absent.
type MetricSummary struct {
	Source       string   `json:"model"`
	MAE          *float64 `json:"mae"`
	RMSE         *float64 `json:"rmse"`
	MAPE         *float64 `json:"mape_pct"`
	Observations int      `json:"observations"`
}

// Absent reports whether no metric could be computed for the source.
func (s MetricSummary) Absent() bool {
	return s.MAE == nil && s.RMSE == nil && s.MAPE == nil
}
