package comparison

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PredictLens/internal/model"
)

// MatchPolicy decides which column wins when several match a detection rule.
type MatchPolicy string

const (
	MatchFirst  MatchPolicy = "first"
	MatchLast   MatchPolicy = "last"
	MatchStrict MatchPolicy = "strict"
)

// ColumnMapping names source columns explicitly. Empty fields fall back to detection.
type ColumnMapping struct {
	Predicted string
	MAE       string
	RMSE      string
}

func (m ColumnMapping) column(kind model.ColumnKind) string {
	switch kind {
	case model.KindPredicted:
		return m.Predicted
	case model.KindMAE:
		return m.MAE
	case model.KindRMSE:
		return m.RMSE
	default:
		return ""
	}
}

// DetectionStatus is the outcome of looking for one column kind.
type DetectionStatus int

const (
	NotFound DetectionStatus = iota
	Detected
)

func (s DetectionStatus) String() string {
	if s == Detected {
		return "detected"
	}
	return "not_found"
}

// Detection records which raw column, if any, was selected for a kind.
type Detection struct {
	Kind       model.ColumnKind
	Status     DetectionStatus
	Column     string
	Candidates []string
	Mapped     bool
}

// Found reports whether a column was selected.
func (d Detection) Found() bool { return d.Status == Detected }

var matchers = map[model.ColumnKind]func(lower string) bool{
	model.KindPredicted: func(l string) bool { return strings.Contains(l, "pred") },
	model.KindMAE:       func(l string) bool { return strings.HasPrefix(l, "mae") },
	model.KindRMSE:      func(l string) bool { return strings.Contains(l, "rmse") },
}

var dateLayouts = []string{
	model.DateLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Normalizer turns raw per-model tables into canonical source tables.
type Normalizer struct {
	Policy MatchPolicy
	Logger *zap.Logger
}

// NewNormalizer creates a Normalizer. An empty policy means MatchFirst.
func NewNormalizer(policy MatchPolicy, logger *zap.Logger) *Normalizer {
	if policy == "" {
		policy = MatchFirst
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{Policy: policy, Logger: logger}
}

// Detect selects a raw column for each kind, in detection order.
// A column claimed by one kind is not offered to later kinds. A column already
// named canonically for source is taken as-is and never matched by another kind.
func (n *Normalizer) Detect(raw model.RawTable, source string, mapping ColumnMapping) ([]Detection, error) {
	claimed := map[string]bool{model.ColDate: true, model.ColRealPrice: true}
	canonical := make(map[string]bool, len(model.ColumnKinds))
	for _, kind := range model.ColumnKinds {
		canonical[model.CanonicalColumn(kind, source)] = true
	}
	out := make([]Detection, 0, len(model.ColumnKinds))

	for _, kind := range model.ColumnKinds {
		det := Detection{Kind: kind}
		if col := mapping.column(kind); col != "" {
			if !raw.HasColumn(col) || claimed[col] {
				return nil, &MalformedInputError{
					Source: source, Column: col, Row: -1,
					Reason: fmt.Sprintf("mapped %s column is missing or already used", kind),
				}
			}
			det.Status, det.Column, det.Mapped = Detected, col, true
			det.Candidates = []string{col}
			claimed[col] = true
			out = append(out, det)
			continue
		}

		if col := model.CanonicalColumn(kind, source); raw.HasColumn(col) && !claimed[col] {
			det.Status, det.Column = Detected, col
			det.Candidates = []string{col}
			claimed[col] = true
			out = append(out, det)
			continue
		}

		match := matchers[kind]
		for _, col := range raw.Columns {
			if !claimed[col] && !canonical[col] && match(strings.ToLower(col)) {
				det.Candidates = append(det.Candidates, col)
			}
		}
		if len(det.Candidates) == 0 {
			out = append(out, det)
			continue
		}
		if len(det.Candidates) > 1 {
			if n.Policy == MatchStrict {
				return nil, &MalformedInputError{
					Source: source, Row: -1,
					Reason: fmt.Sprintf("ambiguous %s columns %v", kind, det.Candidates),
				}
			}
			n.Logger.Warn("ambiguous column detection",
				zap.String("source", source),
				zap.String("kind", kind.String()),
				zap.Strings("candidates", det.Candidates),
				zap.String("policy", string(n.Policy)))
		}
		det.Status = Detected
		det.Column = det.Candidates[0]
		if n.Policy == MatchLast {
			det.Column = det.Candidates[len(det.Candidates)-1]
		}
		claimed[det.Column] = true
		out = append(out, det)
	}
	return out, nil
}

// Normalize converts raw into a canonical SourceTable for source.
// A missing real_price column is reported as a warning, not an error.
func (n *Normalizer) Normalize(raw model.RawTable, source string, mapping ColumnMapping) (*model.SourceTable, []Warning, error) {
	if source == "" {
		return nil, nil, &MalformedInputError{Row: -1, Reason: "source name is empty"}
	}
	if !raw.HasColumn(model.ColDate) {
		return nil, nil, &MalformedInputError{Source: source, Column: model.ColDate, Row: -1, Reason: "required column is missing"}
	}

	detections, err := n.Detect(raw, source, mapping)
	if err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	table := &model.SourceTable{Source: source, Columns: []string{model.ColDate}}
	hasReal := raw.HasColumn(model.ColRealPrice)
	if hasReal {
		table.Columns = append(table.Columns, model.ColRealPrice)
	} else {
		warnings = append(warnings, Warning{Source: source, Column: model.ColRealPrice, Message: "column not found"})
		n.Logger.Warn("real_price column not found", zap.String("source", source))
	}
	for _, det := range detections {
		if det.Found() {
			table.Columns = append(table.Columns, model.CanonicalColumn(det.Kind, source))
		}
	}

	table.Records = make([]model.SeriesRecord, 0, len(raw.Rows))
	for i, row := range raw.Rows {
		date, err := parseDate(row[model.ColDate])
		if err != nil {
			return nil, nil, &MalformedInputError{Source: source, Column: model.ColDate, Row: i, Reason: "unparseable date", Err: err}
		}
		rec := model.SeriesRecord{Date: date}
		if hasReal {
			if rec.RealPrice, err = parseNumber(row[model.ColRealPrice]); err != nil {
				return nil, nil, &MalformedInputError{Source: source, Column: model.ColRealPrice, Row: i, Reason: "not a number", Err: err}
			}
		}
		for _, det := range detections {
			if !det.Found() {
				continue
			}
			v, err := parseNumber(row[det.Column])
			if err != nil {
				return nil, nil, &MalformedInputError{Source: source, Column: det.Column, Row: i, Reason: "not a number", Err: err}
			}
			switch det.Kind {
			case model.KindPredicted:
				rec.Predicted = v
			case model.KindMAE:
				rec.MAE = v
			case model.KindRMSE:
				rec.RMSE = v
			}
		}
		table.Records = append(table.Records, rec)
	}

	n.Logger.Debug("source normalized",
		zap.String("source", source),
		zap.Strings("columns", table.Columns),
		zap.Int("rows", len(table.Records)))
	return table, warnings, nil
}

// parseDate accepts ISO dates, common timestamp layouts and epoch milliseconds.
// The result is truncated to a UTC calendar date.
func parseDate(v any) (time.Time, error) {
	var t time.Time
	switch d := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("date is null")
	case time.Time:
		t = d
	case string:
		s := strings.TrimSpace(d)
		var err error
		for _, layout := range dateLayouts {
			if t, err = time.Parse(layout, s); err == nil {
				break
			}
		}
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date %q", d)
		}
	case json.Number:
		ms, err := d.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("epoch millis %q: %w", d, err)
		}
		t = time.UnixMilli(ms)
	case float64:
		t = time.UnixMilli(int64(d))
	case int64:
		t = time.UnixMilli(d)
	case int:
		t = time.UnixMilli(int64(d))
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseNumber reads an optional numeric cell. Nil and empty strings are absent.
func parseNumber(v any) (*float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return nil, err
		}
		f = d.InexactFloat64()
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, err
		}
		f = d.InexactFloat64()
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	return &f, nil
}
