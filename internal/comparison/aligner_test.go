package comparison

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PredictLens/internal/model"
)

func normalizeAll(t *testing.T, sources []Source, raws []model.RawTable) []*model.SourceTable {
	t.Helper()
	n := NewNormalizer(MatchFirst, nil)
	tables := make([]*model.SourceTable, len(sources))
	for i, src := range sources {
		table, _, err := n.Normalize(raws[i], src.Name, src.Mapping)
		require.NoError(t, err)
		tables[i] = table
	}
	return tables
}

func TestAlign_Scenario(t *testing.T) {
	sources, raws := scenarioRaws()
	merged, warnings, err := NewAligner(nil).Align(normalizeAll(t, sources, raws))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, []string{
		"date", "real_price",
		"predicted_a", "mae_a", "rmse_a",
		"predicted_b",
		"mae_c",
	}, merged.Columns)
	assert.Equal(t, []string{"A", "B", "C"}, merged.Sources)
	require.Len(t, merged.Rows, 2)

	assert.Equal(t, day("2023-01-01"), merged.Rows[0].Date)
	assert.Equal(t, 100.0, *merged.Cell(0, "real_price"))
	assert.Equal(t, 99.0, *merged.Cell(0, "predicted_b"))
	assert.Nil(t, merged.Cell(1, "predicted_b"))
	assert.Equal(t, 108.0, *merged.Cell(1, "predicted_a"))
}

func TestAlign_RowsFollowReferenceDates(t *testing.T) {
	ref := &model.SourceTable{
		Source:  "ref",
		Columns: []string{"date", "real_price"},
		Records: []model.SeriesRecord{
			{Date: day("2023-01-03"), RealPrice: f(3)},
			{Date: day("2023-01-01"), RealPrice: f(1)},
		},
	}
	other := &model.SourceTable{
		Source:  "other",
		Columns: []string{"date", "real_price", "predicted_other"},
		Records: []model.SeriesRecord{
			{Date: day("2023-01-01"), RealPrice: f(999), Predicted: f(1.1)},
			{Date: day("2023-01-02"), Predicted: f(2.2)},
		},
	}
	merged, _, err := NewAligner(nil).Align([]*model.SourceTable{ref, other})
	require.NoError(t, err)

	require.Len(t, merged.Rows, 2)
	assert.Equal(t, day("2023-01-01"), merged.Rows[0].Date)
	assert.Equal(t, day("2023-01-03"), merged.Rows[1].Date)
	assert.Equal(t, 1.0, *merged.Rows[0].RealPrice, "reference real_price is authoritative")
	assert.Equal(t, 1.1, *merged.Cell(0, "predicted_other"))
	assert.Nil(t, merged.Cell(1, "predicted_other"))
}

func TestAlign_DuplicateDatesLastWins(t *testing.T) {
	ref := &model.SourceTable{
		Source:  "ref",
		Columns: []string{"date", "real_price", "predicted_ref"},
		Records: []model.SeriesRecord{
			{Date: day("2023-01-01"), RealPrice: f(1), Predicted: f(10)},
			{Date: day("2023-01-02"), RealPrice: f(2), Predicted: f(20)},
			{Date: day("2023-01-01"), RealPrice: f(5), Predicted: f(50)},
		},
	}
	merged, warnings, err := NewAligner(nil).Align([]*model.SourceTable{ref})
	require.NoError(t, err)
	require.Len(t, merged.Rows, 2, "row count equals distinct reference dates")
	assert.Equal(t, 5.0, *merged.Rows[0].RealPrice)
	assert.Equal(t, 50.0, *merged.Cell(0, "predicted_ref"))
	require.Len(t, warnings, 1)
	assert.Equal(t, "ref", warnings[0].Source)
}

func TestAlign_SchemaErrors(t *testing.T) {
	ok := &model.SourceTable{Source: "A", Columns: []string{"date"}}
	tests := []struct {
		name   string
		tables []*model.SourceTable
	}{
		{"no tables", nil},
		{"missing date", []*model.SourceTable{ok, {Source: "B", Columns: []string{"real_price"}}}},
		{"empty name", []*model.SourceTable{{Columns: []string{"date"}}}},
		{"duplicate name", []*model.SourceTable{ok, {Source: "a", Columns: []string{"date"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewAligner(nil).Align(tt.tables)
			var sErr *SchemaError
			require.ErrorAs(t, err, &sErr)
		})
	}
}

func TestAlign_ReferenceWithoutRealPrice(t *testing.T) {
	ref := &model.SourceTable{
		Source:  "A",
		Columns: []string{"date", "predicted_a"},
		Records: []model.SeriesRecord{{Date: day("2023-01-01"), Predicted: f(1)}},
	}
	merged, warnings, err := NewAligner(nil).Align([]*model.SourceTable{ref})
	require.NoError(t, err)
	assert.False(t, merged.HasColumn("real_price"))
	assert.Nil(t, merged.Cell(0, "real_price"))
	require.Len(t, warnings, 1)

	row, err := json.Marshal(merged.Rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2023-01-01","predicted_a":1}`, string(row))
}

func TestAlign_RowJSONCarriesRealPrice(t *testing.T) {
	ref := &model.SourceTable{
		Source:  "A",
		Columns: []string{"date", "real_price", "predicted_a"},
		Records: []model.SeriesRecord{{Date: day("2023-01-01"), Predicted: f(1)}},
	}
	merged, _, err := NewAligner(nil).Align([]*model.SourceTable{ref})
	require.NoError(t, err)
	row, err := json.Marshal(merged.Rows[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2023-01-01","real_price":null,"predicted_a":1}`, string(row))
}
