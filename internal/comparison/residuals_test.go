package comparison

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeResiduals(t *testing.T) {
	sources, raws := scenarioRaws()
	merged, _, err := NewAligner(nil).Align(normalizeAll(t, sources, raws))
	require.NoError(t, err)

	ra, err := AnalyzeResiduals(merged, "A", 0)
	require.NoError(t, err)
	require.Len(t, ra.Points, 2)
	assert.Equal(t, 1.0, ra.Points[0].Residual)
	assert.Equal(t, -2.0, ra.Points[1].Residual)
	require.Len(t, ra.Histogram, DefaultHistogramBins)
	total := 0
	for _, b := range ra.Histogram {
		total += b.Count
	}
	assert.Equal(t, 2, total)
	require.NotNil(t, ra.Trendline)
	assert.InDelta(t, 0.7, ra.Trendline.Slope, 1e-9)

	rb, err := AnalyzeResiduals(merged, "B", 5)
	require.NoError(t, err)
	assert.Len(t, rb.Points, 1)
	assert.Nil(t, rb.Trendline, "a single point cannot be fitted")

	_, err = AnalyzeResiduals(merged, "C", 5)
	assert.ErrorIs(t, err, ErrNoPredictions)
}

func TestChartSeries(t *testing.T) {
	sources, raws := scenarioRaws()
	merged, _, err := NewAligner(nil).Align(normalizeAll(t, sources, raws))
	require.NoError(t, err)

	points := ChartSeries(merged)
	require.Len(t, points, 6)
	assert.Equal(t, "real_price", points[0].Series)
	assert.Equal(t, "a", points[2].Series)
	assert.Equal(t, "b", points[5].Series)
	assert.Nil(t, points[5].Price)
}
