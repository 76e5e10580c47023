package recorder

import "PredictLens/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordComparison(_ []model.MetricSummary) error { return nil }
func (n *NoopRecorder) RecordForecast(_ *model.ForecastResult) error   { return nil }
func (n *NoopRecorder) RecentForecasts(_ string, _ int) ([]ForecastRun, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
