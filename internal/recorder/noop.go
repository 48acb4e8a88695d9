package recorder

import (
	"context"

	"NavSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ context.Context, _ *SnapshotRecord) error { return nil }
func (n *NoopRecorder) Series(_ context.Context, _, date string) (*model.IntradaySeries, error) {
	return emptySeries(date), nil
}
func (n *NoopRecorder) SaveHistory(_ context.Context, _ string, _ []model.HistoryRecord) error {
	return nil
}
func (n *NoopRecorder) LoadHistory(_ context.Context, _ string, _ int) ([]model.HistoryRecord, error) {
	return nil, nil
}
func (n *NoopRecorder) Cleanup(_ context.Context, _ string) (int64, error) { return 0, nil }
func (n *NoopRecorder) Close() error                                      { return nil }
