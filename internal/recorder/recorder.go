package recorder

import (
	"context"
	"time"

	"NavSentinel/internal/model"
)

// SnapshotRecord is one intraday estimate to persist.
type SnapshotRecord struct {
	Code        string
	Date        string // YYYY-MM-DD, market local
	PrevNAV     float64
	Snapshot    model.IntradaySnapshot
	CollectedAt time.Time
}

// Recorder persists intraday snapshots and caches NAV history.
type Recorder interface {
	RecordSnapshot(ctx context.Context, rec *SnapshotRecord) error
	Series(ctx context.Context, code, date string) (*model.IntradaySeries, error)
	SaveHistory(ctx context.Context, code string, records []model.HistoryRecord) error
	LoadHistory(ctx context.Context, code string, limit int) ([]model.HistoryRecord, error)
	Cleanup(ctx context.Context, before string) (int64, error)
	Close() error
}

func emptySeries(date string) *model.IntradaySeries {
	return &model.IntradaySeries{Date: date, Snapshots: []model.IntradaySnapshot{}}
}
