package collector

import (
	"context"

	"NavSentinel/internal/model"
)

// HistoryFetcher retrieves official daily NAVs for a fund, ascending by date.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, code string, limit int) ([]model.HistoryRecord, error)
	Name() string
}

// HistoryCache keeps the last fetched history so a sample can survive a source outage.
type HistoryCache interface {
	SaveHistory(ctx context.Context, code string, records []model.HistoryRecord) error
	LoadHistory(ctx context.Context, code string, limit int) ([]model.HistoryRecord, error)
}

// trim keeps the last limit records; limit <= 0 keeps all.
func trim(records []model.HistoryRecord, limit int) []model.HistoryRecord {
	if limit > 0 && len(records) > limit {
		return records[len(records)-limit:]
	}
	return records
}
