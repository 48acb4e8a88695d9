package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"NavSentinel/internal/estimate"
	"NavSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	BaseNAV float64
	History map[string][]model.HistoryRecord
	Err     error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, code string, limit int) ([]model.HistoryRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if h, ok := m.History[code]; ok {
		return trim(h, limit), nil
	}
	return generateMockHistory(m.BaseNAV, limit), nil
}

func generateMockHistory(base float64, count int) []model.HistoryRecord {
	if base <= 0 {
		base = 1
	}
	today := model.Day(time.Now())
	records := make([]model.HistoryRecord, count)
	for i := 0; i < count; i++ {
		records[i] = model.HistoryRecord{
			Date: today.AddDate(0, 0, -(count - i)),
			NAV:  base * (1 + float64(i-count/2)*0.001),
		}
	}
	return records
}

// Sample is the outcome of one estimation pass for a fund.
type Sample struct {
	Code    string
	History []model.HistoryRecord
	PrevNAV float64
	Result  model.EstimationResult
	Err     error // engine abstention; Result is meaningless when set
	Cached  bool  // history came from the cache
}

// OK reports whether the sample carries an estimate.
func (s *Sample) OK() bool { return s.Err == nil }

// Collector fetches NAV history and runs it through the estimation engine.
type Collector struct {
	Fetcher HistoryFetcher
	Cache   HistoryCache
	Limit   int
	Logger  *logrus.Logger
}

// NewCollector creates a new Collector. cache may be nil.
func NewCollector(fetcher HistoryFetcher, cache HistoryCache, limit int, logger *logrus.Logger) *Collector {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Collector{Fetcher: fetcher, Cache: cache, Limit: limit, Logger: logger}
}

// History fetches a fund's history, falling back to the cache when the source fails.
func (c *Collector) History(ctx context.Context, code string) ([]model.HistoryRecord, bool, error) {
	return c.HistoryN(ctx, code, c.Limit)
}

// HistoryN is History with an explicit record limit.
func (c *Collector) HistoryN(ctx context.Context, code string, limit int) ([]model.HistoryRecord, bool, error) {
	history, err := c.Fetcher.FetchHistory(ctx, code, limit)
	if err == nil {
		if c.Cache != nil {
			if cerr := c.Cache.SaveHistory(ctx, code, history); cerr != nil {
				c.Logger.WithField("fund", code).Warnf("cache history: %v", cerr)
			}
		}
		return history, false, nil
	}
	if c.Cache == nil {
		return nil, false, fmt.Errorf("fetch history %s: %w", code, err)
	}

	cached, cerr := c.Cache.LoadHistory(ctx, code, limit)
	if cerr != nil || len(cached) == 0 {
		return nil, false, fmt.Errorf("fetch history %s: %w", code, err)
	}
	c.Logger.WithFields(logrus.Fields{
		"fund":    code,
		"source":  c.Fetcher.Name(),
		"records": len(cached),
	}).Warnf("fetch history failed, using cache: %v", err)
	return cached, true, nil
}

// Sample fetches history for code and estimates its current NAV. The returned
// error covers data retrieval only; an engine abstention is reported in Sample.Err.
func (c *Collector) Sample(ctx context.Context, code string) (*Sample, error) {
	history, cached, err := c.History(ctx, code)
	if err != nil {
		return nil, err
	}
	s := &Sample{Code: code, History: history, Cached: cached}
	if len(history) > 0 {
		s.PrevNAV = history[len(history)-1].NAV
	}
	s.Result, s.Err = estimate.EstimateNav(code, history)
	return s, nil
}
