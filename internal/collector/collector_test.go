package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NavSentinel/internal/estimate"
	"NavSentinel/internal/model"
)

func day(s string) time.Time {
	d, _ := time.Parse(model.DateLayout, s)
	return d
}

const pingzhong = `var fS_name = "Demo";var fS_code = "000001";
var Data_netWorthTrend = [{"x":1704124800000,"y":1.0,"equityReturn":0,"unitMoney":""},
{"x":1704211200000,"y":"1.01","equityReturn":1},{"x":1704038400000,"y":0.99},{"y":2}];
var Data_ACWorthTrend = [[1704124800000,1.5]];`

func TestEastmoneyFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pingzhongdata/000001.js", r.URL.Path)
		_, _ = w.Write([]byte(pingzhong))
	}))
	defer srv.Close()

	f := NewEastmoneyFetcher("", nil)
	f.BaseURL = srv.URL

	got, err := f.FetchHistory(context.Background(), "000001", 0)
	require.NoError(t, err)
	assert.Equal(t, []model.HistoryRecord{
		{Date: day("2024-01-01"), NAV: 0.99},
		{Date: day("2024-01-02"), NAV: 1.0},
		{Date: day("2024-01-03"), NAV: 1.01},
	}, got)

	got, err = f.FetchHistory(context.Background(), "000001", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day("2024-01-02"), got[0].Date)
}

func TestEastmoneyFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusBadGateway, ""},
		{"no trend", http.StatusOK, `var fS_name = "Demo";`},
		{"empty trend", http.StatusOK, `var Data_netWorthTrend = [];`},
		{"bad json", http.StatusOK, `var Data_netWorthTrend = [{"x":}];`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			f := NewEastmoneyFetcher("", nil)
			f.BaseURL = srv.URL
			_, err := f.FetchHistory(context.Background(), "000001", 30)
			assert.Error(t, err)
		})
	}
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/funds/110022/history", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"date":"2024-01-03","nav":"1.0300"},{"date":"2024-01-02","nav":1.02},{"date":"2024-01-04","nav":null}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	got, err := f.FetchHistory(context.Background(), "110022", 5)
	require.NoError(t, err)
	assert.Equal(t, []model.HistoryRecord{
		{Date: day("2024-01-02"), NAV: 1.02},
		{Date: day("2024-01-03"), NAV: 1.03},
	}, got)
}

func TestRESTFetcher_BadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"03/01/2024","nav":"1.0"}]`))
	}))
	defer srv.Close()
	_, err := NewRESTFetcher(srv.URL, "", "").FetchHistory(context.Background(), "x", 5)
	assert.Error(t, err)
}

type memCache struct {
	saved map[string][]model.HistoryRecord
}

func (m *memCache) SaveHistory(_ context.Context, code string, records []model.HistoryRecord) error {
	if m.saved == nil {
		m.saved = map[string][]model.HistoryRecord{}
	}
	m.saved[code] = records
	return nil
}

func (m *memCache) LoadHistory(_ context.Context, code string, limit int) ([]model.HistoryRecord, error) {
	return trim(m.saved[code], limit), nil
}

func worked() []model.HistoryRecord {
	navs := []float64{1.000, 1.010, 1.005, 1.020, 1.015, 1.030}
	h := make([]model.HistoryRecord, len(navs))
	for i, nav := range navs {
		h[i] = model.HistoryRecord{Date: day("2024-03-01").AddDate(0, 0, i), NAV: nav}
	}
	return h
}

func TestCollector_Sample(t *testing.T) {
	cache := &memCache{}
	fetcher := &MockFetcher{History: map[string][]model.HistoryRecord{"000001": worked()}}
	c := NewCollector(fetcher, cache, 30, nil)

	s, err := c.Sample(context.Background(), "000001")
	require.NoError(t, err)
	require.True(t, s.OK())
	assert.False(t, s.Cached)
	assert.Equal(t, 1.030, s.PrevNAV)
	assert.Equal(t, 1.0376, s.Result.Estimate)
	assert.Equal(t, model.MethodWeightedMA, s.Result.Method)
	assert.Len(t, cache.saved["000001"], 6)
}

func TestCollector_FallsBackToCache(t *testing.T) {
	logger, hook := test.NewNullLogger()
	cache := &memCache{saved: map[string][]model.HistoryRecord{"000001": worked()}}
	fetcher := &MockFetcher{Err: errors.New("upstream down")}
	c := NewCollector(fetcher, cache, 30, logger)

	s, err := c.Sample(context.Background(), "000001")
	require.NoError(t, err)
	assert.True(t, s.Cached)
	assert.Equal(t, 1.0376, s.Result.Estimate)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "000001", hook.LastEntry().Data["fund"])
}

func TestCollector_FetchErrorWithoutCache(t *testing.T) {
	c := NewCollector(&MockFetcher{Err: errors.New("upstream down")}, nil, 30, nil)
	_, err := c.Sample(context.Background(), "000001")
	assert.ErrorContains(t, err, "upstream down")

	c = NewCollector(&MockFetcher{Err: errors.New("upstream down")}, &memCache{}, 30, nil)
	_, err = c.Sample(context.Background(), "000001")
	assert.Error(t, err)
}

func TestCollector_Abstention(t *testing.T) {
	fetcher := &MockFetcher{History: map[string][]model.HistoryRecord{"000001": worked()[:1]}}
	s, err := NewCollector(fetcher, nil, 30, nil).Sample(context.Background(), "000001")
	require.NoError(t, err)
	assert.False(t, s.OK())
	assert.ErrorIs(t, s.Err, estimate.ErrInsufficientData)
	assert.Equal(t, 1.0, s.PrevNAV)
}

func TestMockFetcher_Generated(t *testing.T) {
	h, err := (&MockFetcher{BaseNAV: 2}).FetchHistory(context.Background(), "any", 10)
	require.NoError(t, err)
	require.Len(t, h, 10)
	for i := 1; i < len(h); i++ {
		assert.True(t, h[i-1].Date.Before(h[i].Date))
	}
}
