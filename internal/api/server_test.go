package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NavSentinel/internal/collector"
	"NavSentinel/internal/model"
	"NavSentinel/internal/recorder"
)

var cst = time.FixedZone("CST", 8*3600)

func init() { gin.SetMode(gin.TestMode) }

func navHistory(navs ...float64) []model.HistoryRecord {
	h := make([]model.HistoryRecord, len(navs))
	for i, nav := range navs {
		h[i] = model.HistoryRecord{Date: time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC), NAV: nav}
	}
	return h
}

func setup(t *testing.T, fetcher collector.HistoryFetcher) (*Server, *recorder.SQLiteRecorder) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	s := NewServer(rec, collector.NewCollector(fetcher, rec, 30, logger), cst, logger)
	s.Now = func() time.Time { return time.Date(2024, 3, 8, 3, 0, 0, 0, time.UTC) }
	return s, rec
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	s, _ := setup(t, &collector.MockFetcher{})
	w, body := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestIntraday(t *testing.T) {
	s, rec := setup(t, &collector.MockFetcher{})
	ctx := context.Background()
	at := time.Date(2024, 3, 8, 2, 5, 0, 0, time.UTC)
	for _, p := range []struct {
		hhmm string
		est  float64
	}{{"10:05", 1.0376}, {"09:35", 1.0370}} {
		require.NoError(t, rec.RecordSnapshot(ctx, &recorder.SnapshotRecord{
			Code: "000001", Date: "2024-03-08", PrevNAV: 1.03,
			Snapshot:    model.IntradaySnapshot{Time: p.hhmm, Estimate: p.est, EstRate: 0.74, Method: model.MethodWeightedMA},
			CollectedAt: at,
		}))
	}

	// date defaults to today in market time (11:00 CST)
	w, body := get(t, s, "/api/fund/000001/intraday")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-08", body["date"])
	assert.Equal(t, 1.03, body["prevNav"])
	assert.NotNil(t, body["lastCollectedAt"])
	snaps := body["snapshots"].([]any)
	require.Len(t, snaps, 2)
	first := snaps[0].(map[string]any)
	assert.Equal(t, "09:35", first["time"])
	assert.Equal(t, 1.037, first["estimate"])
	assert.NotContains(t, first, "estRate", "implied rate is derived by the front end")
}

func TestIntraday_EmptyAndBadDate(t *testing.T) {
	s, _ := setup(t, &collector.MockFetcher{})

	w, body := get(t, s, "/api/fund/000001/intraday?date=2024-03-07")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["snapshots"])
	assert.Nil(t, body["lastCollectedAt"])

	w, body = get(t, s, "/api/fund/000001/intraday?date=07-03-2024")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["detail"], "YYYY-MM-DD")
}

func TestEstimate(t *testing.T) {
	s, _ := setup(t, &collector.MockFetcher{History: map[string][]model.HistoryRecord{
		"000001": navHistory(1.000, 1.010, 1.005, 1.020, 1.015, 1.030),
		"000002": navHistory(1.0),
		"000003": navHistory(1.0, 0, 1.0),
	}})

	w, body := get(t, s, "/api/fund/000001/estimate")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "000001", body["fundId"])
	assert.Equal(t, 1.0376, body["estimate"])
	assert.Equal(t, 0.74, body["estRate"])
	assert.Equal(t, 1.0, body["confidence"])
	assert.Equal(t, "weighted_ma", body["method"])
	assert.Equal(t, 1.03, body["prevNav"])

	w, body = get(t, s, "/api/fund/000002/estimate")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no estimate available", body["detail"])

	w, body = get(t, s, "/api/fund/000003/estimate")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, body["detail"], "invalid nav")
}

func TestEstimate_ServedFromCacheWhenSourceFails(t *testing.T) {
	fetcher := &collector.MockFetcher{History: map[string][]model.HistoryRecord{
		"000001": navHistory(1.000, 1.010, 1.005, 1.020, 1.015, 1.030),
	}}
	s, _ := setup(t, fetcher)
	w, _ := get(t, s, "/api/fund/000001/estimate")
	require.Equal(t, http.StatusOK, w.Code)

	fetcher.Err = errors.New("upstream down")
	w, body := get(t, s, "/api/fund/000001/estimate")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, 1.0376, body["estimate"])

	w, _ = get(t, s, "/api/fund/999999/estimate")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHistory(t *testing.T) {
	fetcher := &collector.MockFetcher{History: map[string][]model.HistoryRecord{
		"000001": navHistory(1.000, 1.010, 1.005, 1.020, 1.015, 1.030),
	}}
	s, _ := setup(t, fetcher)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fund/000001/history?limit=3", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var points []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points, 3)
	assert.Equal(t, "2024-03-04", points[0]["date"])
	assert.Equal(t, 1.02, points[0]["nav"])
	assert.Equal(t, "2024-03-06", points[2]["date"])
	assert.Equal(t, 1.03, points[2]["nav"])

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fund/000001/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	assert.Len(t, points, 6)

	for _, bad := range []string{"0", "-2", "abc"} {
		w, body := get(t, s, "/api/fund/000001/history?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Contains(t, body["detail"], "limit")
	}

	fetcher.Err = errors.New("upstream down")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/fund/000001/history?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code, "served from cache")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &points))
	require.Len(t, points, 2)
	assert.Equal(t, "2024-03-06", points[1]["date"])

	w, _ = get(t, s, "/api/fund/999999/history")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
