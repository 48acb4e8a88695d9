package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"NavSentinel/internal/model"
)

// EastmoneyFetcher reads the NAV trend embedded in Eastmoney's pingzhongdata script.
type EastmoneyFetcher struct {
	BaseURL  string
	Client   *http.Client
	Location *time.Location // market time zone used to turn timestamps into dates
}

// NewEastmoneyFetcher creates a fetcher with optional proxy support.
func NewEastmoneyFetcher(proxyURL string, loc *time.Location) *EastmoneyFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if loc == nil {
		loc = time.FixedZone("CST", 8*3600)
	}
	return &EastmoneyFetcher{
		BaseURL: "http://fund.eastmoney.com",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Location: loc,
	}
}

func (f *EastmoneyFetcher) Name() string { return "eastmoney" }

var netWorthTrend = regexp.MustCompile(`(?s)Data_netWorthTrend\s*=\s*(\[.*?\])\s*;`)

// trendPoint is one element of Data_netWorthTrend.
type trendPoint struct {
	X *int64           `json:"x"` // epoch millis
	Y *decimal.Decimal `json:"y"` // unit NAV
}

func (f *EastmoneyFetcher) FetchHistory(ctx context.Context, code string, limit int) ([]model.HistoryRecord, error) {
	u := fmt.Sprintf("%s/pingzhongdata/%s.js", f.BaseURL, url.PathEscape(code))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eastmoney fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("eastmoney read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eastmoney: status %d", resp.StatusCode)
	}

	m := netWorthTrend.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("eastmoney: no nav trend for %s", code)
	}
	var points []trendPoint
	if err := json.Unmarshal(m[1], &points); err != nil {
		return nil, fmt.Errorf("eastmoney decode: %w", err)
	}

	records := make([]model.HistoryRecord, 0, len(points))
	for _, p := range points {
		if p.X == nil || p.Y == nil {
			continue
		}
		records = append(records, model.HistoryRecord{
			Date: model.Day(time.UnixMilli(*p.X).In(f.Location)),
			NAV:  p.Y.InexactFloat64(),
		})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("eastmoney: empty nav trend for %s", code)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return trim(records, limit), nil
}
