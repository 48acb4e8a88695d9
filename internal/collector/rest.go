package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"NavSentinel/internal/model"
)

// RESTFetcher implements HistoryFetcher against a JSON NAV history API.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// navRow is the expected JSON shape; nav may be a number or a quoted decimal.
type navRow struct {
	Date string           `json:"date"`
	NAV  *decimal.Decimal `json:"nav"`
}

func (f *RESTFetcher) FetchHistory(ctx context.Context, code string, limit int) ([]model.HistoryRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/funds/%s/history?limit=%d", f.BaseURL, url.PathEscape(code), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch history: status %d, body: %s", resp.StatusCode, string(body))
	}

	var rows []navRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	records := make([]model.HistoryRecord, 0, len(rows))
	for _, r := range rows {
		if r.NAV == nil {
			continue
		}
		d, err := time.Parse(model.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("decode history date %q: %w", r.Date, err)
		}
		records = append(records, model.HistoryRecord{Date: d, NAV: r.NAV.InexactFloat64()})
	}
	// Ensure chronological order
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return trim(records, limit), nil
}
