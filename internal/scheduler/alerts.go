package scheduler

import (
	"math"
	"sync"
	"time"

	"NavSentinel/internal/model"
)

// AlertCooldown is the minimum gap between two alerts for the same fund.
const AlertCooldown = time.Hour

// Alert is a threshold crossing ready to be delivered.
type Alert struct {
	Fund      model.WatchedFund
	Result    model.EstimationResult
	Threshold float64
	Up        bool
}

// AlertTracker evaluates thresholds and rate-limits alerts per fund.
type AlertTracker struct {
	mu       sync.Mutex
	notified map[string]time.Time
	cooldown time.Duration
}

func NewAlertTracker(cooldown time.Duration) *AlertTracker {
	return &AlertTracker{notified: make(map[string]time.Time), cooldown: cooldown}
}

// Check returns the alert to send for this estimate, if any. An unset (zero)
// threshold never fires. The cooldown only starts once MarkNotified is called.
func (a *AlertTracker) Check(fund model.WatchedFund, res model.EstimationResult, now time.Time) (*Alert, bool) {
	var alert *Alert
	switch {
	case fund.ThresholdUp > 0 && res.EstRate >= fund.ThresholdUp:
		alert = &Alert{Fund: fund, Result: res, Threshold: fund.ThresholdUp, Up: true}
	case fund.ThresholdDown > 0 && res.EstRate <= -math.Abs(fund.ThresholdDown):
		alert = &Alert{Fund: fund, Result: res, Threshold: math.Abs(fund.ThresholdDown)}
	default:
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if last, ok := a.notified[fund.Code]; ok && now.Sub(last) < a.cooldown {
		return nil, false
	}
	return alert, true
}

// MarkNotified starts the cooldown for a fund after an alert was delivered.
func (a *AlertTracker) MarkNotified(code string, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notified[code] = now
}
