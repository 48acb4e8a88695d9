package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"NavSentinel/internal/collector"
	"NavSentinel/internal/model"
	"NavSentinel/internal/notifier"
	"NavSentinel/internal/recorder"
)

// Sender delivers chat messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options configures a Scheduler.
type Options struct {
	Funds         []model.WatchedFund
	Location      *time.Location
	RetentionDays int
	Concurrency   int
}

// Scheduler samples intraday estimates for the watchlist on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Notifier  Sender // nil disables alerts
	Alerts    *AlertTracker
	Logger    *logrus.Logger
	Ctx       context.Context
	Now       func() time.Time

	funds       []model.WatchedFund
	loc         *time.Location
	retention   int
	concurrency int
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, sender Sender, logger *logrus.Logger, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.FixedZone("CST", 8*3600)
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = 30
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds(), cron.WithLocation(opts.Location)),
		Collector:   col,
		Recorder:    rec,
		Notifier:    sender,
		Alerts:      NewAlertTracker(AlertCooldown),
		Logger:      logger,
		Ctx:         ctx,
		Now:         time.Now,
		funds:       opts.Funds,
		loc:         opts.Location,
		retention:   opts.RetentionDays,
		concurrency: opts.Concurrency,
	}
}

// RegisterAll registers the sampling tick and the daily cleanup.
func (s *Scheduler) RegisterAll(sampleCron, cleanupCron string) error {
	if _, err := s.Cron.AddFunc(sampleCron, s.Tick); err != nil {
		return fmt.Errorf("register sample task: %w", err)
	}
	if _, err := s.Cron.AddFunc(cleanupCron, s.cleanupTask); err != nil {
		return fmt.Errorf("register cleanup task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.WithField("funds", len(s.funds)).Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Logger.Info("scheduler stopped")
}

// Tick samples the watchlist when the market is in session.
func (s *Scheduler) Tick() {
	now := s.Now()
	if !InSession(now, s.loc) {
		s.Logger.WithField("time", now.In(s.loc).Format("15:04")).Debug("outside trading session, skipping tick")
		return
	}
	s.SampleAll(s.Ctx, now)
}

// SampleAll estimates every watched fund, records snapshots and sends alerts.
// A failing fund is logged and skipped. It returns the number of snapshots recorded.
func (s *Scheduler) SampleAll(ctx context.Context, now time.Time) int {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	recorded := make([]bool, len(s.funds))
	for i, fund := range s.funds {
		g.Go(func() error {
			recorded[i] = s.sampleFund(gctx, fund, now)
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range recorded {
		if ok {
			n++
		}
	}
	s.Logger.WithFields(logrus.Fields{"funds": len(s.funds), "recorded": n}).Info("sampling tick done")
	return n
}

func (s *Scheduler) sampleFund(ctx context.Context, fund model.WatchedFund, now time.Time) bool {
	log := s.Logger.WithField("fund", fund.Code)

	sample, err := s.Collector.Sample(ctx, fund.Code)
	if err != nil {
		log.Warnf("sample: %v", err)
		return false
	}
	if !sample.OK() {
		log.WithField("records", len(sample.History)).Infof("no estimate: %v", sample.Err)
		return false
	}

	local := now.In(s.loc)
	res := sample.Result
	if err := s.Recorder.RecordSnapshot(ctx, &recorder.SnapshotRecord{
		Code:    fund.Code,
		Date:    local.Format(model.DateLayout),
		PrevNAV: sample.PrevNAV,
		Snapshot: model.IntradaySnapshot{
			Time:       local.Format("15:04"),
			Estimate:   res.Estimate,
			EstRate:    res.EstRate,
			Confidence: res.Confidence,
			Method:     res.Method,
		},
		CollectedAt: now,
	}); err != nil {
		log.Errorf("record snapshot: %v", err)
		return false
	}
	log.WithFields(logrus.Fields{
		"estimate":   res.Estimate,
		"est_rate":   res.EstRate,
		"confidence": res.Confidence,
		"method":     res.Method,
	}).Debug("snapshot recorded")

	s.checkAlert(ctx, fund, res, now)
	return true
}

func (s *Scheduler) checkAlert(ctx context.Context, fund model.WatchedFund, res model.EstimationResult, now time.Time) {
	if s.Notifier == nil {
		return
	}
	alert, fire := s.Alerts.Check(fund, res, now)
	if !fire {
		return
	}
	msg := notifier.FormatAlert(alert.Fund, alert.Result, alert.Threshold, alert.Up)
	if err := s.Notifier.SendWithRetry(ctx, msg, 3); err != nil {
		s.Logger.WithField("fund", fund.Code).Errorf("send alert: %v", err)
		return
	}
	s.Alerts.MarkNotified(fund.Code, now)
}

func (s *Scheduler) cleanupTask() {
	if _, err := s.Cleanup(s.Ctx, s.Now()); err != nil {
		s.Logger.Errorf("snapshot cleanup: %v", err)
	}
}

// Cleanup deletes snapshots older than the retention window.
func (s *Scheduler) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.In(s.loc).AddDate(0, 0, -s.retention).Format(model.DateLayout)
	n, err := s.Recorder.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.Logger.WithFields(logrus.Fields{"before": cutoff, "deleted": n}).Info("old snapshots cleaned up")
	return n, nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.Help
	}
	switch fields[0] {
	case "/estimate", "查看估值":
		if len(fields) < 2 {
			return notifier.Help
		}
		fund := s.lookup(fields[1])
		sample, err := s.Collector.Sample(ctx, fund.Code)
		if err != nil {
			return notifier.FormatFetchError(fund, err)
		}
		if !sample.OK() {
			return notifier.FormatNoEstimate(fund, sample.Err)
		}
		return notifier.FormatEstimate(fund, sample.PrevNAV, sample.Result, s.Now().In(s.loc))
	case "/funds", "查看基金":
		return notifier.FormatWatchlist(s.funds)
	default:
		return notifier.Help
	}
}

// lookup returns the configured fund for code, or a bare entry for unknown codes.
func (s *Scheduler) lookup(code string) model.WatchedFund {
	for _, f := range s.funds {
		if f.Code == code {
			return f
		}
	}
	return model.WatchedFund{Code: code}
}
