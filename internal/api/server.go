package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"NavSentinel/internal/collector"
	"NavSentinel/internal/estimate"
	"NavSentinel/internal/model"
	"NavSentinel/internal/recorder"
)

// Server exposes intraday series and live estimates over HTTP.
type Server struct {
	Recorder  recorder.Recorder
	Collector *collector.Collector
	Location  *time.Location
	Logger    *logrus.Logger
	Now       func() time.Time

	engine *gin.Engine
}

// NewServer builds the gin engine and registers routes.
func NewServer(rec recorder.Recorder, col *collector.Collector, loc *time.Location, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Server{Recorder: rec, Collector: col, Location: loc, Logger: logger, Now: time.Now}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.GET("/healthz", s.health)
	fund := r.Group("/api/fund/:id")
	fund.GET("/intraday", s.intraday)
	fund.GET("/history", s.history)
	fund.GET("/estimate", s.estimate)
	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.WithField("addr", addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// intraday serves GET /api/fund/:id/intraday?date=YYYY-MM-DD.
func (s *Server) intraday(c *gin.Context) {
	code := c.Param("id")
	date := c.Query("date")
	if date == "" {
		date = s.Now().In(s.Location).Format(model.DateLayout)
	} else if _, err := time.Parse(model.DateLayout, date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "date must be YYYY-MM-DD"})
		return
	}

	series, err := s.Recorder.Series(c.Request.Context(), code, date)
	if err != nil {
		s.Logger.WithFields(logrus.Fields{"fund": code, "date": date}).Errorf("load series: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, series)
}

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

type historyPoint struct {
	Date string  `json:"date"`
	NAV  float64 `json:"nav"`
}

// history serves GET /api/fund/:id/history?limit=N, oldest first.
func (s *Server) history(c *gin.Context) {
	code := c.Param("id")
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, _, err := s.Collector.HistoryN(c.Request.Context(), code, limit)
	if err != nil {
		s.Logger.WithField("fund", code).Warnf("history: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": err.Error()})
		return
	}
	points := make([]historyPoint, 0, len(records))
	for _, r := range records {
		points = append(points, historyPoint{Date: r.Date.Format(model.DateLayout), NAV: r.NAV})
	}
	c.JSON(http.StatusOK, points)
}

type estimateResponse struct {
	FundID string `json:"fundId"`
	model.EstimationResult
	PrevNAV float64 `json:"prevNav"`
	Cached  bool    `json:"cached"`
}

// estimate serves GET /api/fund/:id/estimate with a live engine result.
func (s *Server) estimate(c *gin.Context) {
	code := c.Param("id")
	sample, err := s.Collector.Sample(c.Request.Context(), code)
	if err != nil {
		s.Logger.WithField("fund", code).Warnf("sample: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"detail": err.Error()})
		return
	}
	if !sample.OK() {
		detail := "no estimate available"
		if errors.Is(sample.Err, estimate.ErrInvalidArithmetic) {
			detail = "no estimate available: invalid nav history"
		}
		c.JSON(http.StatusNotFound, gin.H{"detail": detail})
		return
	}
	c.JSON(http.StatusOK, estimateResponse{
		FundID:           code,
		EstimationResult: sample.Result,
		PrevNAV:          sample.PrevNAV,
		Cached:           sample.Cached,
	})
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("request")
	}
}
