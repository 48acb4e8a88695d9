package model

import "time"

// IntradaySnapshot is one estimate captured during a trading session.
type IntradaySnapshot struct {
	Time       string  `json:"time"` // HH:MM in the market's local time
	Estimate   float64 `json:"estimate"`
	EstRate    float64 `json:"-"`
	Confidence float64 `json:"-"`
	Method     Method  `json:"-"`
}

// IntradaySeries is the per-fund, per-day list of snapshots served to the dashboard.
type IntradaySeries struct {
	Date            string             `json:"date"`
	PrevNAV         float64            `json:"prevNav"`
	Snapshots       []IntradaySnapshot `json:"snapshots"`
	LastCollectedAt *time.Time         `json:"lastCollectedAt"`
}

// WatchedFund is a fund sampled by the scheduler, with optional alert thresholds in percent.
type WatchedFund struct {
	Code          string  `yaml:"code"`
	Name          string  `yaml:"name"`
	ThresholdUp   float64 `yaml:"threshold_up"`
	ThresholdDown float64 `yaml:"threshold_down"`
}

// DisplayName returns the fund name, or its code when no name is configured.
func (f WatchedFund) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Code
}
