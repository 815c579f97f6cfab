// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analysis computes aggregate statistics and week-over-week
// trends over the finding store.
//
// Generation is a pure function of the store contents at call time: no
// caching, no side effects, and an empty store yields a well-formed
// all-zero summary instead of an error.
package analysis

import (
	"fmt"
	"time"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	"github.com/openelements/conduct-guardian/services/guardian/store"
)

// Trend labels.
const (
	TrendStable     = "STABLE"
	TrendIncreasing = "INCREASING"
	TrendDecreasing = "DECREASING"
)

// stableBand is the absolute growth percentage below which the trend is
// considered stable.
const stableBand = 10.0

const dayFormat = "2006-01-02"

// TrendAnalysis classifies the week-over-week movement of findings.
type TrendAnalysis struct {
	Trend            string  `json:"trend"`
	ChangePercentage float64 `json:"changePercentage"`
	Description      string  `json:"description"`
}

// TrendSummary is the condensed trend view served by the API.
type TrendSummary struct {
	Trend            string  `json:"trend"`
	ChangePercentage float64 `json:"changePercentage"`
	Description      string  `json:"description"`
	TotalFindings    int     `json:"totalFindings"`
	AveragePerDay    float64 `json:"averagePerDay"`
}

// Summary is the full aggregate analysis of the finding store.
type Summary struct {
	TotalFindings    int              `json:"totalFindings"`
	CountsByState    map[string]int64 `json:"countsByState"`
	CountsBySeverity map[string]int64 `json:"countsBySeverity"`
	CountsByHour     map[int]int64    `json:"countsByHour"`
	CountsByDay      map[string]int64 `json:"countsByDay"`

	// Per-day statistics grouped over calendar days that saw at least
	// one finding of any state.
	DailyAverageByState map[string]float64 `json:"dailyAverageByState"`
	DailyMaxByState     map[string]int64   `json:"dailyMaxByState"`

	// Daily averages restricted to the trailing 7 days.
	WeeklyDailyAverageByState map[string]float64 `json:"weeklyDailyAverageByState"`

	// Average findings per active day, all states combined.
	AveragePerDay float64 `json:"averagePerDay"`

	// Week-over-week growth, overall and per state.
	OverallGrowthPercent float64            `json:"overallGrowthPercent"`
	GrowthByState        map[string]float64 `json:"growthByState"`

	Trend       TrendAnalysis `json:"trend"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// allStates is the fixed iteration order for per-state maps.
var allStates = []datatypes.ViolationState{
	datatypes.StateNone,
	datatypes.StatePossibleViolation,
	datatypes.StateViolation,
}

// Engine computes summaries over a finding store.
type Engine struct {
	findings *store.FindingStore
}

// NewEngine creates an analytics engine reading the given store.
func NewEngine(findings *store.FindingStore) *Engine {
	return &Engine{findings: findings}
}

// Generate computes the summary over the current store contents.
func (e *Engine) Generate() Summary {
	return e.GenerateAt(time.Now())
}

// GenerateAt computes the summary with an explicit "now", letting tests
// pin the trailing-window boundaries.
func (e *Engine) GenerateAt(now time.Time) Summary {
	findings := e.findings.FindAll()
	if len(findings) == 0 {
		return emptySummary(now)
	}

	summary := Summary{
		TotalFindings:             len(findings),
		CountsByState:             make(map[string]int64),
		CountsBySeverity:          make(map[string]int64),
		CountsByHour:              make(map[int]int64),
		CountsByDay:               make(map[string]int64),
		DailyAverageByState:       make(map[string]float64),
		DailyMaxByState:           make(map[string]int64),
		WeeklyDailyAverageByState: make(map[string]float64),
		GrowthByState:             make(map[string]float64),
		GeneratedAt:               now,
	}

	for _, f := range findings {
		summary.CountsByState[f.State.String()]++
		summary.CountsBySeverity[f.Severity]++
		summary.CountsByHour[f.Timestamp.Hour()]++
		summary.CountsByDay[f.Timestamp.Format(dayFormat)]++
	}

	fillDailyStats(&summary, findings)
	fillWeeklyAverages(&summary, findings, now)
	fillGrowth(&summary, findings, now)

	summary.Trend = classifyTrend(summary.OverallGrowthPercent, findings, now)
	return summary
}

// GenerateTrendSummary computes the condensed trend view.
func (e *Engine) GenerateTrendSummary() TrendSummary {
	summary := e.Generate()
	return TrendSummary{
		Trend:            summary.Trend.Trend,
		ChangePercentage: summary.Trend.ChangePercentage,
		Description:      summary.Trend.Description,
		TotalFindings:    summary.TotalFindings,
		AveragePerDay:    summary.AveragePerDay,
	}
}

func emptySummary(now time.Time) Summary {
	return Summary{
		CountsByState:             map[string]int64{},
		CountsBySeverity:          map[string]int64{},
		CountsByHour:              map[int]int64{},
		CountsByDay:               map[string]int64{},
		DailyAverageByState:       map[string]float64{},
		DailyMaxByState:           map[string]int64{},
		WeeklyDailyAverageByState: map[string]float64{},
		GrowthByState:             map[string]float64{},
		Trend: TrendAnalysis{
			Trend:            TrendStable,
			ChangePercentage: 0,
			Description:      "No data available for trend analysis",
		},
		GeneratedAt: now,
	}
}

// fillDailyStats groups findings by calendar day and derives per-state
// averages and maxima across day groups. A day with no findings of any
// state is not a group; within a group, a state absent that day counts
// as 0 toward its average.
func fillDailyStats(summary *Summary, findings []datatypes.Finding) {
	perDay := make(map[string]map[datatypes.ViolationState]int64)
	for _, f := range findings {
		day := f.Timestamp.Format(dayFormat)
		if perDay[day] == nil {
			perDay[day] = make(map[datatypes.ViolationState]int64)
		}
		perDay[day][f.State]++
	}

	days := int64(len(perDay))
	for _, state := range allStates {
		var total, max int64
		for _, counts := range perDay {
			c := counts[state]
			total += c
			if c > max {
				max = c
			}
		}
		summary.DailyAverageByState[state.String()] = float64(total) / float64(days)
		summary.DailyMaxByState[state.String()] = max
	}
	summary.AveragePerDay = float64(len(findings)) / float64(days)
}

// fillWeeklyAverages computes the same daily-average metric restricted
// to findings within the trailing 7 days of now.
func fillWeeklyAverages(summary *Summary, findings []datatypes.Finding, now time.Time) {
	weekAgo := now.AddDate(0, 0, -7)
	perDay := make(map[string]map[datatypes.ViolationState]int64)
	for _, f := range findings {
		if !f.Timestamp.After(weekAgo) {
			continue
		}
		day := f.Timestamp.Format(dayFormat)
		if perDay[day] == nil {
			perDay[day] = make(map[datatypes.ViolationState]int64)
		}
		perDay[day][f.State]++
	}

	days := int64(len(perDay))
	for _, state := range allStates {
		if days == 0 {
			summary.WeeklyDailyAverageByState[state.String()] = 0
			continue
		}
		var total int64
		for _, counts := range perDay {
			total += counts[state]
		}
		summary.WeeklyDailyAverageByState[state.String()] = float64(total) / float64(days)
	}
}

// fillGrowth computes week-over-week growth percentages. Recent is the
// trailing 7 days; previous is the 7 days before that, (now-14d, now-7d].
func fillGrowth(summary *Summary, findings []datatypes.Finding, now time.Time) {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var recentTotal, previousTotal int64
	recentByState := make(map[datatypes.ViolationState]int64)
	previousByState := make(map[datatypes.ViolationState]int64)

	for _, f := range findings {
		switch {
		case f.Timestamp.After(weekAgo):
			recentTotal++
			recentByState[f.State]++
		case f.Timestamp.After(twoWeeksAgo):
			previousTotal++
			previousByState[f.State]++
		}
	}

	summary.OverallGrowthPercent = growthPercent(previousTotal, recentTotal)
	for _, state := range allStates {
		summary.GrowthByState[state.String()] = growthPercent(previousByState[state], recentByState[state])
	}
}

// growthPercent computes (recent-previous)/previous*100. When previous
// is zero, the result is 100 if anything recent exists, else 0.
func growthPercent(previous, recent int64) float64 {
	if previous == 0 {
		if recent > 0 {
			return 100
		}
		return 0
	}
	return float64(recent-previous) / float64(previous) * 100
}

// classifyTrend derives the trend label and description from the overall
// growth percentage.
func classifyTrend(growth float64, findings []datatypes.Finding, now time.Time) TrendAnalysis {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	var previous int64
	for _, f := range findings {
		if !f.Timestamp.After(weekAgo) && f.Timestamp.After(twoWeeksAgo) {
			previous++
		}
	}

	if growth < stableBand && growth > -stableBand {
		return TrendAnalysis{
			Trend:            TrendStable,
			ChangePercentage: growth,
			Description:      "Violation rates remain relatively stable",
		}
	}
	if growth > 0 {
		description := fmt.Sprintf("Violations increased by %.1f%% compared to previous week", growth)
		if previous == 0 {
			description = "New violations detected this week"
		}
		return TrendAnalysis{
			Trend:            TrendIncreasing,
			ChangePercentage: growth,
			Description:      description,
		}
	}
	return TrendAnalysis{
		Trend:            TrendDecreasing,
		ChangePercentage: growth,
		Description:      fmt.Sprintf("Violations decreased by %.1f%% compared to previous week", -growth),
	}
}
