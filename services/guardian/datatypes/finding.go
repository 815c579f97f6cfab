// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Severity
// =============================================================================

// Severity labels for findings. Derived once at creation from the
// violation state and the checker's reason text, then stored.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
	SeverityNone   = "NONE"
)

// deriveSeverity classifies the reason text of a finding. Only VIOLATION
// findings carry a real severity; the inspection is a one-time keyword
// check, not a score.
func deriveSeverity(state ViolationState, reason string) string {
	if state != StateViolation {
		return SeverityNone
	}
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "severe") || strings.Contains(lower, "harassment"):
		return SeverityHigh
	case strings.Contains(lower, "moderate") || strings.Contains(lower, "inappropriate"):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// =============================================================================
// Finding
// =============================================================================

// Finding is the persisted, timestamped record of a CheckResult.
// Findings are immutable after creation; the store only inserts and
// evicts, never updates.
type Finding struct {
	// ID is a random, collision-negligible identifier assigned at creation.
	ID string

	// Title of the originating content. Empty for comments.
	Title string

	// Body is the checked text.
	Body string

	// Link is the canonical URL of the content.
	Link string

	// State is the classification outcome.
	State ViolationState

	// Reason is the checker's explanation.
	Reason string

	// Timestamp is the creation time. Never mutated.
	Timestamp time.Time

	// Severity is derived once from State and Reason at creation.
	Severity string
}

// NewFinding builds a Finding from a check result, stamping it with a
// fresh UUID and the current time.
func NewFinding(result CheckResult) Finding {
	return NewFindingAt(result, time.Now())
}

// NewFindingAt builds a Finding with an explicit timestamp. Used by tests
// to place findings at known points in time.
func NewFindingAt(result CheckResult, ts time.Time) Finding {
	return Finding{
		ID:        uuid.NewString(),
		Title:     result.Message.Title,
		Body:      result.Message.Body,
		Link:      result.Message.Link,
		State:     result.State,
		Reason:    result.Reason,
		Timestamp: ts,
		Severity:  deriveSeverity(result.State, result.Reason),
	}
}
