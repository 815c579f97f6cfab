// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the core data model of the guardian service:
// inbound messages, classification results, persisted findings, and the
// DTOs served by the read-side API.
package datatypes

import (
	"fmt"
	"strings"
)

// =============================================================================
// Violation States
// =============================================================================

// ViolationState is the outcome of a conduct check. The numeric values
// define the severity order: None < PossibleViolation < Violation.
type ViolationState int

const (
	StateNone ViolationState = iota
	StatePossibleViolation
	StateViolation
)

// String returns the wire token for the state. These tokens are part of
// the LLM prompt contract and the JSON API surface.
func (s ViolationState) String() string {
	switch s {
	case StateNone:
		return "NONE"
	case StatePossibleViolation:
		return "POSSIBLE_VIOLATION"
	case StateViolation:
		return "VIOLATION"
	default:
		return fmt.Sprintf("ViolationState(%d)", int(s))
	}
}

// ParseViolationState converts a wire token into a ViolationState.
// Matching is case-insensitive.
func ParseViolationState(token string) (ViolationState, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "NONE":
		return StateNone, nil
	case "POSSIBLE_VIOLATION":
		return StatePossibleViolation, nil
	case "VIOLATION":
		return StateViolation, nil
	default:
		return StateNone, fmt.Errorf("unknown violation state: %q", token)
	}
}

// MarshalJSON encodes the state as its wire token.
func (s ViolationState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a wire token into the state.
func (s *ViolationState) UnmarshalJSON(data []byte) error {
	token := strings.Trim(string(data), `"`)
	parsed, err := ParseViolationState(token)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// =============================================================================
// Text Formats
// =============================================================================

// TextFormat identifies the document format requested from a code of
// conduct provider.
type TextFormat int

const (
	FormatPlain TextFormat = iota
	FormatMarkdown
	FormatHTML
)

// String returns a short name for the format, used in logs and cache keys.
func (f TextFormat) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatMarkdown:
		return "markdown"
	case FormatHTML:
		return "html"
	default:
		return fmt.Sprintf("TextFormat(%d)", int(f))
	}
}

// =============================================================================
// Message and CheckResult
// =============================================================================

// Message is one inbound unit of community text content. Title is empty
// for comment-only content; Body and Link are always set by the webhook
// boundary. Messages are value types and never mutated after creation.
type Message struct {
	// Title of the discussion, issue, or pull request. Empty for comments.
	Title string

	// Body is the free-text content to classify.
	Body string

	// Link is the canonical URL of the content, used as the correlation
	// key in logs.
	Link string
}

// HasTitle reports whether the message carries primary-content title text.
func (m Message) HasTitle() bool {
	return m.Title != ""
}

// CheckResult is the outcome of running a conduct checker over a Message.
// Produced exactly once per message.
type CheckResult struct {
	Message Message
	State   ViolationState
	Reason  string
}
