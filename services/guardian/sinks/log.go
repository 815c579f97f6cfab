// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package sinks

import (
	"context"
	"log/slog"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// LogSink writes every classification result to the structured log.
// The simplest sink; it never fails.
type LogSink struct{}

// NewLogSink creates the log sink.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Name implements ResultSink.
func (s *LogSink) Name() string { return "log" }

// Handle logs the result at a level matching its state.
func (s *LogSink) Handle(ctx context.Context, result datatypes.CheckResult) error {
	switch result.State {
	case datatypes.StateNone:
		slog.Info("No violation found", "link", result.Message.Link)
	case datatypes.StatePossibleViolation:
		slog.Warn("Possible violation found",
			"link", result.Message.Link,
			"reason", result.Reason)
	case datatypes.StateViolation:
		slog.Warn("Violation found",
			"link", result.Message.Link,
			"reason", result.Reason)
	}
	return nil
}

var _ ResultSink = (*LogSink)(nil)
