// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package checker provides conduct checkers that classify community
// messages against a code of conduct.
//
// Two implementations exist: a keyword heuristic with no external
// dependency and an OpenAI-backed checker that embeds the governing code
// of conduct into a prompt. Both satisfy ConductChecker and always return
// a valid violation state on success.
package checker

import (
	"context"
	"fmt"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// ConductChecker classifies a message for code of conduct violations.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; the pipeline may run
// checks for different messages in parallel.
type ConductChecker interface {
	// Check classifies the message. On success the result always carries
	// one of the three violation states. Failures are reported as a
	// *ClassificationError.
	Check(ctx context.Context, msg datatypes.Message) (datatypes.CheckResult, error)
}

// ClassificationError reports that a checker could not produce a result.
// The pipeline treats it as fail-closed: the message is dropped, nothing
// is stored and no sinks are notified.
type ClassificationError struct {
	// Checker names the implementation that failed.
	Checker string

	// Err is the underlying cause.
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("checker %s: classification failed: %v", e.Checker, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}
