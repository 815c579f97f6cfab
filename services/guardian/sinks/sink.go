// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package sinks delivers classification results to notification targets.
//
// Delivery is best-effort and at-most-once: the pipeline catches and logs
// a failing sink, then continues with the remaining sinks.
package sinks

import (
	"context"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// ResultSink delivers one classification result outward. Failures are
// local to the sink; the pipeline isolates them per delivery.
type ResultSink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Handle delivers the result. May fail; the caller logs and moves on.
	Handle(ctx context.Context, result datatypes.CheckResult) error
}
