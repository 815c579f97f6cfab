// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pipeline orchestrates message moderation: classification,
// finding retention, and fan-out to notification sinks.
package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/openelements/conduct-guardian/services/guardian/checker"
	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	"github.com/openelements/conduct-guardian/services/guardian/observability"
	"github.com/openelements/conduct-guardian/services/guardian/sinks"
	"github.com/openelements/conduct-guardian/services/guardian/store"
)

// ErrEmptyMessage reports a precondition violation: a message without
// body or link reached the pipeline. This is a programming error at the
// boundary, not a runtime condition to recover from.
var ErrEmptyMessage = errors.New("message body and link must not be blank")

// Pipeline is the single entry point that processes one inbound message
// end to end: classify, persist the finding, notify every sink.
//
// # Thread Safety
//
// Safe for concurrent use; multiple Process calls may run in parallel
// for different messages. Each call is internally sequential with no
// retries and no queuing.
type Pipeline struct {
	checker  checker.ConductChecker
	findings *store.FindingStore
	sinks    []sinks.ResultSink
}

// New creates a pipeline. Running without sinks is a valid if unusual
// configuration; it is warned about once here, not per message.
func New(c checker.ConductChecker, findings *store.FindingStore, resultSinks []sinks.ResultSink) (*Pipeline, error) {
	if c == nil {
		return nil, errors.New("checker must not be nil")
	}
	if findings == nil {
		return nil, errors.New("finding store must not be nil")
	}
	if len(resultSinks) == 0 {
		slog.Warn("No result sinks configured. Classification results will only be retained, not delivered.")
	}
	return &Pipeline{
		checker:  c,
		findings: findings,
		sinks:    resultSinks,
	}, nil
}

// Process moderates one message. Classification errors fail closed: the
// message is logged with its link and dropped, nothing is stored and no
// sinks run. Sink failures are isolated per sink and never abort the
// call.
func (p *Pipeline) Process(ctx context.Context, msg datatypes.Message) error {
	if msg.Body == "" || msg.Link == "" {
		return ErrEmptyMessage
	}

	result, err := p.checker.Check(ctx, msg)
	if err != nil {
		slog.Error("Error processing message, dropping it", "link", msg.Link, "error", err)
		countMessage("classification_error")
		return nil
	}

	finding := datatypes.NewFinding(result)
	p.findings.Save(finding)
	countMessage("classified")
	countFinding(result.State)

	for _, sink := range p.sinks {
		p.deliver(ctx, sink, result)
	}
	return nil
}

// deliver runs one sink with a recover boundary so a panicking or
// failing sink cannot affect the remaining sinks.
func (p *Pipeline) deliver(ctx context.Context, sink sinks.ResultSink, result datatypes.CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Result sink panicked", "sink", sink.Name(), "panic", r)
			countSinkError(sink.Name())
		}
	}()
	if err := sink.Handle(ctx, result); err != nil {
		slog.Error("Error in result sink", "sink", sink.Name(), "error", err)
		countSinkError(sink.Name())
	}
}

func countMessage(outcome string) {
	if m := observability.Metrics(); m != nil {
		m.MessagesTotal.WithLabelValues(outcome).Inc()
	}
}

func countFinding(state datatypes.ViolationState) {
	if m := observability.Metrics(); m != nil {
		m.FindingsTotal.WithLabelValues(state.String()).Inc()
	}
}

func countSinkError(sink string) {
	if m := observability.Metrics(); m != nil {
		m.SinkErrorsTotal.WithLabelValues(sink).Inc()
	}
}
