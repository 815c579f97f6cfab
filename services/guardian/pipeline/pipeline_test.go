// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/openelements/conduct-guardian/services/guardian/checker"
	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	"github.com/openelements/conduct-guardian/services/guardian/sinks"
	"github.com/openelements/conduct-guardian/services/guardian/store"
)

// stubChecker returns a fixed state or error.
type stubChecker struct {
	state datatypes.ViolationState
	err   error
}

func (c *stubChecker) Check(ctx context.Context, msg datatypes.Message) (datatypes.CheckResult, error) {
	if c.err != nil {
		return datatypes.CheckResult{}, c.err
	}
	return datatypes.CheckResult{Message: msg, State: c.state, Reason: "stub"}, nil
}

// recordingSink counts invocations and optionally fails or panics.
type recordingSink struct {
	name    string
	calls   int
	fail    bool
	panicky bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Handle(ctx context.Context, result datatypes.CheckResult) error {
	s.calls++
	if s.panicky {
		panic("sink exploded")
	}
	if s.fail {
		return errors.New("delivery failed")
	}
	return nil
}

func newTestPipeline(t *testing.T, c checker.ConductChecker, s *store.FindingStore, sinkList []sinks.ResultSink) *Pipeline {
	t.Helper()
	p, err := New(c, s, sinkList)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return p
}

func validMessage() datatypes.Message {
	return datatypes.Message{
		Body: "hello world",
		Link: "https://example.com/issues/1",
	}
}

// TestProcessStoresOneFinding verifies exactly one finding per message
// with the checker's state.
func TestProcessStoresOneFinding(t *testing.T) {
	findings := store.New(10)
	p := newTestPipeline(t, &stubChecker{state: datatypes.StateViolation}, findings, nil)

	if err := p.Process(context.Background(), validMessage()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if findings.Count() != 1 {
		t.Fatalf("store holds %d findings, want 1", findings.Count())
	}
	f := findings.FindAll()[0]
	if f.State != datatypes.StateViolation {
		t.Errorf("finding state = %v, want VIOLATION", f.State)
	}
	if f.ID == "" {
		t.Error("finding should have an id")
	}
}

// TestProcessRejectsEmptyMessage verifies the boundary precondition.
func TestProcessRejectsEmptyMessage(t *testing.T) {
	findings := store.New(10)
	p := newTestPipeline(t, &stubChecker{}, findings, nil)

	cases := []datatypes.Message{
		{},
		{Body: "text"},
		{Link: "https://example.com"},
	}
	for _, msg := range cases {
		if err := p.Process(context.Background(), msg); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("Process(%+v) = %v, want ErrEmptyMessage", msg, err)
		}
	}
	if findings.Count() != 0 {
		t.Error("rejected messages must not be stored")
	}
}

// TestProcessFailsClosed verifies that a classification error drops the
// message: no finding, no sink delivery, nil return.
func TestProcessFailsClosed(t *testing.T) {
	findings := store.New(10)
	sink := &recordingSink{name: "a"}
	p := newTestPipeline(t, &stubChecker{err: &checker.ClassificationError{Checker: "stub", Err: errors.New("backend down")}},
		findings, []sinks.ResultSink{sink})

	if err := p.Process(context.Background(), validMessage()); err != nil {
		t.Errorf("classification errors must not surface, got %v", err)
	}
	if findings.Count() != 0 {
		t.Error("failed classification must not be stored")
	}
	if sink.calls != 0 {
		t.Error("failed classification must not reach sinks")
	}
}

// TestSinkIsolation verifies that a failing middle sink does not stop
// the other sinks: each is invoked exactly once and Process returns nil.
func TestSinkIsolation(t *testing.T) {
	findings := store.New(10)
	first := &recordingSink{name: "first"}
	second := &recordingSink{name: "second", fail: true}
	third := &recordingSink{name: "third"}
	p := newTestPipeline(t, &stubChecker{state: datatypes.StateNone}, findings,
		[]sinks.ResultSink{first, second, third})

	if err := p.Process(context.Background(), validMessage()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Errorf("sink calls = %d/%d/%d, want 1/1/1", first.calls, second.calls, third.calls)
	}
}

// TestSinkPanicIsolation verifies the recover boundary around each sink.
func TestSinkPanicIsolation(t *testing.T) {
	findings := store.New(10)
	first := &recordingSink{name: "first", panicky: true}
	second := &recordingSink{name: "second"}
	p := newTestPipeline(t, &stubChecker{state: datatypes.StateNone}, findings,
		[]sinks.ResultSink{first, second})

	if err := p.Process(context.Background(), validMessage()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if second.calls != 1 {
		t.Errorf("sink after a panicking sink was called %d times, want 1", second.calls)
	}
}

// TestNewValidation verifies constructor preconditions and that a
// sink-less pipeline is allowed.
func TestNewValidation(t *testing.T) {
	findings := store.New(10)
	if _, err := New(nil, findings, nil); err == nil {
		t.Error("expected error for nil checker")
	}
	if _, err := New(&stubChecker{}, nil, nil); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := New(&stubChecker{}, findings, nil); err != nil {
		t.Errorf("zero sinks should be valid, got %v", err)
	}
}
