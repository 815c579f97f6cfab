// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package coc

import (
	"context"
	"errors"
	"testing"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// failingSource always supports but never delivers.
type failingSource struct{}

func (s *failingSource) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	return true
}

func (s *failingSource) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	return "", errors.New("backend unavailable")
}

// fixedSource delivers a fixed document.
type fixedSource struct {
	text string
}

func (s *fixedSource) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	return true
}

func (s *fixedSource) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	return s.text, nil
}

// unsupportedSource supports nothing.
type unsupportedSource struct{}

func (s *unsupportedSource) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	return false
}

func (s *unsupportedSource) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	return "", errors.New("should not be called")
}

// panickingSource panics in Supports to exercise the recover boundary.
type panickingSource struct{}

func (s *panickingSource) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	panic("broken provider")
}

func (s *panickingSource) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	panic("broken provider")
}

// TestCompositeRequiresProviders verifies the constructor rejects an
// empty chain.
func TestCompositeRequiresProviders(t *testing.T) {
	if _, err := NewCompositeProvider(); err == nil {
		t.Error("expected error for empty provider list")
	}
}

// TestCompositeFallsBackOnFailure verifies that a failing source is
// skipped and the next succeeding source wins.
func TestCompositeFallsBackOnFailure(t *testing.T) {
	composite, err := NewCompositeProvider(&failingSource{}, &fixedSource{text: "be kind"})
	if err != nil {
		t.Fatalf("NewCompositeProvider returned error: %v", err)
	}

	if !composite.Supports(context.Background(), datatypes.FormatMarkdown) {
		t.Error("Supports should be true when any child supports")
	}
	text, err := composite.Text(context.Background(), datatypes.FormatMarkdown)
	if err != nil {
		t.Fatalf("Text() returned error: %v", err)
	}
	if text != "be kind" {
		t.Errorf("Text() = %q, want succeeding source's document", text)
	}
}

// TestCompositeDefaultLast verifies the standard chain shape: a failing
// source followed by the bundled default still resolves.
func TestCompositeDefaultLast(t *testing.T) {
	composite, err := NewCompositeProvider(&failingSource{}, NewStaticProvider())
	if err != nil {
		t.Fatalf("NewCompositeProvider returned error: %v", err)
	}

	text, err := composite.Text(context.Background(), datatypes.FormatMarkdown)
	if err != nil {
		t.Fatalf("Text() returned error: %v", err)
	}
	if text != defaultCodeOfConduct {
		t.Error("Text() should return the bundled default document")
	}
}

// TestCompositeAllFail verifies the aggregate error wraps the last child
// failure when every child fails.
func TestCompositeAllFail(t *testing.T) {
	composite, err := NewCompositeProvider(&failingSource{}, &failingSource{})
	if err != nil {
		t.Fatalf("NewCompositeProvider returned error: %v", err)
	}

	if _, err := composite.Text(context.Background(), datatypes.FormatMarkdown); err == nil {
		t.Error("expected error when all children fail")
	}
}

// TestCompositeNoSupport verifies that exhausting unsupporting children
// yields ErrNotFound.
func TestCompositeNoSupport(t *testing.T) {
	composite, err := NewCompositeProvider(&unsupportedSource{})
	if err != nil {
		t.Fatalf("NewCompositeProvider returned error: %v", err)
	}

	if composite.Supports(context.Background(), datatypes.FormatHTML) {
		t.Error("Supports should be false when no child supports")
	}
	_, err = composite.Text(context.Background(), datatypes.FormatHTML)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestCompositePanicIsolation verifies that a panicking child is treated
// as unsupporting rather than crashing the chain.
func TestCompositePanicIsolation(t *testing.T) {
	composite, err := NewCompositeProvider(&panickingSource{}, &fixedSource{text: "be kind"})
	if err != nil {
		t.Fatalf("NewCompositeProvider returned error: %v", err)
	}

	text, err := composite.Text(context.Background(), datatypes.FormatPlain)
	if err != nil {
		t.Fatalf("Text() returned error: %v", err)
	}
	if text != "be kind" {
		t.Errorf("Text() = %q, want fallback document", text)
	}
}

// TestStaticProvider verifies the guaranteed-success contract for every
// format.
func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider()
	formats := []datatypes.TextFormat{
		datatypes.FormatPlain, datatypes.FormatMarkdown, datatypes.FormatHTML,
	}
	for _, format := range formats {
		if !p.Supports(context.Background(), format) {
			t.Errorf("Supports(%s) = false, want true", format)
		}
		text, err := p.Text(context.Background(), format)
		if err != nil {
			t.Errorf("Text(%s) returned error: %v", format, err)
		}
		if text == "" {
			t.Errorf("Text(%s) returned empty document", format)
		}
	}
}
