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
	"fmt"
	"log/slog"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// CompositeProvider tries an ordered list of providers and returns the
// first successful result. Child failures are converted to "try next";
// the aggregate fails only when every child fails.
//
// Assemble the chain with the guaranteed-success StaticProvider appended
// last so that Text never fails in a correctly configured pipeline.
type CompositeProvider struct {
	providers []Provider
}

// NewCompositeProvider creates a composite over the given providers in
// priority order. At least one provider is required.
func NewCompositeProvider(providers ...Provider) (*CompositeProvider, error) {
	if len(providers) == 0 {
		return nil, errors.New("at least one provider must be specified")
	}
	slog.Info("Initialized composite code of conduct provider", "providers", len(providers))
	return &CompositeProvider{providers: providers}, nil
}

// Supports returns true if any child supports the format. Child panics
// are swallowed and logged, treated as "does not support".
func (c *CompositeProvider) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	for _, p := range c.providers {
		if supportsSafely(ctx, p, format) {
			return true
		}
	}
	return false
}

// Text tries each child in order. The first child that both supports the
// format and returns text wins. If all children fail, the last error is
// returned wrapped in an aggregate failure.
func (c *CompositeProvider) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	var lastErr error
	for _, p := range c.providers {
		if !supportsSafely(ctx, p, format) {
			continue
		}
		text, err := p.Text(ctx, format)
		if err != nil {
			slog.Warn("Code of conduct provider failed, trying next",
				"provider", fmt.Sprintf("%T", p),
				"format", format.String(),
				"error", err)
			lastErr = err
			continue
		}
		slog.Debug("Resolved code of conduct", "provider", fmt.Sprintf("%T", p))
		return text, nil
	}
	if lastErr != nil {
		return "", fmt.Errorf("all code of conduct providers failed: %w", lastErr)
	}
	return "", fmt.Errorf("no provider supports format %s: %w", format.String(), ErrNotFound)
}

// supportsSafely calls Supports with a recover boundary so a misbehaving
// child cannot take down the chain.
func supportsSafely(ctx context.Context, p Provider, format datatypes.TextFormat) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Code of conduct provider panicked during Supports",
				"provider", fmt.Sprintf("%T", p),
				"panic", r)
			ok = false
		}
	}()
	return p.Supports(ctx, format)
}

var _ Provider = (*CompositeProvider)(nil)
