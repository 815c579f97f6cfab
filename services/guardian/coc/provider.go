// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package coc sources the text of the governing code of conduct document.
//
// Providers form a chain of responsibility: a composite tries an ordered
// list of providers (local file, GitHub repository search) and falls back
// to a bundled default that never fails. The GitHub provider caches the
// resolved document with a time bound and supports external invalidation
// when the upstream document changes.
package coc

import (
	"context"
	"errors"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// ErrNotFound reports that no code of conduct text is resolvable for the
// requested format.
var ErrNotFound = errors.New("code of conduct not found")

// Provider supplies the governing code of conduct text in a requested
// format.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use; checkers consult the
// provider on every classification.
type Provider interface {
	// Supports reports whether the provider can supply text in the given
	// format. A false return is not an error.
	Supports(ctx context.Context, format datatypes.TextFormat) bool

	// Text returns the code of conduct in the given format. Returns an
	// error wrapping ErrNotFound when the format is unsupported or the
	// document cannot be resolved.
	Text(ctx context.Context, format datatypes.TextFormat) (string, error)
}
