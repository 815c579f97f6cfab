// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package coc

import (
	"context"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// defaultCodeOfConduct is a generic code of conduct based on the
// Contributor Covenant, used when no project-specific document resolves.
const defaultCodeOfConduct = `# Code of Conduct

## Our Pledge

We as members, contributors, and leaders pledge to make participation in our
community a harassment-free experience for everyone, regardless of age, body
size, visible or invisible disability, ethnicity, sex characteristics, gender
identity and expression, level of experience, education, socio-economic status,
nationality, personal appearance, race, caste, color, religion, or sexual
identity and orientation.

We pledge to act and interact in ways that contribute to an open, welcoming,
diverse, inclusive, and healthy community.

## Our Standards

Examples of behavior that contributes to a positive environment for our
community include:

* Demonstrating empathy and kindness toward other people
* Being respectful of differing opinions, viewpoints, and experiences
* Giving and gracefully accepting constructive feedback
* Accepting responsibility and apologizing to those affected by our mistakes,
  and learning from the experience
* Focusing on what is best not just for us as individuals, but for the overall
  community

Examples of unacceptable behavior include:

* The use of sexualized language or imagery, and sexual attention or advances of
  any kind
* Trolling, insulting or derogatory comments, and personal or political attacks
* Public or private harassment
* Publishing others' private information, such as a physical or email address,
  without their explicit permission
* Other conduct which could reasonably be considered inappropriate in a
  professional setting

## Enforcement Responsibilities

Community leaders are responsible for clarifying and enforcing our standards of
acceptable behavior and will take appropriate and fair corrective action in
response to any behavior that they deem inappropriate, threatening, offensive,
or harmful.
`

// StaticProvider returns a fixed, bundled code of conduct. It supports
// every format and never fails, so it serves as the guaranteed last
// resort in the composite chain and as a standalone minimal setup.
type StaticProvider struct{}

// NewStaticProvider creates the bundled default provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// Supports always returns true.
func (p *StaticProvider) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	return true
}

// Text returns the bundled document regardless of format.
func (p *StaticProvider) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	return defaultCodeOfConduct, nil
}

var _ Provider = (*StaticProvider)(nil)
