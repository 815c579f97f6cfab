// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package coc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	"github.com/openelements/conduct-guardian/services/guardian/github"
	"github.com/openelements/conduct-guardian/services/guardian/observability"
)

// commonFilenames lists candidate code of conduct paths in priority order.
var commonFilenames = []string{
	"CODE_OF_CONDUCT.md",
	"CODE_OF_CONDUCT.txt",
	"CODE_OF_CONDUCT",
	"CODE-OF-CONDUCT.md",
	"code-of-conduct.md",
	"code_of_conduct.md",
	"CONDUCT.md",
	"CONDUCT.txt",
}

// DefaultCacheTTL is how long a resolved document is served from cache
// before the repository is probed again.
const DefaultCacheTTL = 60 * time.Minute

// cacheEntry holds a resolved document and its expiry, keyed by format.
type cacheEntry struct {
	content   string
	expiresAt time.Time
}

// GitHubProvider resolves the code of conduct by probing a repository
// over branches and candidate filenames:
//
//	owner/repo @ main, owner/repo @ master,
//	owner/.github @ main, owner/.github @ master,
//
// each over the common filename list. The first decodable hit wins. A
// miss continues the search; a transport error is logged and continues
// the search too, so one flaky probe does not abort resolution.
//
// Resolved text is cached per requested format with a time bound. The
// cache is consulted by both Supports and Text, and can be invalidated
// externally via ClearCache when the upstream document changes.
//
// # Thread Safety
//
// Safe for concurrent use. Two callers racing on a cold cache may both
// fetch; the duplicate refresh is benign.
type GitHubProvider struct {
	fetcher github.ContentFetcher
	owner   string
	repo    string
	ttl     time.Duration
	clock   Clock

	mu    sync.RWMutex
	cache map[datatypes.TextFormat]cacheEntry
}

// NewGitHubProvider creates a repository-search provider. A ttl of zero
// uses DefaultCacheTTL; a nil clock uses the system clock.
func NewGitHubProvider(fetcher github.ContentFetcher, owner, repo string, ttl time.Duration, clock Clock) (*GitHubProvider, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher must not be nil")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo must not be blank")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = SystemClock()
	}
	slog.Info("Initialized GitHub code of conduct provider",
		"owner", owner,
		"repo", repo,
		"cache_ttl", ttl.String())
	return &GitHubProvider{
		fetcher: fetcher,
		owner:   owner,
		repo:    repo,
		ttl:     ttl,
		clock:   clock,
		cache:   make(map[datatypes.TextFormat]cacheEntry),
	}, nil
}

// Supports reports whether a document can be resolved for the format. A
// warm cache answers without network; a cold cache performs the search
// and primes the cache on success.
func (p *GitHubProvider) Supports(ctx context.Context, format datatypes.TextFormat) bool {
	if _, ok := p.cached(format); ok {
		return true
	}
	_, err := p.resolve(ctx, format)
	return err == nil
}

// Text returns the resolved document for the format, serving from cache
// before expiry. Returns an error wrapping ErrNotFound when the whole
// branch and filename search space is exhausted.
func (p *GitHubProvider) Text(ctx context.Context, format datatypes.TextFormat) (string, error) {
	if content, ok := p.cached(format); ok {
		countCacheLookup("hit")
		return content, nil
	}
	countCacheLookup("miss")
	return p.resolve(ctx, format)
}

// ClearCache drops all cached documents, forcing re-resolution on the
// next access. Called by the webhook handler when the upstream code of
// conduct file changes.
func (p *GitHubProvider) ClearCache() {
	p.mu.Lock()
	p.cache = make(map[datatypes.TextFormat]cacheEntry)
	p.mu.Unlock()
	slog.Info("GitHub code of conduct cache cleared", "owner", p.owner, "repo", p.repo)
}

// ExpireNow forces every cache entry's expiry into the past. Test hook.
func (p *GitHubProvider) ExpireNow() {
	p.mu.Lock()
	defer p.mu.Unlock()
	past := p.clock.Now().Add(-time.Second)
	for format, entry := range p.cache {
		entry.expiresAt = past
		p.cache[format] = entry
	}
}

// cached returns the unexpired cache entry for the format, if any.
func (p *GitHubProvider) cached(format datatypes.TextFormat) (string, bool) {
	p.mu.RLock()
	entry, ok := p.cache[format]
	p.mu.RUnlock()
	if !ok || p.clock.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.content, true
}

// resolve walks the branch x filename search space and caches the first
// hit under the requested format.
func (p *GitHubProvider) resolve(ctx context.Context, format datatypes.TextFormat) (string, error) {
	type target struct {
		repo   string
		branch string
	}
	targets := []target{
		{p.repo, "main"},
		{p.repo, "master"},
		{".github", "main"},
		{".github", "master"},
	}

	for _, t := range targets {
		for _, filename := range commonFilenames {
			file, err := p.fetcher.FetchRepositoryFile(ctx, p.owner, t.repo, filename, t.branch)
			if err != nil {
				slog.Info("Code of conduct probe failed, continuing search",
					"owner", p.owner,
					"repo", t.repo,
					"path", filename,
					"branch", t.branch,
					"error", err)
				continue
			}
			if file == nil {
				slog.Debug("Code of conduct file not found",
					"owner", p.owner,
					"repo", t.repo,
					"path", filename,
					"branch", t.branch)
				continue
			}
			slog.Info("Code of conduct file found",
				"owner", p.owner,
				"repo", t.repo,
				"path", filename,
				"branch", t.branch)
			p.store(format, file.Content)
			return file.Content, nil
		}
	}

	return "", fmt.Errorf("no code of conduct in %s/%s or %s/.github: %w", p.owner, p.repo, p.owner, ErrNotFound)
}

// store caches content for the format with a fresh expiry.
func (p *GitHubProvider) store(format datatypes.TextFormat, content string) {
	p.mu.Lock()
	p.cache[format] = cacheEntry{
		content:   content,
		expiresAt: p.clock.Now().Add(p.ttl),
	}
	p.mu.Unlock()
}

func countCacheLookup(result string) {
	if m := observability.Metrics(); m != nil {
		m.CocCacheTotal.WithLabelValues(result).Inc()
	}
}

var _ Provider = (*GitHubProvider)(nil)
