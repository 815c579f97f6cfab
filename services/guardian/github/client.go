// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package github provides a minimal client for the GitHub repository
// contents API, used to fetch code of conduct documents.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// requestTimeout bounds a single contents-API call so a slow upstream
// cannot stall message processing.
const requestTimeout = 10 * time.Second

// FileContent is the decoded result of a contents-API fetch.
type FileContent struct {
	// Path of the file within the repository.
	Path string

	// Content is the decoded file body.
	Content string
}

// ContentFetcher fetches a single file from a repository at a ref.
//
// A nil FileContent with a nil error means the file does not exist;
// callers continue their search. A non-nil error indicates a transport or
// decode failure.
type ContentFetcher interface {
	FetchRepositoryFile(ctx context.Context, owner, repo, path, ref string) (*FileContent, error)
}

// Client calls the GitHub REST v3 contents API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a contents-API client. The token is optional; when
// empty, requests are unauthenticated and subject to lower rate limits.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		token:      token,
	}
}

// NewClientWithBaseURL creates a client against a non-default API root.
// Used by tests and GitHub Enterprise deployments.
func NewClientWithBaseURL(token, baseURL string) *Client {
	c := NewClient(token)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// contentsResponse mirrors the fields of the contents API we consume.
type contentsResponse struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// FetchRepositoryFile fetches owner/repo/path at ref. Returns (nil, nil)
// on 404 so callers can continue a candidate search without treating a
// miss as an error.
func (c *Client) FetchRepositoryFile(ctx context.Context, owner, repo, path, ref string) (*FileContent, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), path, url.QueryEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building contents request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s/%s/%s@%s: %w", owner, repo, path, ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s/%s/%s@%s: unexpected status %d", owner, repo, path, ref, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading contents response: %w", err)
	}

	var parsed contentsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing contents response: %w", err)
	}
	if parsed.Content == "" {
		return nil, nil
	}

	// The API returns base64 with embedded newlines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(parsed.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decoding content of %s: %w", parsed.Path, err)
	}

	slog.Debug("Fetched repository file", "owner", owner, "repo", repo, "path", path, "ref", ref)
	return &FileContent{Path: parsed.Path, Content: string(decoded)}, nil
}

var _ ContentFetcher = (*Client)(nil)
