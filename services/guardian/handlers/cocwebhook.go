// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openelements/conduct-guardian/services/guardian/coc"
)

// pushPayload holds the file lists of a push event's commits.
type pushPayload struct {
	Commits []struct {
		Added    []string `json:"added"`
		Modified []string `json:"modified"`
	} `json:"commits"`
}

// HandleCocWebhook invalidates the GitHub code of conduct cache when a
// push event touches a code-of-conduct-named file, so the next check
// re-resolves the document. Provider may be nil when the GitHub source
// is not configured.
func HandleCocWebhook(provider *coc.GitHubProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventType := c.GetHeader(eventHeader)
		if provider == nil {
			slog.Warn("Received code of conduct webhook but no GitHub provider is configured")
			c.Status(http.StatusNoContent)
			return
		}
		if eventType != "push" {
			slog.Debug("Ignoring non-push event on code of conduct webhook", "event", eventType)
			c.Status(http.StatusNoContent)
			return
		}

		var payload pushPayload
		if err := c.BindJSON(&payload); err != nil {
			slog.Error("Failed to parse push payload", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid push payload"})
			return
		}

		for _, commit := range payload.Commits {
			if anyCocFile(commit.Added) || anyCocFile(commit.Modified) {
				slog.Info("Code of conduct file was modified, clearing cache")
				provider.ClearCache()
				c.Status(http.StatusNoContent)
				return
			}
		}

		slog.Debug("Push event did not touch a code of conduct file")
		c.Status(http.StatusNoContent)
	}
}

// anyCocFile reports whether any path looks like a code of conduct file.
func anyCocFile(paths []string) bool {
	for _, path := range paths {
		name := strings.ToLower(path)
		if strings.Contains(name, "code_of_conduct") ||
			strings.Contains(name, "code-of-conduct") ||
			strings.Contains(name, "codeofconduct") ||
			name == "conduct.md" ||
			name == "conduct.txt" {
			return true
		}
	}
	return false
}
