// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IntegrationStatus exposes which integrations are active. Only booleans
// and model names leave this endpoint; tokens never do.
type IntegrationStatus struct {
	DiscordEnabled bool `json:"discordEnabled"`
	SlackEnabled   bool `json:"slackEnabled"`
	OpenAIEnabled  bool `json:"openaiEnabled"`
	GitHubEnabled  bool `json:"githubCocEnabled"`
	LogEnabled     bool `json:"logEnabled"`
}

// ConfigView is the non-sensitive configuration snapshot served by the
// config endpoint.
type ConfigView struct {
	ApplicationName string `json:"applicationName"`
	CheckerBackend  string `json:"checkerBackend"`
	OpenAIModel     string `json:"openaiModel,omitempty"`
	Integrations    IntegrationStatus
}

// validateRequest selects which integrations a validation call should
// check.
type validateRequest struct {
	CheckOpenAI  bool `json:"checkOpenAI"`
	CheckDiscord bool `json:"checkDiscord"`
	CheckSlack   bool `json:"checkSlack"`
	CheckGitHub  bool `json:"checkGitHub"`
}

// validateResult reports whether the selected integrations are fully
// configured.
type validateResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// ConfigProbe answers configuration questions without exposing secrets.
type ConfigProbe struct {
	View            ConfigView
	HasOpenAIKey    bool
	HasDiscordToken bool
	HasSlackToken   bool
	HasGitHubRepo   bool
}

// HandleGetConfig serves the non-sensitive configuration snapshot.
func HandleGetConfig(probe ConfigProbe) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, probe.View)
	}
}

// HandleGetIntegrations serves the integration status flags.
func HandleGetIntegrations(probe ConfigProbe) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, probe.View.Integrations)
	}
}

// HandleValidateConfig checks that the selected integrations have the
// credentials they need, without echoing any of them.
func HandleValidateConfig(probe ConfigProbe) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid validation request"})
			return
		}

		result := validateResult{Valid: true, Message: "Configuration is valid"}
		switch {
		case req.CheckOpenAI && !probe.HasOpenAIKey:
			result = validateResult{Valid: false, Message: "OpenAI configuration is incomplete"}
		case req.CheckDiscord && !probe.HasDiscordToken:
			result = validateResult{Valid: false, Message: "Discord configuration is incomplete"}
		case req.CheckSlack && !probe.HasSlackToken:
			result = validateResult{Valid: false, Message: "Slack configuration is incomplete"}
		case req.CheckGitHub && !probe.HasGitHubRepo:
			result = validateResult{Valid: false, Message: "GitHub configuration is incomplete"}
		}
		c.JSON(http.StatusOK, result)
	}
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
