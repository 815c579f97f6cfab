// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/openelements/conduct-guardian/services/guardian/analysis"
	"github.com/openelements/conduct-guardian/services/guardian/coc"
	"github.com/openelements/conduct-guardian/services/guardian/handlers"
	"github.com/openelements/conduct-guardian/services/guardian/pipeline"
	"github.com/openelements/conduct-guardian/services/guardian/query"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps bundles everything the route table needs.
type Deps struct {
	Pipeline       *pipeline.Pipeline
	Query          *query.Service
	Analysis       *analysis.Engine
	GitHubProvider *coc.GitHubProvider // may be nil
	ConfigProbe    handlers.ConfigProbe
	EnableMetrics  bool
}

// SetupRoutes registers all HTTP routes on the router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck)
	if deps.EnableMetrics {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Webhook boundary
	router.POST("/github/webhook", handlers.HandleGitHubWebhook(deps.Pipeline))
	router.POST("/github/coc-webhook", handlers.HandleCocWebhook(deps.GitHubProvider))

	// API version 1 group
	v1 := router.Group("/api/v1")
	{
		findings := v1.Group("/findings")
		{
			findings.GET("", handlers.HandleListFindings(deps.Query))
			findings.GET("/:id", handlers.HandleGetFinding(deps.Query))
		}
		analysisGroup := v1.Group("/analysis")
		{
			analysisGroup.GET("", handlers.HandleGetAnalysis(deps.Analysis))
			analysisGroup.GET("/trends", handlers.HandleGetTrends(deps.Analysis))
		}
		config := v1.Group("/config")
		{
			config.GET("", handlers.HandleGetConfig(deps.ConfigProbe))
			config.GET("/integrations", handlers.HandleGetIntegrations(deps.ConfigProbe))
			config.POST("/validate", handlers.HandleValidateConfig(deps.ConfigProbe))
		}
	}
}
