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
	"github.com/openelements/conduct-guardian/services/guardian/analysis"
)

// HandleGetAnalysis serves the full aggregate analysis. Never fails;
// an empty store yields a zeroed summary.
func HandleGetAnalysis(engine *analysis.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.Generate())
	}
}

// HandleGetTrends serves the condensed trend summary.
func HandleGetTrends(engine *analysis.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.GenerateTrendSummary())
	}
}
