// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	"github.com/openelements/conduct-guardian/services/guardian/query"
)

// maxPageSize is the externally enforced page size ceiling.
const maxPageSize = 100

// listParams are the query parameters of the findings list endpoint.
// Defaults: page=0, size=20, sortBy=timestamp, sortDir=desc.
type listParams struct {
	Page           int    `form:"page,default=0"`
	Size           int    `form:"size,default=20"`
	SortBy         string `form:"sortBy,default=timestamp"`
	SortDir        string `form:"sortDir,default=desc"`
	ViolationState string `form:"violationState"`
	Severity       string `form:"severity"`
	StartDate      string `form:"startDate"`
	EndDate        string `form:"endDate"`
}

// HandleListFindings serves the paginated, filtered finding list.
// Out-of-range paging parameters are clamped at this boundary; the query
// service assumes validated inputs.
func HandleListFindings(svc *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params listParams
		if err := c.BindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
			return
		}
		if params.Page < 0 {
			params.Page = 0
		}
		if params.Size <= 0 || params.Size > maxPageSize {
			params.Size = 20
		}

		var filter query.Filter
		if params.ViolationState != "" {
			state, err := datatypes.ParseViolationState(params.ViolationState)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			filter.State = &state
		}
		filter.Severity = params.Severity

		if params.StartDate != "" {
			start, err := time.Parse(time.RFC3339, params.StartDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "startDate must be RFC3339"})
				return
			}
			filter.StartDate = &start
		}
		if params.EndDate != "" {
			end, err := time.Parse(time.RFC3339, params.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "endDate must be RFC3339"})
				return
			}
			filter.EndDate = &end
		}

		c.JSON(http.StatusOK, svc.GetPage(params.Page, params.Size, params.SortBy, params.SortDir, filter))
	}
}

// HandleGetFinding serves a single finding by id.
func HandleGetFinding(svc *query.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		dto, ok := svc.GetByID(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "finding not found"})
			return
		}
		c.JSON(http.StatusOK, dto)
	}
}
