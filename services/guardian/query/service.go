// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package query provides filtered, sorted, paginated retrieval of
// findings for external consumption.
package query

import (
	"sort"
	"time"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
	"github.com/openelements/conduct-guardian/services/guardian/store"
)

// Sort field names accepted by GetPage. Unknown names fall back to
// timestamp order.
const (
	SortByTimestamp      = "timestamp"
	SortBySeverity       = "severity"
	SortByViolationState = "violationState"
	SortByTitle          = "title"
)

// SortDirDesc reverses the comparator; any other value is ascending.
const SortDirDesc = "desc"

// Filter narrows the candidate set. Each present field is an exact match
// (state, severity) or an inclusive bound (dates); filters compose with
// logical AND.
type Filter struct {
	State     *datatypes.ViolationState
	Severity  string
	StartDate *time.Time
	EndDate   *time.Time
}

// FindingDTO is the API representation of a finding.
type FindingDTO struct {
	ID        string                   `json:"id"`
	Title     string                   `json:"title,omitempty"`
	Body      string                   `json:"body"`
	Link      string                   `json:"link"`
	State     datatypes.ViolationState `json:"violationState"`
	Reason    string                   `json:"reason"`
	Timestamp time.Time                `json:"timestamp"`
	Severity  string                   `json:"severity"`
}

// PagedResponse is one page of findings plus paging metadata.
type PagedResponse struct {
	Content       []FindingDTO `json:"content"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalElements int          `json:"totalElements"`
	TotalPages    int          `json:"totalPages"`
	First         bool         `json:"first"`
	Last          bool         `json:"last"`
}

// Service reads the finding store. It assumes the caller boundary has
// validated page >= 0 and 0 < size <= the API ceiling.
type Service struct {
	findings *store.FindingStore
}

// NewService creates a query service over the given store.
func NewService(findings *store.FindingStore) *Service {
	return &Service{findings: findings}
}

// GetPage returns the requested page of filtered, sorted findings. A
// page beyond the available range yields an empty content slice with
// correct totals, never an error.
func (s *Service) GetPage(page, size int, sortBy, sortDir string, filter Filter) PagedResponse {
	filtered := s.filter(filter)

	less := comparator(sortBy)
	if sortDir == SortDirDesc {
		inner := less
		less = func(a, b datatypes.Finding) bool { return inner(b, a) }
	}
	sort.SliceStable(filtered, func(i, j int) bool { return less(filtered[i], filtered[j]) })

	total := len(filtered)
	totalPages := (total + size - 1) / size
	start := page * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	content := make([]FindingDTO, 0, end-start)
	for _, f := range filtered[start:end] {
		content = append(content, toDTO(f))
	}

	return PagedResponse{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

// GetByID returns the finding with the given id, if present.
func (s *Service) GetByID(id string) (FindingDTO, bool) {
	f, ok := s.findings.FindByID(id)
	if !ok {
		return FindingDTO{}, false
	}
	return toDTO(f), true
}

// filter applies the AND-composed filter over a store snapshot.
func (s *Service) filter(filter Filter) []datatypes.Finding {
	all := s.findings.FindAll()
	out := make([]datatypes.Finding, 0, len(all))
	for _, f := range all {
		if filter.State != nil && f.State != *filter.State {
			continue
		}
		if filter.Severity != "" && f.Severity != filter.Severity {
			continue
		}
		if filter.StartDate != nil && f.Timestamp.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && f.Timestamp.After(*filter.EndDate) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// comparator returns the ascending ordering for the sort field. Unknown
// fields default to timestamp order.
func comparator(sortBy string) func(a, b datatypes.Finding) bool {
	switch sortBy {
	case SortBySeverity:
		return func(a, b datatypes.Finding) bool { return a.Severity < b.Severity }
	case SortByViolationState:
		return func(a, b datatypes.Finding) bool { return a.State < b.State }
	case SortByTitle:
		return func(a, b datatypes.Finding) bool { return a.Title < b.Title }
	default:
		return func(a, b datatypes.Finding) bool { return a.Timestamp.Before(b.Timestamp) }
	}
}

func toDTO(f datatypes.Finding) FindingDTO {
	return FindingDTO{
		ID:        f.ID,
		Title:     f.Title,
		Body:      f.Body,
		Link:      f.Link,
		State:     f.State,
		Reason:    f.Reason,
		Timestamp: f.Timestamp,
		Severity:  f.Severity,
	}
}
