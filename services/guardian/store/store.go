// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store retains classification findings in memory.
//
// The store is bounded: once the configured capacity is reached, every
// insert evicts the oldest finding. History does not survive a restart
// by design.
package store

import (
	"sync"
	"time"

	"github.com/openelements/conduct-guardian/services/guardian/datatypes"
)

// DefaultCapacity is the hard retention bound when none is configured.
const DefaultCapacity = 1000

// FindingStore is a capacity-bounded, newest-first finding store.
//
// # Thread Safety
//
// Safe for concurrent use. Insert and evict happen as one atomic step
// under the lock, so readers never observe more than the capacity and no
// insert is lost under concurrent saves. All read operations return
// snapshot copies, never live references.
type FindingStore struct {
	mu       sync.RWMutex
	findings []datatypes.Finding // newest first
	capacity int
}

// New creates a store with the given capacity. Zero or negative values
// use DefaultCapacity.
func New(capacity int) *FindingStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &FindingStore{
		findings: make([]datatypes.Finding, 0, capacity),
		capacity: capacity,
	}
}

// Save inserts the finding at the newest-first end, evicting the oldest
// entry when the capacity would be exceeded.
func (s *FindingStore) Save(f datatypes.Finding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.findings = append([]datatypes.Finding{f}, s.findings...)
	if len(s.findings) > s.capacity {
		s.findings = s.findings[:s.capacity]
	}
}

// FindAll returns a snapshot of all findings, newest first.
func (s *FindingStore) FindAll() []datatypes.Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]datatypes.Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

// FindByState returns a snapshot of findings with the given state,
// newest first.
func (s *FindingStore) FindByState(state datatypes.ViolationState) []datatypes.Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []datatypes.Finding
	for _, f := range s.findings {
		if f.State == state {
			out = append(out, f)
		}
	}
	return out
}

// FindByDateRange returns findings with a timestamp in [start, end],
// inclusive at both ends, newest first.
func (s *FindingStore) FindByDateRange(start, end time.Time) []datatypes.Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []datatypes.Finding
	for _, f := range s.findings {
		if !f.Timestamp.Before(start) && !f.Timestamp.After(end) {
			out = append(out, f)
		}
	}
	return out
}

// FindByID returns the finding with the given id, if present.
func (s *FindingStore) FindByID(id string) (datatypes.Finding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, f := range s.findings {
		if f.ID == id {
			return f, true
		}
	}
	return datatypes.Finding{}, false
}

// Count returns the number of retained findings.
func (s *FindingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.findings)
}

// Clear removes all findings.
func (s *FindingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findings = s.findings[:0]
}
