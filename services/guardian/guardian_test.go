// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package guardian

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestService(t *testing.T, cfg Config) Service {
	t.Helper()
	cfg.GinMode = gin.TestMode
	svc, err := New(cfg)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return svc
}

// TestServiceWiring verifies that a default configuration assembles a
// working service: health, webhook ingestion, and the read-side API all
// answer through the router.
func TestServiceWiring(t *testing.T) {
	svc := newTestService(t, Config{})
	router := svc.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/github/webhook", strings.NewReader(`{
		"action": "opened",
		"issue": {
			"title": "Angry issue",
			"body": "You are an idiot and a moron",
			"html_url": "https://github.com/acme/widgets/issues/1"
		}
	}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "issues")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("POST /github/webhook = %d, want 202", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/findings", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/v1/findings = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"violationState":"VIOLATION"`) {
		t.Errorf("findings list should contain the stored violation, got: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analysis", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /api/v1/analysis = %d, want 200", w.Code)
	}
}

// TestServiceConfigEndpoint verifies the config endpoint reflects the
// configuration without leaking credentials.
func TestServiceConfigEndpoint(t *testing.T) {
	svc := newTestService(t, Config{
		CheckerBackend: "keyword",
		SlackToken:     "xoxb-secret",
		SlackChannel:   "", // incomplete on purpose: sink stays disabled
	})
	router := svc.Router()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/config", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/config = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if strings.Contains(body, "xoxb-secret") {
		t.Error("config endpoint must not leak tokens")
	}
	if !strings.Contains(body, `"slackEnabled":false`) {
		t.Errorf("half-configured Slack sink should report disabled, got: %s", body)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/config/validate",
		strings.NewReader(`{"checkSlack": true}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/v1/config/validate = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"valid":true`) {
		t.Errorf("validation should pass when the token is present, got: %s", w.Body.String())
	}
}

// TestApplyConfigDefaults verifies defaulting of unset fields.
func TestApplyConfigDefaults(t *testing.T) {
	cfg := applyConfigDefaults(Config{})
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.CheckerBackend != "keyword" {
		t.Errorf("CheckerBackend = %q, want keyword", cfg.CheckerBackend)
	}
	if cfg.StoreCapacity != 1000 {
		t.Errorf("StoreCapacity = %d, want 1000", cfg.StoreCapacity)
	}

	set := applyConfigDefaults(Config{Port: 9000, CheckerBackend: "openai"})
	if set.Port != 9000 || set.CheckerBackend != "openai" {
		t.Error("explicit values must not be overridden")
	}
}

// TestUnknownCheckerBackendFallsBack verifies an unknown backend still
// yields a working service with the keyword checker.
func TestUnknownCheckerBackendFallsBack(t *testing.T) {
	svc := newTestService(t, Config{CheckerBackend: "quantum"})
	w := httptest.NewRecorder()
	svc.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", w.Code)
	}
}

// TestOpenAIBackendRequiresKey verifies construction fails fast when
// the OpenAI backend is selected without a key.
func TestOpenAIBackendRequiresKey(t *testing.T) {
	if _, err := New(Config{CheckerBackend: "openai", GinMode: gin.TestMode}); err == nil {
		t.Error("expected error for openai backend without an API key")
	}
}
