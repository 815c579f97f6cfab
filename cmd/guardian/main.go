// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command guardian starts the Conduct Guardian HTTP server.
//
// This is the main entry point for the containerized guardian service.
// It reads configuration from environment variables and starts the
// server.
//
// # Environment Variables
//
//   - GUARDIAN_PORT: HTTP server port (default: 8080)
//   - GUARDIAN_CHECKER_BACKEND: conduct checker - keyword, openai (default: keyword)
//   - GUARDIAN_OPENAI_KEY: OpenAI API key (required for the openai checker)
//   - GUARDIAN_OPENAI_MODEL: OpenAI model name (default: gpt-4o-mini)
//   - GUARDIAN_GITHUB_OWNER / GUARDIAN_GITHUB_REPO: repository whose
//     code of conduct governs moderation (optional)
//   - GUARDIAN_GITHUB_TOKEN: GitHub API token (optional)
//   - GUARDIAN_COC_CACHE_TTL: code of conduct cache lifetime (default: 60m)
//   - GUARDIAN_COC_DIR: local directory with code of conduct files (optional)
//   - GUARDIAN_DISCORD_TOKEN / GUARDIAN_DISCORD_CHANNEL: Discord sink (optional)
//   - GUARDIAN_SLACK_TOKEN / GUARDIAN_SLACK_CHANNEL: Slack sink (optional)
//   - GUARDIAN_STORE_CAPACITY: finding store capacity (default: 1000)
//   - GUARDIAN_OTEL_ENDPOINT: OpenTelemetry collector endpoint (optional)
//   - GUARDIAN_ENABLE_METRICS: expose Prometheus /metrics (default: true)
//   - GUARDIAN_LOG_LEVEL: debug, info, warn, error (default: info)
//   - GUARDIAN_LOG_DIR: directory for JSON log files (optional)
//
// # Usage
//
//	# Build
//	go build -o guardian ./cmd/guardian
//
//	# Run
//	GUARDIAN_GITHUB_OWNER=acme GUARDIAN_GITHUB_REPO=widgets ./guardian
package main

import (
	"log"
	"strings"
	"time"

	"github.com/openelements/conduct-guardian/pkg/logging"
	"github.com/openelements/conduct-guardian/services/guardian"
	"github.com/spf13/viper"
)

func main() {
	v := viper.New()
	v.SetEnvPrefix("GUARDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("checker_backend", "keyword")
	v.SetDefault("openai_model", "")
	v.SetDefault("coc_cache_ttl", time.Hour)
	v.SetDefault("store_capacity", 1000)
	v.SetDefault("enable_metrics", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("gin_mode", "release")

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(v.GetString("log_level")),
		LogDir:  v.GetString("log_dir"),
		Service: "guardian",
		JSON:    true,
	})
	defer logger.Close()
	logger.SetAsDefault()

	cfg := guardian.Config{
		Port:           v.GetInt("port"),
		CheckerBackend: v.GetString("checker_backend"),
		OpenAIKey:      v.GetString("openai_key"),
		OpenAIModel:    v.GetString("openai_model"),
		GitHubOwner:    v.GetString("github_owner"),
		GitHubRepo:     v.GetString("github_repo"),
		GitHubToken:    v.GetString("github_token"),
		CocCacheTTL:    v.GetDuration("coc_cache_ttl"),
		CocDir:         v.GetString("coc_dir"),
		DiscordToken:   v.GetString("discord_token"),
		DiscordChannel: v.GetString("discord_channel"),
		SlackToken:     v.GetString("slack_token"),
		SlackChannel:   v.GetString("slack_channel"),
		StoreCapacity:  v.GetInt("store_capacity"),
		OTelEndpoint:   v.GetString("otel_endpoint"),
		EnableMetrics:  v.GetBool("enable_metrics"),
		GinMode:        v.GetString("gin_mode"),
	}

	logger.Info("Starting guardian",
		"port", cfg.Port,
		"checker_backend", cfg.CheckerBackend,
		"github_repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo,
		"metrics_enabled", cfg.EnableMetrics,
	)

	svc, err := guardian.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create guardian: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Guardian error: %v", err)
	}
}
