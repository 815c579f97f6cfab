// Copyright (C) 2025 Open Elements (conduct-guardian@open-elements.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package guardian provides the core moderation service.
//
// This package contains the main Service type that coordinates all
// components: HTTP routing, the conduct checker, the code of conduct
// provider chain, the finding store, notification sinks, analytics, and
// observability infrastructure.
//
// # Usage
//
//	cfg := guardian.Config{Port: 8080, CheckerBackend: "keyword"}
//	svc, err := guardian.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package guardian

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openelements/conduct-guardian/services/guardian/analysis"
	"github.com/openelements/conduct-guardian/services/guardian/checker"
	"github.com/openelements/conduct-guardian/services/guardian/coc"
	"github.com/openelements/conduct-guardian/services/guardian/github"
	"github.com/openelements/conduct-guardian/services/guardian/handlers"
	"github.com/openelements/conduct-guardian/services/guardian/observability"
	"github.com/openelements/conduct-guardian/services/guardian/pipeline"
	"github.com/openelements/conduct-guardian/services/guardian/query"
	"github.com/openelements/conduct-guardian/services/guardian/routes"
	"github.com/openelements/conduct-guardian/services/guardian/sinks"
	"github.com/openelements/conduct-guardian/services/guardian/store"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the guardian service.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying gin engine for testing. Callers
	// must not modify routes after construction.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds guardian configuration options. All fields have defaults
// applied by New(); only credentials for enabled integrations are truly
// required.
type Config struct {
	// Port is the HTTP server port. Default: 8080
	Port int

	// CheckerBackend selects the conduct checker.
	// Valid values: "keyword", "openai". Default: "keyword"
	CheckerBackend string

	// OpenAIKey and OpenAIModel configure the OpenAI checker. The key
	// is required when CheckerBackend is "openai".
	OpenAIKey   string
	OpenAIModel string

	// GitHubOwner/GitHubRepo select the repository whose code of
	// conduct governs moderation. When empty, the GitHub provider is
	// disabled and only the file/static providers are used.
	GitHubOwner string
	GitHubRepo  string

	// GitHubToken authenticates contents-API calls. Optional.
	GitHubToken string

	// CocCacheTTL bounds how long a resolved code of conduct is served
	// from cache. Default: 60 minutes.
	CocCacheTTL time.Duration

	// CocDir is a local directory holding CODE_OF_CONDUCT.{txt,md,html}
	// files, tried before the GitHub provider. Optional.
	CocDir string

	// Discord/Slack sink credentials. A sink is enabled when both its
	// token and channel are set.
	DiscordToken   string
	DiscordChannel string
	SlackToken     string
	SlackChannel   string

	// StoreCapacity bounds the finding store. Default: 1000.
	StoreCapacity int

	// OTelEndpoint is the OpenTelemetry collector endpoint. Tracing is
	// disabled when empty.
	OTelEndpoint string

	// EnableMetrics enables the Prometheus /metrics endpoint.
	EnableMetrics bool

	// GinMode sets the gin framework mode ("debug", "release", "test").
	GinMode string
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// All fields are read-only after New() returns; the mutable state lives
// inside the finding store and the code of conduct cache, each safe for
// concurrent use behind its own contract.
type service struct {
	config         Config
	router         *gin.Engine
	pipeline       *pipeline.Pipeline
	findings       *store.FindingStore
	githubProvider *coc.GitHubProvider
	fileProvider   *coc.FileProvider
	tracerCleanup  func(context.Context)
}

// New creates a guardian Service with the given configuration.
//
// Initialization order: defaults, observability, code of conduct
// provider chain, checker, store, sinks, pipeline, router. The provider
// chain always ends in the bundled static document, so a fully
// assembled pipeline can never run without a code of conduct.
func New(cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	if s.config.OTelEndpoint != "" {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	if s.config.EnableMetrics {
		observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics")
	}

	provider, err := s.initProviders()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize code of conduct providers: %w", err)
	}

	conductChecker, err := s.initChecker(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize conduct checker: %w", err)
	}

	s.findings = store.New(s.config.StoreCapacity)

	resultSinks, err := s.initSinks()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize result sinks: %w", err)
	}

	s.pipeline, err = pipeline.New(conductChecker, s.findings, resultSinks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting guardian server", "port", s.config.Port)
	return s.router.Run(addr)
}

// Router returns the underlying gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.CheckerBackend == "" {
		cfg.CheckerBackend = "keyword"
	}
	if cfg.CocCacheTTL == 0 {
		cfg.CocCacheTTL = coc.DefaultCacheTTL
	}
	if cfg.StoreCapacity == 0 {
		cfg.StoreCapacity = store.DefaultCapacity
	}
	return cfg
}

// initProviders assembles the code of conduct chain: local files first,
// then the GitHub repository search, then the bundled default as the
// guaranteed last resort.
func (s *service) initProviders() (coc.Provider, error) {
	var chain []coc.Provider

	if s.config.CocDir != "" {
		fileProvider, err := coc.NewFileProvider(s.config.CocDir)
		if err != nil {
			return nil, err
		}
		s.fileProvider = fileProvider
		chain = append(chain, fileProvider)
	}

	if s.config.GitHubOwner != "" && s.config.GitHubRepo != "" {
		client := github.NewClient(s.config.GitHubToken)
		githubProvider, err := coc.NewGitHubProvider(client,
			s.config.GitHubOwner, s.config.GitHubRepo, s.config.CocCacheTTL, nil)
		if err != nil {
			return nil, err
		}
		s.githubProvider = githubProvider
		chain = append(chain, githubProvider)
	}

	chain = append(chain, coc.NewStaticProvider())
	return coc.NewCompositeProvider(chain...)
}

// initChecker creates the configured conduct checker.
func (s *service) initChecker(provider coc.Provider) (checker.ConductChecker, error) {
	switch s.config.CheckerBackend {
	case "openai":
		slog.Info("Using OpenAI conduct checker")
		return checker.NewOpenAIChecker(s.config.OpenAIKey, s.config.OpenAIModel, provider)
	case "keyword":
		return checker.NewKeywordChecker(), nil
	default:
		slog.Warn("Unknown checker backend, defaulting to keyword", "backend", s.config.CheckerBackend)
		return checker.NewKeywordChecker(), nil
	}
}

// initSinks creates the enabled result sinks. The log sink is always
// on; chat sinks are enabled by their credentials.
func (s *service) initSinks() ([]sinks.ResultSink, error) {
	resultSinks := []sinks.ResultSink{sinks.NewLogSink()}

	if s.config.DiscordToken != "" && s.config.DiscordChannel != "" {
		discord, err := sinks.NewDiscordSink(s.config.DiscordToken, s.config.DiscordChannel)
		if err != nil {
			return nil, err
		}
		resultSinks = append(resultSinks, discord)
	}
	if s.config.SlackToken != "" && s.config.SlackChannel != "" {
		slackSink, err := sinks.NewSlackSink(s.config.SlackToken, s.config.SlackChannel)
		if err != nil {
			return nil, err
		}
		resultSinks = append(resultSinks, slackSink)
	}
	return resultSinks, nil
}

// initTracer initializes OpenTelemetry distributed tracing over an
// insecure gRPC connection, appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("guardian-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}
	return cleanup, nil
}

// initRouter sets up the gin router with middleware and all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	if s.tracerCleanup != nil {
		s.router.Use(otelgin.Middleware("guardian-service"))
	}

	routes.SetupRoutes(s.router, routes.Deps{
		Pipeline:       s.pipeline,
		Query:          query.NewService(s.findings),
		Analysis:       analysis.NewEngine(s.findings),
		GitHubProvider: s.githubProvider,
		ConfigProbe:    s.configProbe(),
		EnableMetrics:  s.config.EnableMetrics,
	})
}

// configProbe builds the non-sensitive configuration view for the
// config endpoints.
func (s *service) configProbe() handlers.ConfigProbe {
	return handlers.ConfigProbe{
		View: handlers.ConfigView{
			ApplicationName: "Conduct Guardian",
			CheckerBackend:  s.config.CheckerBackend,
			OpenAIModel:     s.config.OpenAIModel,
			Integrations: handlers.IntegrationStatus{
				DiscordEnabled: s.config.DiscordToken != "" && s.config.DiscordChannel != "",
				SlackEnabled:   s.config.SlackToken != "" && s.config.SlackChannel != "",
				OpenAIEnabled:  s.config.CheckerBackend == "openai",
				GitHubEnabled:  s.config.GitHubOwner != "" && s.config.GitHubRepo != "",
				LogEnabled:     true,
			},
		},
		HasOpenAIKey:    s.config.OpenAIKey != "",
		HasDiscordToken: s.config.DiscordToken != "",
		HasSlackToken:   s.config.SlackToken != "",
		HasGitHubRepo:   s.config.GitHubOwner != "" && s.config.GitHubRepo != "",
	}
}

// cleanup releases resources when Run() exits.
func (s *service) cleanup() {
	if s.fileProvider != nil {
		if err := s.fileProvider.Close(); err != nil {
			slog.Warn("File provider close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)
