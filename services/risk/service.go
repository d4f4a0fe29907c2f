// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package risk wires the assessment pipeline, storage, and HTTP
// surface into a runnable service.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/jinterlante1206/AleutianRisk/services/llm"
	"github.com/jinterlante1206/AleutianRisk/services/risk/agents"
	"github.com/jinterlante1206/AleutianRisk/services/risk/contextprov"
	"github.com/jinterlante1206/AleutianRisk/services/risk/handlers"
	"github.com/jinterlante1206/AleutianRisk/services/risk/observability"
	"github.com/jinterlante1206/AleutianRisk/services/risk/pipeline"
	"github.com/jinterlante1206/AleutianRisk/services/risk/reviewer"
	"github.com/jinterlante1206/AleutianRisk/services/risk/routes"
	"github.com/jinterlante1206/AleutianRisk/services/risk/storage"
	"github.com/jinterlante1206/AleutianRisk/services/risk/synthesis"
)

// serviceName labels traces and gin instrumentation.
const serviceName = "risk-service"

// Config configures the risk service.
type Config struct {
	// Port is the HTTP server port. Default: 12300
	Port int

	// LLMBackend selects the narrative review provider.
	// Valid values: "openai", "ollama", "none". Default: "none"
	// (the credit agent then skips the review entirely).
	LLMBackend string

	// WeaviateURL is the vector database URL for context retrieval.
	// Empty disables retrieval; assessments run with no background.
	WeaviateURL string

	// EmbeddingURL is the embedding sidecar endpoint. Required when
	// WeaviateURL is set.
	EmbeddingURL string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "aleutian-otel-collector:4317"
	OTelEndpoint string

	// DataDir is the BadgerDB directory for assessment persistence.
	// Empty disables persistence; history reads then return 503.
	DataDir string

	// ParallelAgents runs the four analysis stages concurrently.
	ParallelAgents bool

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	GinMode string
}

// Service is the runnable risk assessment server.
type Service interface {
	// Run starts the HTTP server and blocks until it stops.
	Run() error

	// Router exposes the configured engine for integration tests.
	Router() *gin.Engine
}

type service struct {
	config         Config
	router         *gin.Engine
	pipeline       *pipeline.Pipeline
	store          *storage.Store
	weaviateClient *weaviate.Client
	tracerCleanup  func(context.Context)
	health         handlers.HealthStatus
}

// New builds the service: tracing, metrics, the optional Weaviate and
// Badger backends, the LLM reviewer, and the HTTP router.
func New(cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	observability.InitMetrics()

	provider, err := s.initContextProvider()
	if err != nil {
		slog.Warn("Context provider initialization failed, running without background retrieval",
			"error", err)
		provider = contextprov.Noop{}
	}
	_, noRetrieval := provider.(contextprov.Noop)
	s.health.ContextRetrieval = !noRetrieval

	if err := s.initStore(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open assessment store: %w", err)
	}

	rev, err := s.initReviewer()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM reviewer: %w", err)
	}
	s.health.NarrativeReview = rev != nil
	s.health.Persistence = s.store != nil

	synthesizer, err := synthesis.NewSynthesizer()
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize synthesizer: %w", err)
	}

	agentList := []agents.Agent{
		agents.NewCreditAgent(rev, slog.Default()),
		agents.NewMarketAgent(),
		agents.NewOperationalAgent(),
		agents.NewComplianceAgent(),
	}
	s.pipeline, err = pipeline.New(provider, agentList, synthesizer, pipeline.Config{
		Parallel: s.config.ParallelAgents,
	})
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting risk server", "port", s.config.Port)

	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12300
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "none"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "aleutian-otel-collector:4317"
	}
	return cfg
}

// initTracer sets up the OTLP trace exporter against the configured
// collector. Uses an insecure gRPC connection, appropriate for internal
// networks.
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
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
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
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}
	return cleanup, nil
}

// initContextProvider builds the Weaviate-backed provider when a valid
// URL is configured, otherwise a no-op provider.
func (s *service) initContextProvider() (contextprov.Provider, error) {
	// Trim quotes and whitespace in case the container runtime passes
	// them literally.
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("Weaviate URL not configured, running without background retrieval")
		return contextprov.Noop{}, nil
	}
	if s.config.EmbeddingURL == "" {
		return nil, fmt.Errorf("EMBEDDING_SERVICE_URL is required when Weaviate is configured")
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Weaviate client: %w", err)
	}
	s.weaviateClient = client

	if err := contextprov.EnsureSchema(context.Background(), client); err != nil {
		return nil, err
	}
	slog.Info("Weaviate client initialized", "url", weaviateURL)

	embedder := contextprov.NewHTTPEmbedder(s.config.EmbeddingURL)
	return contextprov.NewWeaviateProvider(client, embedder, contextprov.Config{}), nil
}

func (s *service) initStore() error {
	if s.config.DataDir == "" {
		slog.Info("Data directory not configured, assessment persistence disabled")
		return nil
	}
	store, err := storage.Open(storage.DefaultConfig(s.config.DataDir))
	if err != nil {
		return err
	}
	s.store = store
	slog.Info("Assessment store opened", "path", s.config.DataDir)
	return nil
}

// initReviewer builds the credit agent's narrative reviewer. A nil
// reviewer disables the review without disabling the agent.
func (s *service) initReviewer() (reviewer.Reviewer, error) {
	var client llm.Client
	var err error

	switch s.config.LLMBackend {
	case "openai":
		client, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI reviewer backend")
	case "ollama":
		client, err = llm.NewOllamaClient()
		slog.Info("Using Ollama reviewer backend")
	case "none":
		slog.Info("Narrative review disabled")
		return nil, nil
	default:
		slog.Warn("Unknown LLM backend, narrative review disabled", "backend", s.config.LLMBackend)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return reviewer.NewLLMReviewer(client, reviewer.Config{}), nil
}

func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware(serviceName))

	routes.SetupRoutes(s.router, s.pipeline, s.store, s.health)
}

// cleanup releases resources on Run exit or failed initialization.
func (s *service) cleanup() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("assessment store close error", "error", err)
		}
		s.store = nil
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
