// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command riskserver starts the AleutianRisk assessment HTTP server.
//
// It reads configuration from environment variables and starts the
// server.
//
// # Environment Variables
//
//   - RISK_PORT: HTTP server port (default: 12300)
//   - LLM_BACKEND_TYPE: narrative review provider - openai, ollama, none (default: none)
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL (optional)
//   - EMBEDDING_SERVICE_URL: embedding sidecar URL (required with Weaviate)
//   - RISK_DATA_DIR: BadgerDB directory for assessment persistence (optional)
//   - RISK_PARALLEL_AGENTS: run analysis stages concurrently - true/false (default: false)
//   - RISK_LOG_LEVEL: minimum log level - debug, info, warn, error (default: info)
//   - RISK_LOG_DIR: directory for the JSON log file (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: aleutian-otel-collector:4317)
//
// # Usage
//
//	# Build
//	go build -o riskserver ./cmd/riskserver
//
//	# Run
//	./riskserver
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/jinterlante1206/AleutianRisk/pkg/logging"
	"github.com/jinterlante1206/AleutianRisk/services/risk"
)

func main() {
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(os.Getenv("RISK_LOG_LEVEL")),
		LogDir:  os.Getenv("RISK_LOG_DIR"),
		Service: "riskserver",
		JSON:    true,
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	cfg := risk.Config{
		Port:           getEnvInt("RISK_PORT", 12300),
		LLMBackend:     getEnvString("LLM_BACKEND_TYPE", "none"),
		WeaviateURL:    os.Getenv("WEAVIATE_SERVICE_URL"),
		EmbeddingURL:   os.Getenv("EMBEDDING_SERVICE_URL"),
		OTelEndpoint:   getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "aleutian-otel-collector:4317"),
		DataDir:        os.Getenv("RISK_DATA_DIR"),
		ParallelAgents: getEnvBool("RISK_PARALLEL_AGENTS", false),
	}

	slog.Info("Starting risk server",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"weaviate_url", cfg.WeaviateURL,
		"data_dir", cfg.DataDir,
		"parallel_agents", cfg.ParallelAgents,
	)

	svc, err := risk.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create risk service: %v", err)
	}

	// Run blocks until shutdown
	if err := svc.Run(); err != nil {
		log.Fatalf("Risk service error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the environment variable as bool or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
