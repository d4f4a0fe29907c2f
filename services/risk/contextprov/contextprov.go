// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package contextprov retrieves company background text for an
// assessment from the vector store.
//
// # Description
//
// The pipeline asks the provider for background once per assessment,
// before any agent runs. Retrieval is best effort: the pipeline treats
// a provider error as a degraded retrieval, records it, and continues
// with an empty background. A missing or unreachable vector store must
// never fail an assessment.
package contextprov

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jinterlante1206/AleutianRisk/services/risk/observability"
)

// tracer is the OpenTelemetry tracer for context retrieval.
var tracer = otel.Tracer("aleutianrisk.contextprov")

// DefaultTopK is the number of document chunks retrieved per query.
const DefaultTopK = 5

// DefaultTimeout bounds one retrieval round trip (embedding plus
// vector search).
const DefaultTimeout = 10 * time.Second

// Provider retrieves background text for a company.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Retrieve returns background text for the company, or an error
	// when the store is unreachable. Callers degrade on error; they
	// must not abort the assessment.
	Retrieve(ctx context.Context, companyID string) (string, error)
}

// Noop is a Provider that always returns empty background. Used when
// no vector store is configured.
type Noop struct{}

// Retrieve implements the Provider interface.
func (Noop) Retrieve(context.Context, string) (string, error) { return "", nil }

// Config tunes the Weaviate provider.
type Config struct {
	// TopK is the number of chunks to retrieve. Zero means DefaultTopK.
	TopK int

	// Timeout bounds one retrieval. Zero means DefaultTimeout.
	Timeout time.Duration
}

// WeaviateProvider retrieves background via nearVector search over the
// RiskDocument class.
type WeaviateProvider struct {
	client   *weaviate.Client
	embedder Embedder
	config   Config
	metrics  *observability.RiskMetrics
}

// NewWeaviateProvider builds a provider over the given client and
// embedder.
func NewWeaviateProvider(client *weaviate.Client, embedder Embedder, config Config) *WeaviateProvider {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &WeaviateProvider{
		client:   client,
		embedder: embedder,
		config:   config,
		metrics:  observability.InitMetrics(),
	}
}

// riskDocumentQueryResponse mirrors the GraphQL Get response shape for
// the RiskDocument class.
type riskDocumentQueryResponse struct {
	Get struct {
		RiskDocument []struct {
			Content    string `json:"content"`
			Source     string `json:"source"`
			Additional struct {
				Certainty float64 `json:"certainty"`
			} `json:"_additional"`
		} `json:"RiskDocument"`
	} `json:"Get"`
}

// Retrieve implements the Provider interface.
//
// # Description
//
//	Embeds a fixed risk-assessment query for the company, runs a
//	nearVector search restricted to the company's documents, and joins
//	the retrieved chunks with blank lines.
func (p *WeaviateProvider) Retrieve(ctx context.Context, companyID string) (string, error) {
	ctx, span := tracer.Start(ctx, "contextprov.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("company.id", companyID))

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	p.metrics.RecordContextQuery()

	query := fmt.Sprintf(
		"Financial risk assessment for company %s including credit, market, operational, and compliance risks",
		companyID)
	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed context query: %w", err)
	}

	companyFilter := filters.Where().
		WithPath([]string{"company_id"}).
		WithOperator(filters.Equal).
		WithValueString(companyID)

	nearVector := p.client.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "certainty"},
		}},
	}

	result, err := p.client.GraphQL().Get().
		WithClassName(RiskDocumentClass).
		WithFields(fields...).
		WithWhere(companyFilter).
		WithNearVector(nearVector).
		WithLimit(p.config.TopK).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("weaviate search failed: %w", err)
	}

	parsed, err := parseRiskDocuments(result)
	if err != nil {
		return "", fmt.Errorf("failed to parse search results: %w", err)
	}

	chunks := make([]string, 0, len(parsed.Get.RiskDocument))
	for _, doc := range parsed.Get.RiskDocument {
		if doc.Content != "" {
			chunks = append(chunks, doc.Content)
		}
	}
	span.SetAttributes(attribute.Int("documents.count", len(chunks)))
	return strings.Join(chunks, "\n\n"), nil
}

// parseRiskDocuments converts the dynamic GraphQL response into the
// typed shape above.
func parseRiskDocuments(resp *models.GraphQLResponse) (*riskDocumentQueryResponse, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}
	var result riskDocumentQueryResponse
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}
	return &result, nil
}
