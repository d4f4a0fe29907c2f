// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers contains the HTTP handlers for the risk API.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
	"github.com/jinterlante1206/AleutianRisk/services/risk/observability"
	"github.com/jinterlante1206/AleutianRisk/services/risk/pipeline"
	"github.com/jinterlante1206/AleutianRisk/services/risk/storage"
)

// persistTimeout bounds the background write of a completed assessment.
const persistTimeout = 10 * time.Second

// maxHistoryLimit caps the ?limit query parameter on history reads.
const maxHistoryLimit = 100

// HandleAssess runs one risk assessment.
//
// # Description
//
//	POST /v1/assess. Binds and validates the request, runs the
//	pipeline synchronously, returns the completed assessment, and
//	persists it in the background. A persistence failure is recorded
//	but never affects the response.
//
// # Responses
//
//   - 200: The comprehensive assessment.
//   - 400: Malformed JSON or a request that fails validation. The
//     error message names the offending field.
//   - 500: An analysis stage failed; no partial result is returned.
func HandleAssess(p *pipeline.Pipeline, store *storage.Store) gin.HandlerFunc {
	metrics := observability.InitMetrics()

	return func(c *gin.Context) {
		metrics.RecordAPIRequest("assess")

		var req datatypes.AssessmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Warn("rejected malformed assessment request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request: " + err.Error()})
			return
		}
		if err := req.Validate(); err != nil {
			slog.Warn("rejected invalid assessment request",
				"company_id", req.CompanyID, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		assessment, err := p.Run(c.Request.Context(), &req)
		if err != nil {
			metrics.RecordError(observability.ComponentAPI)
			slog.Error("assessment pipeline failed",
				"company_id", req.CompanyID, "error", err)

			var stageErr *pipeline.StageError
			if errors.As(err, &stageErr) {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "assessment failed",
					"stage": stageErr.Stage,
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "assessment failed"})
			return
		}

		if store != nil {
			go persistAssessment(store, metrics, assessment)
		}
		c.JSON(http.StatusOK, assessment)
	}
}

// persistAssessment writes a completed assessment in the background.
// Runs detached from the request context so a client disconnect cannot
// cancel the write.
func persistAssessment(store *storage.Store, metrics *observability.RiskMetrics, assessment *datatypes.ComprehensiveAssessment) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := store.SaveAssessment(ctx, assessment); err != nil {
		metrics.RecordError(observability.ComponentPersistence)
		slog.Error("failed to persist assessment",
			"assessment_id", assessment.AssessmentID,
			"company_id", assessment.CompanyID,
			"error", err)
		return
	}
	slog.Debug("persisted assessment",
		"assessment_id", assessment.AssessmentID,
		"company_id", assessment.CompanyID)
}

// HandleAssessmentHistory returns stored assessments for a company,
// newest first.
//
// # Description
//
//	GET /v1/assessments/:companyId?limit=N. limit defaults to the
//	store's history limit and is capped at maxHistoryLimit.
//
// # Responses
//
//   - 200: {"company_id": ..., "assessments": [...]}.
//   - 404: The company has no stored assessments.
//   - 503: Persistence is not configured.
func HandleAssessmentHistory(store *storage.Store) gin.HandlerFunc {
	metrics := observability.InitMetrics()

	return func(c *gin.Context) {
		metrics.RecordAPIRequest("assessment_history")

		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence is not configured"})
			return
		}

		companyID := c.Param("companyId")
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = parsed
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		history, err := store.AssessmentHistory(c.Request.Context(), companyID, limit)
		if err != nil {
			metrics.RecordError(observability.ComponentAPI)
			slog.Error("failed to read assessment history",
				"company_id", companyID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read assessment history"})
			return
		}
		if len(history) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no assessments found for company"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"company_id":  companyID,
			"assessments": history,
		})
	}
}

// HealthStatus records which optional collaborators the service
// started with. Missing collaborators degrade the assessment (no
// background, no review, no history) without failing the probe.
type HealthStatus struct {
	ContextRetrieval bool
	NarrativeReview  bool
	Persistence      bool
}

// HealthCheck reports service liveness and collaborator availability.
func HealthCheck(status HealthStatus) gin.HandlerFunc {
	components := gin.H{
		"context_retrieval": componentState(status.ContextRetrieval),
		"narrative_review":  componentState(status.NarrativeReview),
		"persistence":       componentState(status.Persistence),
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"components": components,
		})
	}
}

func componentState(enabled bool) string {
	if enabled {
		return "ok"
	}
	return "degraded"
}
