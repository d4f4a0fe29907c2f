// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agents implements the four risk scoring agents.
//
// # Description
//
// Each agent owns a fixed, hand-tuned rule table over a distinct
// attribute subset and produces one RiskScore per invocation. Agents are
// stateless and pure over their inputs (the credit agent's optional
// narrative review only amplifies, never alters rule results), so they
// are safe to invoke concurrently for different assessment contexts.
//
// Scores accumulate past 1.0 and are clamped, never renormalized. Each
// agent's confidence is a fixed property of the agent, not computed.
package agents

import (
	"context"
	"time"

	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
	"github.com/jinterlante1206/AleutianRisk/services/risk/observability"
)

// Fixed per-agent confidence values.
const (
	CreditConfidence      = 0.85
	MarketConfidence      = 0.80
	OperationalConfidence = 0.75
	ComplianceConfidence  = 0.90
)

// Agent analyzes one risk dimension of an assessment context.
//
// Analyze must not mutate the context; the pipeline records the returned
// score into the context's write-once slot. An error return is fatal to
// the whole pipeline (no partial assessments), so agents reserve it for
// genuine computation failures, never for degraded collaborators.
type Agent interface {
	RiskType() datatypes.RiskType
	Analyze(ctx context.Context, state *datatypes.AssessmentContext) (datatypes.RiskScore, error)
}

// instrument records the invocation count, latency, and current-score
// gauge around one agent run.
func instrument(m *observability.RiskMetrics, riskType datatypes.RiskType,
	run func() (datatypes.RiskScore, error)) (datatypes.RiskScore, error) {

	m.RecordAgentRequest(string(riskType))
	start := time.Now()
	score, err := run()
	m.ObserveAgentDuration(string(riskType), time.Since(start).Seconds())
	if err == nil {
		m.SetRiskScore(string(riskType), score.Score)
	}
	return score, err
}
