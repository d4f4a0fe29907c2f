// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"fmt"
	"time"
)

// AssessmentContext is the mutable state threaded through the pipeline.
//
// Each stage writes exactly one field and forwards the rest unchanged.
// Score slots are write-once: SetAgentScore rejects a second write so a
// later stage can never corrupt an earlier stage's result. The context is
// owned by a single pipeline run and is not safe for concurrent mutation
// outside the pipeline's own fan-out.
type AssessmentContext struct {
	CompanyID   string
	ExecutionID string

	Financial              FinancialData
	Market                 *MarketData
	ComplianceRequirements []string

	// Background is the advisory text retrieved by the context provider.
	// Empty when retrieval was skipped or degraded.
	Background string

	CreditRisk      *RiskScore
	MarketRisk      *RiskScore
	OperationalRisk *RiskScore
	ComplianceRisk  *RiskScore

	Assessment *ComprehensiveAssessment
}

// SetAgentScore writes the score slot for the given risk type.
//
// Returns an error if the slot was already written or the risk type has
// no slot. The stored value is a copy; callers cannot mutate it later
// through their own reference.
func (c *AssessmentContext) SetAgentScore(score RiskScore) error {
	slot, err := c.slotFor(score.RiskType)
	if err != nil {
		return err
	}
	if *slot != nil {
		return fmt.Errorf("%s score already recorded for company %s", score.RiskType, c.CompanyID)
	}
	stored := score
	*slot = &stored
	return nil
}

// AgentScore returns the recorded score for the given risk type, or nil
// if the stage has not run.
func (c *AssessmentContext) AgentScore(riskType RiskType) *RiskScore {
	slot, err := c.slotFor(riskType)
	if err != nil {
		return nil
	}
	return *slot
}

func (c *AssessmentContext) slotFor(riskType RiskType) (**RiskScore, error) {
	switch riskType {
	case RiskTypeCredit:
		return &c.CreditRisk, nil
	case RiskTypeMarket:
		return &c.MarketRisk, nil
	case RiskTypeOperational:
		return &c.OperationalRisk, nil
	case RiskTypeCompliance:
		return &c.ComplianceRisk, nil
	default:
		return nil, fmt.Errorf("no score slot for risk type %q", riskType)
	}
}

// ScoresComplete reports whether all four agent slots are populated.
func (c *AssessmentContext) ScoresComplete() bool {
	return c.CreditRisk != nil && c.MarketRisk != nil &&
		c.OperationalRisk != nil && c.ComplianceRisk != nil
}

// ComprehensiveAssessment is the immutable final result of one pipeline
// run. It is constructed exactly once by the synthesis stage, persisted
// best-effort afterwards, and never mutated.
type ComprehensiveAssessment struct {
	CompanyID        string    `json:"company_id"`
	CreditRisk       RiskScore `json:"credit_risk"`
	MarketRisk       RiskScore `json:"market_risk"`
	OperationalRisk  RiskScore `json:"operational_risk"`
	ComplianceRisk   RiskScore `json:"compliance_risk"`
	OverallRiskScore float64   `json:"overall_risk_score"`
	OverallRiskLevel RiskLevel `json:"overall_risk_level"`
	Recommendations  []string  `json:"recommendations"`
	AssessmentID     string    `json:"assessment_id"`
	Timestamp        time.Time `json:"timestamp"`
}
