// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"

	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
	"github.com/jinterlante1206/AleutianRisk/services/risk/observability"
	"github.com/jinterlante1206/AleutianRisk/services/risk/rules"
)

// requirementCheck ties a named regulatory regime to the attribute flag
// that records compliance with it.
type requirementCheck struct {
	name      string
	compliant func(*datatypes.FinancialData) bool
	delta     float64
	factor    string
}

// requirementChecks lists the regimes the agent knows how to verify.
// A regime is only checked when the caller names it in the request;
// absence from the request is never treated as a violation.
var requirementChecks = []requirementCheck{
	{
		name:      "SOX",
		compliant: func(f *datatypes.FinancialData) bool { return f.GetSOXCompliant() },
		delta:     0.2,
		factor:    "SOX compliance issues",
	},
	{
		name:      "GDPR",
		compliant: func(f *datatypes.FinancialData) bool { return f.GetGDPRCompliant() },
		delta:     0.15,
		factor:    "GDPR compliance gaps",
	},
	{
		name:      "Basel III",
		compliant: func(f *datatypes.FinancialData) bool { return f.GetBaselCompliant() },
		delta:     0.25,
		factor:    "Basel III non-compliance",
	},
}

// ComplianceAgent scores regulatory and legal risk. Unlike the other
// agents it cannot be expressed as a single rule table because the
// requirement checks depend on which regimes the caller asked about.
type ComplianceAgent struct {
	history    rules.Table
	litigation rules.Table
	metrics    *observability.RiskMetrics
}

// NewComplianceAgent builds the compliance agent.
func NewComplianceAgent() *ComplianceAgent {
	return &ComplianceAgent{
		history:    complianceHistoryTable(),
		litigation: litigationTable(),
		metrics:    observability.InitMetrics(),
	}
}

func complianceHistoryTable() rules.Table {
	return rules.Table{Ladders: []rules.Ladder{
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetRegulatoryViolationsYear() > 3
			}, 0.35, "Multiple regulatory violations"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetRegulatoryViolationsYear() > 1
			}, 0.2, "Some regulatory violations"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetRegulatoryViolationsYear() == 1
			}, 0.1, "Minor regulatory violation"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetComplianceAuditFindings() > 10
			}, 0.25, "Significant compliance audit findings"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetComplianceAuditFindings() > 5
			}, 0.15, "Moderate audit findings"),
		),
	}}
}

func litigationTable() rules.Table {
	return rules.Table{Ladders: []rules.Ladder{
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetPendingLitigation() > 5
			}, 0.2, "Significant pending litigation"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetPendingLitigation() > 2
			}, 0.1, "Some pending litigation"),
		),
	}}
}

// RiskType implements the Agent interface.
func (a *ComplianceAgent) RiskType() datatypes.RiskType { return datatypes.RiskTypeCompliance }

// Analyze implements the Agent interface.
//
// # Description
//
//	Scores in three passes: violation and audit history, then the
//	requirement checks named in the request, then pending litigation.
//	Factors accumulate in that order so the output is deterministic
//	for a given input.
func (a *ComplianceAgent) Analyze(_ context.Context, state *datatypes.AssessmentContext) (datatypes.RiskScore, error) {
	return instrument(a.metrics, datatypes.RiskTypeCompliance, func() (datatypes.RiskScore, error) {
		score, factors := a.history.Evaluate(state)

		for _, req := range state.ComplianceRequirements {
			for _, check := range requirementChecks {
				if req != check.name {
					continue
				}
				if !check.compliant(&state.Financial) {
					score += check.delta
					factors = append(factors, check.factor)
				}
			}
		}

		litScore, litFactors := a.litigation.Evaluate(state)
		score += litScore
		factors = append(factors, litFactors...)

		return datatypes.NewRiskScore(datatypes.RiskTypeCompliance, score, factors, ComplianceConfidence), nil
	})
}
