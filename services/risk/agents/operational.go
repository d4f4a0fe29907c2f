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

// OperationalAgent scores operational risk from IT stability, workforce,
// process quality, supplier concentration, and security incidents.
type OperationalAgent struct {
	table   rules.Table
	metrics *observability.RiskMetrics
}

// NewOperationalAgent builds the operational agent.
func NewOperationalAgent() *OperationalAgent {
	return &OperationalAgent{
		table:   operationalTable(),
		metrics: observability.InitMetrics(),
	}
}

func operationalTable() rules.Table {
	return rules.Table{Ladders: []rules.Ladder{
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetSystemDowntimeHours() > 100
			}, 0.2, "Significant IT system downtime"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetSystemDowntimeHours() > 50
			}, 0.1, "Moderate IT system issues"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetEmployeeTurnoverRate() > 0.25
			}, 0.15, "High employee turnover"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetEmployeeTurnoverRate() > 0.15
			}, 0.08, "Above-average employee turnover"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetProcessErrorRate() > 0.05
			}, 0.2, "High process error rate"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetProcessErrorRate() > 0.02
			}, 0.1, "Moderate process errors"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetTopSupplierConcentration() > 0.5
			}, 0.25, "High supplier concentration risk"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetTopSupplierConcentration() > 0.3
			}, 0.12, "Moderate supplier dependency"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetSecurityIncidentsYear() > 5
			}, 0.3, "Multiple cybersecurity incidents"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetSecurityIncidentsYear() > 2
			}, 0.15, "Some cybersecurity concerns"),
		),
	}}
}

// RiskType implements the Agent interface.
func (a *OperationalAgent) RiskType() datatypes.RiskType { return datatypes.RiskTypeOperational }

// Analyze implements the Agent interface.
func (a *OperationalAgent) Analyze(_ context.Context, state *datatypes.AssessmentContext) (datatypes.RiskScore, error) {
	return instrument(a.metrics, datatypes.RiskTypeOperational, func() (datatypes.RiskScore, error) {
		score, factors := a.table.Evaluate(state)
		return datatypes.NewRiskScore(datatypes.RiskTypeOperational, score, factors, OperationalConfidence), nil
	})
}
