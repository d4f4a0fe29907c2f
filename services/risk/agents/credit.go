// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
	"github.com/jinterlante1206/AleutianRisk/services/risk/observability"
	"github.com/jinterlante1206/AleutianRisk/services/risk/reviewer"
	"github.com/jinterlante1206/AleutianRisk/services/risk/rules"
)

// ReviewAmplification is applied to the rule-based credit score when the
// narrative review succeeds, before clamping.
const ReviewAmplification = 1.1

// maxBackgroundChars bounds the retrieved background text embedded in
// the review prompt.
const maxBackgroundChars = 1000

// CreditAgent scores credit risk from leverage, liquidity, coverage, and
// growth attributes. It is the only agent that consults the narrative
// reviewer: a successful review amplifies the score by
// ReviewAmplification; a failed review leaves the rule-based score
// unchanged and is recorded as a collaborator error, never surfaced to
// the pipeline.
type CreditAgent struct {
	table    rules.Table
	reviewer reviewer.Reviewer
	metrics  *observability.RiskMetrics
	logger   *slog.Logger
}

// NewCreditAgent builds the credit agent. rev may be nil to disable the
// narrative review entirely (lightweight deployments).
func NewCreditAgent(rev reviewer.Reviewer, logger *slog.Logger) *CreditAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreditAgent{
		table:    creditTable(),
		reviewer: rev,
		metrics:  observability.InitMetrics(),
		logger:   logger,
	}
}

func creditTable() rules.Table {
	return rules.Table{Ladders: []rules.Ladder{
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetDebtToEquity() > 2
			}, 0.3, "High debt-to-equity ratio"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetDebtToEquity() > 1
			}, 0.15, "Moderate debt-to-equity ratio"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetCurrentRatio() < 1
			}, 0.25, "Poor liquidity position"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetCurrentRatio() < 1.5
			}, 0.1, "Moderate liquidity"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetInterestCoverage() < 1.5
			}, 0.25, "Weak interest coverage"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetInterestCoverage() < 3
			}, 0.1, "Moderate interest coverage"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetRevenueGrowth() < -0.1
			}, 0.2, "Declining revenue"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetRevenueGrowth() < 0
			}, 0.1, "Stagnant revenue growth"),
		),
	}}
}

// RiskType implements the Agent interface.
func (a *CreditAgent) RiskType() datatypes.RiskType { return datatypes.RiskTypeCredit }

// Analyze implements the Agent interface.
func (a *CreditAgent) Analyze(ctx context.Context, state *datatypes.AssessmentContext) (datatypes.RiskScore, error) {
	return instrument(a.metrics, datatypes.RiskTypeCredit, func() (datatypes.RiskScore, error) {
		score, factors := a.table.Evaluate(state)

		if a.reviewer != nil {
			prompt := a.buildReviewPrompt(state, score)
			if err := a.reviewer.Review(ctx, prompt); err != nil {
				// Advisory collaborator only: keep the rule-based score.
				a.metrics.RecordError(observability.ComponentCreditReviewer)
				a.logger.Warn("narrative review degraded, keeping rule-based credit score",
					"company_id", state.CompanyID, "error", err)
			} else {
				score *= ReviewAmplification
			}
		}

		return datatypes.NewRiskScore(datatypes.RiskTypeCredit, score, factors, CreditConfidence), nil
	})
}

// buildReviewPrompt embeds the financial attributes, truncated background
// text, and the preliminary rule score into the review request.
func (a *CreditAgent) buildReviewPrompt(state *datatypes.AssessmentContext, prelim float64) string {
	financialJSON, err := json.MarshalIndent(state.Financial, "", "  ")
	if err != nil {
		financialJSON = []byte("{}")
	}
	background := state.Background
	if len(background) > maxBackgroundChars {
		background = background[:maxBackgroundChars]
	}
	return fmt.Sprintf(
		"Analyze credit risk based on:\nFinancial Data: %s\nHistorical Context: %s\n\n"+
			"Provide additional risk factors and adjust the score if needed.\n"+
			"Current preliminary score: %.2f",
		financialJSON, background, prelim)
}
