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

// MarketAgent scores market risk from volatility, beta, and currency and
// commodity exposure.
type MarketAgent struct {
	table   rules.Table
	metrics *observability.RiskMetrics
}

// NewMarketAgent builds the market agent.
func NewMarketAgent() *MarketAgent {
	return &MarketAgent{
		table:   marketTable(),
		metrics: observability.InitMetrics(),
	}
}

func marketTable() rules.Table {
	return rules.Table{Ladders: []rules.Ladder{
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Market.GetVolatility() > 0.3
			}, 0.25, "High market volatility"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Market.GetVolatility() > 0.2
			}, 0.15, "Moderate market volatility"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Market.GetBeta() > 1.5
			}, 0.2, "High systematic risk (beta > 1.5)"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Market.GetBeta() > 1.2
			}, 0.1, "Above-average systematic risk"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetForeignCurrencyExposure() > 0.5
			}, 0.2, "Significant foreign currency exposure"),
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetForeignCurrencyExposure() > 0.3
			}, 0.1, "Moderate foreign currency exposure"),
		),
		rules.Tiers(
			rules.When(func(c *datatypes.AssessmentContext) bool {
				return c.Financial.GetCommodityExposure() > 0.4
			}, 0.15, "High commodity price risk"),
		),
	}}
}

// RiskType implements the Agent interface.
func (a *MarketAgent) RiskType() datatypes.RiskType { return datatypes.RiskTypeMarket }

// Analyze implements the Agent interface.
func (a *MarketAgent) Analyze(_ context.Context, state *datatypes.AssessmentContext) (datatypes.RiskScore, error) {
	return instrument(a.metrics, datatypes.RiskTypeMarket, func() (datatypes.RiskScore, error) {
		score, factors := a.table.Evaluate(state)
		return datatypes.NewRiskScore(datatypes.RiskTypeMarket, score, factors, MarketConfidence), nil
	})
}
