// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
)

// === Test Helpers ===

func f64(v float64) *float64 { return &v }
func iptr(v int) *int        { return &v }
func bptr(v bool) *bool      { return &v }

func newState(fin *datatypes.FinancialData, mkt *datatypes.MarketData, reqs []string) *datatypes.AssessmentContext {
	if fin == nil {
		fin = &datatypes.FinancialData{}
	}
	return &datatypes.AssessmentContext{
		CompanyID:              "ACME",
		ExecutionID:            "exec-test",
		Financial:              *fin,
		Market:                 mkt,
		ComplianceRequirements: reqs,
	}
}

// fakeReviewer records whether it was consulted and returns a canned error.
type fakeReviewer struct {
	called bool
	prompt string
	err    error
}

func (f *fakeReviewer) Review(_ context.Context, prompt string) error {
	f.called = true
	f.prompt = prompt
	return f.err
}

// === Credit Agent ===

func TestCreditAgent_AllLaddersFire(t *testing.T) {
	state := newState(&datatypes.FinancialData{
		DebtToEquity:     f64(2.5),
		CurrentRatio:     f64(0.8),
		InterestCoverage: f64(1.0),
		RevenueGrowth:    f64(-0.15),
	}, nil, nil)

	score, err := NewCreditAgent(nil, nil).Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, score.Score, 1e-9)
	assert.Equal(t, datatypes.RiskLevelCritical, score.Level)
	assert.Equal(t, []string{
		"High debt-to-equity ratio",
		"Poor liquidity position",
		"Weak interest coverage",
		"Declining revenue",
	}, score.Factors)
	assert.InDelta(t, CreditConfidence, score.Confidence, 1e-9)
}

func TestCreditAgent_EmptyDataIsLowRisk(t *testing.T) {
	score, err := NewCreditAgent(nil, nil).Analyze(context.Background(), newState(nil, nil, nil))
	require.NoError(t, err)

	assert.Zero(t, score.Score)
	assert.Equal(t, datatypes.RiskLevelLow, score.Level)
	assert.Empty(t, score.Factors)
}

func TestCreditAgent_MostSevereTierWins(t *testing.T) {
	state := newState(&datatypes.FinancialData{DebtToEquity: f64(3.0)}, nil, nil)

	score, err := NewCreditAgent(nil, nil).Analyze(context.Background(), state)
	require.NoError(t, err)

	// 3.0 satisfies both the >2 and >1 predicates; only the severe
	// tier may contribute.
	assert.InDelta(t, 0.3, score.Score, 1e-9)
	assert.Equal(t, []string{"High debt-to-equity ratio"}, score.Factors)
}

func TestCreditAgent_ScoreMonotonicInLeverage(t *testing.T) {
	agent := NewCreditAgent(nil, nil)
	prev := -1.0
	for _, de := range []float64{0.5, 1.5, 2.5} {
		state := newState(&datatypes.FinancialData{DebtToEquity: f64(de)}, nil, nil)
		score, err := agent.Analyze(context.Background(), state)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.Score, prev, "debt_to_equity=%v", de)
		prev = score.Score
	}
}

func TestCreditAgent_ReviewSuccessAmplifiesScore(t *testing.T) {
	rev := &fakeReviewer{}
	state := newState(&datatypes.FinancialData{DebtToEquity: f64(1.5)}, nil, nil)

	score, err := NewCreditAgent(rev, nil).Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.True(t, rev.called)
	assert.Contains(t, rev.prompt, "Current preliminary score: 0.15")
	assert.InDelta(t, 0.15*ReviewAmplification, score.Score, 1e-9)
}

func TestCreditAgent_ReviewFailureKeepsRuleScore(t *testing.T) {
	rev := &fakeReviewer{err: errors.New("model unavailable")}
	state := newState(&datatypes.FinancialData{DebtToEquity: f64(1.5)}, nil, nil)

	score, err := NewCreditAgent(rev, nil).Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.True(t, rev.called)
	assert.InDelta(t, 0.15, score.Score, 1e-9)
	assert.Equal(t, []string{"Moderate debt-to-equity ratio"}, score.Factors)
}

func TestCreditAgent_AmplifiedScoreIsClamped(t *testing.T) {
	rev := &fakeReviewer{}
	state := newState(&datatypes.FinancialData{
		DebtToEquity:     f64(2.5),
		CurrentRatio:     f64(0.8),
		InterestCoverage: f64(1.0),
		RevenueGrowth:    f64(-0.15),
	}, nil, nil)

	score, err := NewCreditAgent(rev, nil).Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, score.Score, 1e-9)
	assert.Equal(t, datatypes.RiskLevelCritical, score.Level)
}

// === Market Agent ===

func TestMarketAgent_Ladders(t *testing.T) {
	tests := []struct {
		name        string
		market      *datatypes.MarketData
		fin         *datatypes.FinancialData
		wantScore   float64
		wantFactors []string
	}{
		{
			name:        "high volatility",
			market:      &datatypes.MarketData{Volatility: f64(0.35), Beta: f64(1.0)},
			wantScore:   0.25,
			wantFactors: []string{"High market volatility"},
		},
		{
			name:        "moderate volatility and high beta",
			market:      &datatypes.MarketData{Volatility: f64(0.25), Beta: f64(1.6)},
			wantScore:   0.35,
			wantFactors: []string{"Moderate market volatility", "High systematic risk (beta > 1.5)"},
		},
		{
			name:        "beta defaults to market neutral",
			market:      nil,
			wantScore:   0,
			wantFactors: nil,
		},
		{
			name:      "currency and commodity exposure",
			market:    &datatypes.MarketData{Beta: f64(1.0)},
			fin:       &datatypes.FinancialData{ForeignCurrencyExposure: f64(0.6), CommodityExposure: f64(0.5)},
			wantScore: 0.35,
			wantFactors: []string{
				"Significant foreign currency exposure",
				"High commodity price risk",
			},
		},
	}

	agent := NewMarketAgent()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := agent.Analyze(context.Background(), newState(tt.fin, tt.market, nil))
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, score.Score, 1e-9)
			if tt.wantFactors == nil {
				assert.Empty(t, score.Factors)
			} else {
				assert.Equal(t, tt.wantFactors, score.Factors)
			}
			assert.InDelta(t, MarketConfidence, score.Confidence, 1e-9)
		})
	}
}

// === Operational Agent ===

func TestOperationalAgent_AllLaddersFire(t *testing.T) {
	state := newState(&datatypes.FinancialData{
		SystemDowntimeHours:      f64(150),
		EmployeeTurnoverRate:     f64(0.3),
		ProcessErrorRate:         f64(0.06),
		TopSupplierConcentration: f64(0.6),
		SecurityIncidentsYear:    iptr(6),
	}, nil, nil)

	score, err := NewOperationalAgent().Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, score.Score, 1e-9)
	assert.Equal(t, datatypes.RiskLevelCritical, score.Level)
	assert.Equal(t, []string{
		"Significant IT system downtime",
		"High employee turnover",
		"High process error rate",
		"High supplier concentration risk",
		"Multiple cybersecurity incidents",
	}, score.Factors)
}

func TestOperationalAgent_ModerateTiers(t *testing.T) {
	state := newState(&datatypes.FinancialData{
		SystemDowntimeHours:   f64(60),
		SecurityIncidentsYear: iptr(3),
	}, nil, nil)

	score, err := NewOperationalAgent().Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, score.Score, 1e-9)
	assert.Equal(t, []string{"Moderate IT system issues", "Some cybersecurity concerns"}, score.Factors)
	assert.InDelta(t, OperationalConfidence, score.Confidence, 1e-9)
}

func TestOperationalAgent_EmptyDataIsLowRisk(t *testing.T) {
	score, err := NewOperationalAgent().Analyze(context.Background(), newState(nil, nil, nil))
	require.NoError(t, err)
	assert.Zero(t, score.Score)
	assert.Equal(t, datatypes.RiskLevelLow, score.Level)
}

// === Compliance Agent ===

func TestComplianceAgent_CompositeScenario(t *testing.T) {
	state := newState(&datatypes.FinancialData{
		RegulatoryViolationsYear: iptr(2),
		ComplianceAuditFindings:  iptr(11),
		SOXCompliant:             bptr(false),
		PendingLitigation:        iptr(3),
	}, nil, []string{"SOX"})

	score, err := NewComplianceAgent().Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, score.Score, 1e-9)
	assert.Equal(t, datatypes.RiskLevelHigh, score.Level)
	assert.Equal(t, []string{
		"Some regulatory violations",
		"Significant compliance audit findings",
		"SOX compliance issues",
		"Some pending litigation",
	}, score.Factors)
	assert.InDelta(t, ComplianceConfidence, score.Confidence, 1e-9)
}

func TestComplianceAgent_UnrequestedRegimeIsNotChecked(t *testing.T) {
	// GDPR flag is false, but GDPR was not named in the request, so it
	// must not contribute.
	state := newState(&datatypes.FinancialData{
		GDPRCompliant: bptr(false),
	}, nil, []string{"SOX"})

	score, err := NewComplianceAgent().Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.Zero(t, score.Score)
	assert.Empty(t, score.Factors)
}

func TestComplianceAgent_RequestedCompliantRegimeIsClean(t *testing.T) {
	state := newState(&datatypes.FinancialData{
		SOXCompliant:   bptr(true),
		GDPRCompliant:  bptr(true),
		BaselCompliant: bptr(true),
	}, nil, []string{"SOX", "GDPR", "Basel III"})

	score, err := NewComplianceAgent().Analyze(context.Background(), state)
	require.NoError(t, err)
	assert.Zero(t, score.Score)
	assert.Equal(t, datatypes.RiskLevelLow, score.Level)
}

func TestComplianceAgent_SingleViolationTier(t *testing.T) {
	state := newState(&datatypes.FinancialData{
		RegulatoryViolationsYear: iptr(1),
	}, nil, nil)

	score, err := NewComplianceAgent().Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.InDelta(t, 0.1, score.Score, 1e-9)
	assert.Equal(t, []string{"Minor regulatory violation"}, score.Factors)
}

func TestComplianceAgent_AllRegimesFailing(t *testing.T) {
	state := newState(&datatypes.FinancialData{
		SOXCompliant:   bptr(false),
		GDPRCompliant:  bptr(false),
		BaselCompliant: bptr(false),
	}, nil, []string{"SOX", "GDPR", "Basel III"})

	score, err := NewComplianceAgent().Analyze(context.Background(), state)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, score.Score, 1e-9)
	assert.Equal(t, []string{
		"SOX compliance issues",
		"GDPR compliance gaps",
		"Basel III non-compliance",
	}, score.Factors)
	assert.Equal(t, datatypes.RiskLevelHigh, score.Level)
}

// === Interface Conformance ===

func TestAgents_RiskTypes(t *testing.T) {
	assert.Equal(t, datatypes.RiskTypeCredit, NewCreditAgent(nil, nil).RiskType())
	assert.Equal(t, datatypes.RiskTypeMarket, NewMarketAgent().RiskType())
	assert.Equal(t, datatypes.RiskTypeOperational, NewOperationalAgent().RiskType())
	assert.Equal(t, datatypes.RiskTypeCompliance, NewComplianceAgent().RiskType())
}
