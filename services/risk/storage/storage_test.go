// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func sampleAssessment(companyID, assessmentID string, ts time.Time) *datatypes.ComprehensiveAssessment {
	score := func(riskType datatypes.RiskType, value float64) datatypes.RiskScore {
		return datatypes.NewRiskScore(riskType, value, []string{"test factor"}, 0.8)
	}
	return &datatypes.ComprehensiveAssessment{
		CompanyID:        companyID,
		CreditRisk:       score(datatypes.RiskTypeCredit, 0.4),
		MarketRisk:       score(datatypes.RiskTypeMarket, 0.3),
		OperationalRisk:  score(datatypes.RiskTypeOperational, 0.2),
		ComplianceRisk:   score(datatypes.RiskTypeCompliance, 0.1),
		OverallRiskScore: 0.275,
		OverallRiskLevel: datatypes.RiskLevelLow,
		Recommendations:  []string{},
		AssessmentID:     assessmentID,
		Timestamp:        ts,
	}
}

func TestOpen_PersistentRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestSaveAndLatestRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	saved := sampleAssessment("ACME", "RA-20260101000000-abcd1234", time.Now().UTC())
	require.NoError(t, store.SaveAssessment(ctx, saved))

	got, err := store.LatestAssessment(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, saved.AssessmentID, got.AssessmentID)
	assert.Equal(t, saved.CreditRisk.Score, got.CreditRisk.Score)
	assert.Equal(t, saved.OverallRiskLevel, got.OverallRiskLevel)
}

func TestLatestAssessment_UnknownCompany(t *testing.T) {
	store := openTestStore(t)

	_, err := store.LatestAssessment(context.Background(), "GHOST")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestAssessment_ReturnsNewest(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 3; i++ {
		a := sampleAssessment("ACME", fmt.Sprintf("RA-%d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.SaveAssessment(ctx, a))
	}

	got, err := store.LatestAssessment(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, "RA-2", got.AssessmentID)
}

func TestAssessmentHistory_NewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		a := sampleAssessment("ACME", fmt.Sprintf("RA-%d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.SaveAssessment(ctx, a))
	}

	history, err := store.AssessmentHistory(ctx, "ACME", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "RA-4", history[0].AssessmentID)
	assert.Equal(t, "RA-3", history[1].AssessmentID)
	assert.Equal(t, "RA-2", history[2].AssessmentID)
}

func TestAssessmentHistory_CompaniesAreIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.SaveAssessment(ctx, sampleAssessment("ACME", "RA-acme", now)))
	require.NoError(t, store.SaveAssessment(ctx, sampleAssessment("GLOBEX", "RA-globex", now)))

	history, err := store.AssessmentHistory(ctx, "ACME", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "RA-acme", history[0].AssessmentID)
}

func TestSaveAssessment_CanceledContext(t *testing.T) {
	store := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.SaveAssessment(ctx, sampleAssessment("ACME", "RA-x", time.Now().UTC()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveAssessment_NilAssessment(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.SaveAssessment(context.Background(), nil))
}

func TestAssessmentByID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("RA-2026010100000%d-abcd123%d", i, i)
		a := sampleAssessment("ACME", id, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.SaveAssessment(ctx, a))
	}

	got, err := store.AssessmentByID(ctx, "ACME", "RA-20260101000002-abcd1232")
	require.NoError(t, err)
	assert.Equal(t, "RA-20260101000002-abcd1232", got.AssessmentID)

	_, err = store.AssessmentByID(ctx, "ACME", "RA-20260101000009-ffffffff")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.AssessmentByID(ctx, "GLOBEX", "RA-20260101000002-abcd1232")
	assert.ErrorIs(t, err, ErrNotFound)
}
