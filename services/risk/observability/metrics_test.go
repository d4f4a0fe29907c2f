// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for pipeline metrics.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetrics_Idempotent(t *testing.T) {
	first := InitMetrics()
	second := InitMetrics()
	require.NotNil(t, first)
	assert.Same(t, first, second)
}

func TestHelpers_RecordThroughLabels(t *testing.T) {
	m := InitMetrics()

	before := testutil.ToFloat64(m.AgentRequestsTotal.WithLabelValues("credit"))
	m.RecordAgentRequest("credit")
	after := testutil.ToFloat64(m.AgentRequestsTotal.WithLabelValues("credit"))
	assert.Equal(t, before+1, after)

	m.SetRiskScore("overall", 0.42)
	assert.Equal(t, 0.42, testutil.ToFloat64(m.RiskScoreCurrent.WithLabelValues("overall")))

	errBefore := testutil.ToFloat64(m.SystemErrorsTotal.WithLabelValues(ComponentCreditReviewer))
	m.RecordError(ComponentCreditReviewer)
	assert.Equal(t, errBefore+1,
		testutil.ToFloat64(m.SystemErrorsTotal.WithLabelValues(ComponentCreditReviewer)))
}
