// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// Tests for the risk API handlers

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinterlante1206/AleutianRisk/services/risk/agents"
	"github.com/jinterlante1206/AleutianRisk/services/risk/contextprov"
	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
	"github.com/jinterlante1206/AleutianRisk/services/risk/pipeline"
	"github.com/jinterlante1206/AleutianRisk/services/risk/storage"
	"github.com/jinterlante1206/AleutianRisk/services/risk/synthesis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// =============================================================================
// Test Helpers
// =============================================================================

func newTestPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	syn, err := synthesis.NewSynthesizer()
	require.NoError(t, err)
	agentList := []agents.Agent{
		agents.NewCreditAgent(nil, nil),
		agents.NewMarketAgent(),
		agents.NewOperationalAgent(),
		agents.NewComplianceAgent(),
	}
	p, err := pipeline.New(contextprov.Noop{}, agentList, syn, pipeline.Config{})
	require.NoError(t, err)
	return p
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(storage.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRouter(t *testing.T, store *storage.Store) *gin.Engine {
	t.Helper()
	router := gin.New()
	router.POST("/v1/assess", HandleAssess(newTestPipeline(t), store))
	router.GET("/v1/assessments/:companyId", HandleAssessmentHistory(store))
	return router
}

func postAssess(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/assess", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

const validRequestBody = `{
	"company_id": "ACME",
	"financial_data": {
		"debt_to_equity": 2.5,
		"current_ratio": 0.8,
		"interest_coverage": 1.0,
		"revenue_growth": -0.15
	},
	"market_data": {"volatility": 0.35, "beta": 1.6},
	"compliance_requirements": ["SOX"]
}`

// =============================================================================
// HandleAssess Tests
// =============================================================================

func TestHandleAssess_ReturnsAssessment(t *testing.T) {
	router := newRouter(t, nil)

	w := postAssess(router, validRequestBody)
	assert.Equal(t, http.StatusOK, w.Code)

	var assessment datatypes.ComprehensiveAssessment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assessment))

	assert.Equal(t, "ACME", assessment.CompanyID)
	assert.NotEmpty(t, assessment.AssessmentID)
	assert.InDelta(t, 1.0, assessment.CreditRisk.Score, 1e-9)
	assert.InDelta(t, 0.45, assessment.MarketRisk.Score, 1e-9)
	assert.Equal(t, datatypes.RiskLevelCritical, assessment.CreditRisk.Level)
}

func TestHandleAssess_MalformedJSON(t *testing.T) {
	router := newRouter(t, nil)

	w := postAssess(router, `{"company_id": "ACME", "financial_data"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAssess_NonNumericAttributeNamesField(t *testing.T) {
	router := newRouter(t, nil)

	w := postAssess(router, `{
		"company_id": "ACME",
		"financial_data": {"debt_to_equity": "high"}
	}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "debt_to_equity")
}

func TestHandleAssess_MissingFinancialData(t *testing.T) {
	router := newRouter(t, nil)

	w := postAssess(router, `{"company_id": "ACME"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response["error"], "FinancialData")
}

func TestHandleAssess_MissingCompanyID(t *testing.T) {
	router := newRouter(t, nil)

	w := postAssess(router, `{"financial_data": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAssess_PersistsInBackground(t *testing.T) {
	store := newTestStore(t)
	router := newRouter(t, store)

	w := postAssess(router, validRequestBody)
	require.Equal(t, http.StatusOK, w.Code)

	// The write is asynchronous; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := store.LatestAssessment(context.Background(), "ACME")
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("assessment was not persisted: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// =============================================================================
// HandleAssessmentHistory Tests
// =============================================================================

func TestHandleAssessmentHistory_ReturnsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	router := newRouter(t, store)

	base := time.Now().UTC()
	for i, id := range []string{"RA-old", "RA-new"} {
		assessment := &datatypes.ComprehensiveAssessment{
			CompanyID:        "ACME",
			OverallRiskLevel: datatypes.RiskLevelLow,
			AssessmentID:     id,
			Timestamp:        base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.SaveAssessment(context.Background(), assessment))
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/assessments/ACME", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		CompanyID   string                              `json:"company_id"`
		Assessments []datatypes.ComprehensiveAssessment `json:"assessments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ACME", response.CompanyID)
	require.Len(t, response.Assessments, 2)
	assert.Equal(t, "RA-new", response.Assessments[0].AssessmentID)
}

func TestHandleAssessmentHistory_UnknownCompany(t *testing.T) {
	router := newRouter(t, newTestStore(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/assessments/GHOST", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleAssessmentHistory_InvalidLimit(t *testing.T) {
	router := newRouter(t, newTestStore(t))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/assessments/ACME?limit=zero", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAssessmentHistory_NoStoreConfigured(t *testing.T) {
	router := newRouter(t, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/assessments/ACME", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealthCheck_ReportsComponentState(t *testing.T) {
	router := gin.New()
	router.GET("/health", HealthCheck(HealthStatus{Persistence: true}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "ok", response.Components["persistence"])
	assert.Equal(t, "degraded", response.Components["context_retrieval"])
	assert.Equal(t, "degraded", response.Components["narrative_review"])
}
