// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package synthesis folds the four agent scores into one comprehensive
// assessment.
//
// The dimension weights are fixed business constants. The overall score
// is a pure weighted sum of the four agent scores; it is never clamped
// or renormalized because each input is already in [0, 1] and the
// weights sum to 1.
package synthesis

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
	"github.com/jinterlante1206/AleutianRisk/services/risk/observability"
)

// Fixed dimension weights. They must sum to 1.
const (
	WeightCredit      = 0.30
	WeightMarket      = 0.25
	WeightOperational = 0.20
	WeightCompliance  = 0.25
)

// recommendationsYAML holds the advisory catalog baked into the binary,
// so the emitted texts cannot drift from the deployed executable.
//
//go:embed recommendations.yaml
var recommendationsYAML []byte

// advisorySet holds the advisory texts for one risk dimension.
type advisorySet struct {
	// Elevated advisories are emitted for high and critical levels.
	Elevated []string `yaml:"elevated"`
	// Medium advisories are emitted for the medium level only.
	Medium []string `yaml:"medium"`
}

type advisoryCatalog struct {
	Advisories map[string]advisorySet `yaml:"advisories"`
}

// Synthesizer builds the final assessment from a completed context.
//
// # Thread Safety
//
// Synthesizer is immutable after construction and safe for concurrent
// use.
type Synthesizer struct {
	catalog advisoryCatalog
	metrics *observability.RiskMetrics
}

// NewSynthesizer parses the embedded advisory catalog.
func NewSynthesizer() (*Synthesizer, error) {
	var catalog advisoryCatalog
	if err := yaml.Unmarshal(recommendationsYAML, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded advisory catalog: %w", err)
	}
	for _, riskType := range datatypes.AgentRiskTypes {
		if _, ok := catalog.Advisories[string(riskType)]; !ok {
			return nil, fmt.Errorf("advisory catalog missing dimension %q", riskType)
		}
	}
	return &Synthesizer{
		catalog: catalog,
		metrics: observability.InitMetrics(),
	}, nil
}

// Synthesize implements the final pipeline stage.
//
// # Description
//
//	Computes the weighted overall score, derives the overall level from
//	the shared threshold bands, collects advisories in fixed dimension
//	order, and stamps the assessment with a fresh identifier.
//
// # Inputs
//
//   - state: A context whose four score slots are all populated.
//
// # Outputs
//
//   - *datatypes.ComprehensiveAssessment: The final assessment.
//   - error: Non-nil if any score slot is missing.
func (s *Synthesizer) Synthesize(state *datatypes.AssessmentContext) (*datatypes.ComprehensiveAssessment, error) {
	if !state.ScoresComplete() {
		return nil, fmt.Errorf("cannot synthesize: not all agent scores are recorded")
	}

	credit := state.CreditRisk
	market := state.MarketRisk
	operational := state.OperationalRisk
	compliance := state.ComplianceRisk

	overall := credit.Score*WeightCredit +
		market.Score*WeightMarket +
		operational.Score*WeightOperational +
		compliance.Score*WeightCompliance

	assessment := &datatypes.ComprehensiveAssessment{
		CompanyID:        state.CompanyID,
		CreditRisk:       *credit,
		MarketRisk:       *market,
		OperationalRisk:  *operational,
		ComplianceRisk:   *compliance,
		OverallRiskScore: overall,
		OverallRiskLevel: datatypes.LevelFromScore(overall),
		Recommendations:  s.recommendations(state),
		AssessmentID:     NewAssessmentID(),
		Timestamp:        time.Now().UTC(),
	}

	s.metrics.SetRiskScore(string(datatypes.RiskTypeOverall), overall)
	return assessment, nil
}

// recommendations collects advisories in fixed dimension order so the
// output is deterministic for a given set of scores.
func (s *Synthesizer) recommendations(state *datatypes.AssessmentContext) []string {
	recommendations := []string{}
	for _, riskType := range datatypes.AgentRiskTypes {
		score := state.AgentScore(riskType)
		if score == nil {
			continue
		}
		set := s.catalog.Advisories[string(riskType)]
		switch {
		case score.Level.AtLeast(datatypes.RiskLevelHigh):
			recommendations = append(recommendations, set.Elevated...)
		case score.Level == datatypes.RiskLevelMedium:
			recommendations = append(recommendations, set.Medium...)
		}
	}
	return recommendations
}

// NewAssessmentID mints an assessment identifier of the form
// "RA-<UTC second timestamp>-<short suffix>". The suffix disambiguates
// assessments minted within the same second.
func NewAssessmentID() string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("RA-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}
