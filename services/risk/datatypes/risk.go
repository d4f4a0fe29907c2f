// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides the data model for the risk assessment
// service: risk levels, per-category scores, the pipeline context, and
// the request/response types of the /v1/assess boundary.
package datatypes

import (
	"fmt"
	"time"
)

// =============================================================================
// Risk Levels
// =============================================================================

// RiskLevel is the ordered severity band of a risk score.
//
// Levels are totally ordered by ascending severity:
// LOW < MEDIUM < HIGH < CRITICAL. Use Rank for comparisons.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Score breakpoints between risk level bands. Bands are half-open on the
// low end: a score of exactly 0.30 is MEDIUM, 0.60 is HIGH, 0.85 is
// CRITICAL. The CRITICAL band is unbounded above.
const (
	ThresholdMedium   = 0.30
	ThresholdHigh     = 0.60
	ThresholdCritical = 0.85
)

// Rank returns the ordinal position of the level, LOW = 0 through
// CRITICAL = 3. Unknown levels rank below LOW.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLevelLow:
		return 0
	case RiskLevelMedium:
		return 1
	case RiskLevelHigh:
		return 2
	case RiskLevelCritical:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether l is at least as severe as other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return l.Rank() >= other.Rank()
}

// LevelFromScore maps a numeric score onto its severity band.
//
// The same mapping applies to every per-category score and to the overall
// score: <0.30 LOW, <0.60 MEDIUM, <0.85 HIGH, otherwise CRITICAL.
func LevelFromScore(score float64) RiskLevel {
	switch {
	case score < ThresholdMedium:
		return RiskLevelLow
	case score < ThresholdHigh:
		return RiskLevelMedium
	case score < ThresholdCritical:
		return RiskLevelHigh
	default:
		return RiskLevelCritical
	}
}

// =============================================================================
// Risk Types
// =============================================================================

// RiskType identifies one of the independent scoring dimensions.
type RiskType string

const (
	RiskTypeCredit      RiskType = "credit"
	RiskTypeMarket      RiskType = "market"
	RiskTypeOperational RiskType = "operational"
	RiskTypeCompliance  RiskType = "compliance"

	// RiskTypeOverall labels the synthesized score in metrics and
	// responses. It is never produced by an agent.
	RiskTypeOverall RiskType = "overall"
)

// AgentRiskTypes lists the four agent dimensions in pipeline order.
var AgentRiskTypes = []RiskType{
	RiskTypeCredit,
	RiskTypeMarket,
	RiskTypeOperational,
	RiskTypeCompliance,
}

// =============================================================================
// Risk Score
// =============================================================================

// RiskScore is the immutable result of one agent invocation.
//
// Score is always in [0,1] and Level is always the band LevelFromScore
// assigns to Score. Factors preserve rule evaluation order. Construct via
// NewRiskScore; never mutate after construction.
type RiskScore struct {
	RiskType   RiskType  `json:"risk_type"`
	Score      float64   `json:"score"`
	Level      RiskLevel `json:"level"`
	Factors    []string  `json:"factors"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRiskScore builds a RiskScore from an accumulated rule score.
//
// The score is clamped to [0,1] (rule ladders may accumulate past 1) and
// the level is derived from the clamped value, keeping the score/level
// consistency invariant in one place. A nil factors slice is normalized
// to an empty one so the JSON form is always an array.
func NewRiskScore(riskType RiskType, score float64, factors []string, confidence float64) RiskScore {
	score = ClampScore(score)
	if factors == nil {
		factors = []string{}
	}
	return RiskScore{
		RiskType:   riskType,
		Score:      score,
		Level:      LevelFromScore(score),
		Factors:    factors,
		Confidence: confidence,
		Timestamp:  time.Now().UTC(),
	}
}

// ClampScore clamps a score into [0,1]. Accumulated rule deltas may
// exceed 1; clamp, never renormalize.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Validate checks the internal invariants of a constructed score. Used by
// tests and by the synthesis stage as a cheap input check.
func (s RiskScore) Validate() error {
	if s.Score < 0 || s.Score > 1 {
		return fmt.Errorf("risk score %q out of range: %v", s.RiskType, s.Score)
	}
	if got := LevelFromScore(s.Score); got != s.Level {
		return fmt.Errorf("risk score %q level %q inconsistent with score %v (want %q)",
			s.RiskType, s.Level, s.Score, got)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("risk score %q confidence out of range: %v", s.RiskType, s.Confidence)
	}
	return nil
}
