// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package rules implements the scoring-rule engine shared by all risk
// agents.
//
// # Description
//
// An agent's scoring table is a fixed, ordered list of ladders. A ladder
// is a mutually-exclusive set of threshold checks over one attribute,
// ordered most-severe-first: within a ladder only the FIRST matching rule
// fires, so "value > high threshold" always wins over "value > low
// threshold" when both would match. Ladder results accumulate into a
// running total and an ordered factor list.
//
// The engine is pure and deterministic: same inputs, same score and
// factor list, every time. Missing attributes are handled upstream by the
// datatypes accessors, which substitute documented neutral defaults.
//
// # Thread Safety
//
// Tables are immutable after construction and safe for concurrent use.
package rules

import (
	"github.com/jinterlante1206/AleutianRisk/services/risk/datatypes"
)

// Rule is one threshold check: if Applies returns true for the context,
// the rule contributes Delta to the score and Factor to the factor list.
type Rule struct {
	Applies func(*datatypes.AssessmentContext) bool
	Delta   float64
	Factor  string
}

// Ladder is an ordered, most-severe-first rule set over one attribute.
// Evaluation short-circuits on the first match.
type Ladder struct {
	Rules []Rule
}

// Evaluate returns the delta and factor of the first matching rule, or
// (0, "") when no rule matches.
func (l Ladder) Evaluate(ctx *datatypes.AssessmentContext) (float64, string) {
	for _, r := range l.Rules {
		if r.Applies(ctx) {
			return r.Delta, r.Factor
		}
	}
	return 0, ""
}

// Table is an agent's full scoring table: one ladder per attribute,
// evaluated in declaration order.
type Table struct {
	Ladders []Ladder
}

// Evaluate runs every ladder against the context, accumulating deltas and
// collecting factors in ladder order. The returned score is the raw
// accumulation; callers clamp to [0,1] when constructing the RiskScore.
func (t Table) Evaluate(ctx *datatypes.AssessmentContext) (float64, []string) {
	var score float64
	var factors []string
	for _, ladder := range t.Ladders {
		delta, factor := ladder.Evaluate(ctx)
		if factor != "" {
			factors = append(factors, factor)
		}
		score += delta
	}
	return score, factors
}

// Tiers builds a ladder from rules given most-severe-first. It exists so
// agent tables read as declarations rather than nested struct literals.
func Tiers(rules ...Rule) Ladder {
	return Ladder{Rules: rules}
}

// When builds a single rule.
func When(applies func(*datatypes.AssessmentContext) bool, delta float64, factor string) Rule {
	return Rule{Applies: applies, Delta: delta, Factor: factor}
}
