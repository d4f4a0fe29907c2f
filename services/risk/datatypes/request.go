// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Request Limits
// =============================================================================

const (
	// MaxCompanyIDLength bounds the company identifier.
	MaxCompanyIDLength = 128

	// MaxComplianceRequirements bounds the requirement list. The table
	// only knows SOX/GDPR/Basel III; the bound guards against abuse, not
	// against unknown names (those are simply never matched).
	MaxComplianceRequirements = 32
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// riskValidate is the validator instance for assessment datatypes.
// Initialized in init() with custom validators.
var riskValidate *validator.Validate

var companyIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func init() {
	riskValidate = validator.New()
	_ = riskValidate.RegisterValidation("company_id", validateCompanyID)
}

// validateCompanyID restricts company identifiers to a filesystem- and
// key-safe charset. The id is embedded in storage keys and in the context
// provider query, so shell/graphql metacharacters are rejected up front.
func validateCompanyID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return len(id) <= MaxCompanyIDLength && companyIDPattern.MatchString(id)
}

// =============================================================================
// Assessment Request
// =============================================================================

// AssessmentRequest is the /v1/assess payload.
//
// financial_data is required; a request without it is a fatal input error
// (no partial result). market_data and compliance_requirements are
// optional. Non-numeric values in numeric fields fail JSON binding with
// the offending field named, which satisfies the abort-and-describe
// contract for malformed attributes before any agent runs.
type AssessmentRequest struct {
	CompanyID              string         `json:"company_id" validate:"required,company_id"`
	FinancialData          *FinancialData `json:"financial_data" validate:"required,structonly"`
	MarketData             *MarketData    `json:"market_data,omitempty" validate:"omitempty,structonly"`
	ComplianceRequirements []string       `json:"compliance_requirements,omitempty" validate:"omitempty,max=32,dive,max=64"`
}

// Validate checks the request against the input contract. The returned
// error names the first offending field. The nested attribute structs
// are validated in separate passes (structonly on the fields above) so
// their errors name the offending section of the payload.
func (r *AssessmentRequest) Validate() error {
	if err := riskValidate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid request: field %s failed %s validation", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("invalid request: %w", err)
	}
	if r.FinancialData != nil {
		if err := riskValidate.Struct(r.FinancialData); err != nil {
			return fmt.Errorf("invalid financial_data: %w", err)
		}
	}
	if r.MarketData != nil {
		if err := riskValidate.Struct(r.MarketData); err != nil {
			return fmt.Errorf("invalid market_data: %w", err)
		}
	}
	return nil
}

// NewContext builds the initial pipeline state for this request.
// executionID keys the run for tracing and external checkpointing.
func (r *AssessmentRequest) NewContext(executionID string) *AssessmentContext {
	ctx := &AssessmentContext{
		CompanyID:   r.CompanyID,
		ExecutionID: executionID,
	}
	if r.FinancialData != nil {
		ctx.Financial = *r.FinancialData
	}
	ctx.Market = r.MarketData
	if len(r.ComplianceRequirements) > 0 {
		ctx.ComplianceRequirements = append([]string(nil), r.ComplianceRequirements...)
	}
	return ctx
}
