// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// This file defines the schema'd attribute structs the agents score over.
// Every field is optional; a missing field takes the documented neutral
// default via its Get accessor. Absent data contributes no risk: every
// default sits outside its scoring rule bands (current_ratio 1.5,
// interest_coverage 3, beta 1, everything else 0) and compliance flags
// default to compliant, so an empty profile scores 0 in every category.

// FinancialData carries the company's financial and operational
// attributes. JSON keys match the external reporting feed.
type FinancialData struct {
	// Credit attributes.
	DebtToEquity     *float64 `json:"debt_to_equity,omitempty" validate:"omitempty,gte=0"`
	CurrentRatio     *float64 `json:"current_ratio,omitempty" validate:"omitempty,gte=0"`
	InterestCoverage *float64 `json:"interest_coverage,omitempty"`
	RevenueGrowth    *float64 `json:"revenue_growth,omitempty" validate:"omitempty,gte=-1"`

	// Market exposure attributes sourced from financial filings.
	ForeignCurrencyExposure *float64 `json:"foreign_currency_exposure,omitempty" validate:"omitempty,gte=0,lte=1"`
	CommodityExposure       *float64 `json:"commodity_exposure,omitempty" validate:"omitempty,gte=0,lte=1"`

	// Operational attributes.
	SystemDowntimeHours      *float64 `json:"system_downtime_hours,omitempty" validate:"omitempty,gte=0"`
	EmployeeTurnoverRate     *float64 `json:"employee_turnover_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	ProcessErrorRate         *float64 `json:"process_error_rate,omitempty" validate:"omitempty,gte=0,lte=1"`
	TopSupplierConcentration *float64 `json:"top_supplier_concentration,omitempty" validate:"omitempty,gte=0,lte=1"`
	SecurityIncidentsYear    *int     `json:"security_incidents_year,omitempty" validate:"omitempty,gte=0"`

	// Compliance attributes. The *Compliant flags are only consulted for
	// requirements named in the request's compliance_requirements list.
	RegulatoryViolationsYear *int  `json:"regulatory_violations_year,omitempty" validate:"omitempty,gte=0"`
	ComplianceAuditFindings  *int  `json:"compliance_audit_findings,omitempty" validate:"omitempty,gte=0"`
	SOXCompliant             *bool `json:"sox_compliant,omitempty"`
	GDPRCompliant            *bool `json:"gdpr_compliant,omitempty"`
	BaselCompliant           *bool `json:"basel_compliant,omitempty"`
	PendingLitigation        *int  `json:"pending_litigation,omitempty" validate:"omitempty,gte=0"`
}

// MarketData carries externally observed market attributes.
type MarketData struct {
	Volatility *float64 `json:"volatility,omitempty" validate:"omitempty,gte=0"`
	Beta       *float64 `json:"beta,omitempty"`
}

func orFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func orInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func orBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// GetDebtToEquity returns debt_to_equity, default 0.
func (f *FinancialData) GetDebtToEquity() float64 { return orFloat(f.DebtToEquity, 0) }

// GetCurrentRatio returns current_ratio, default 1.5 (healthy
// liquidity). The default sits outside every liquidity rule band so an
// absent field contributes no risk.
func (f *FinancialData) GetCurrentRatio() float64 { return orFloat(f.CurrentRatio, 1.5) }

// GetInterestCoverage returns interest_coverage, default 3 (adequate
// coverage). The default sits outside every coverage rule band so an
// absent field contributes no risk.
func (f *FinancialData) GetInterestCoverage() float64 { return orFloat(f.InterestCoverage, 3) }

// GetRevenueGrowth returns revenue_growth, default 0.
func (f *FinancialData) GetRevenueGrowth() float64 { return orFloat(f.RevenueGrowth, 0) }

// GetForeignCurrencyExposure returns foreign_currency_exposure, default 0.
func (f *FinancialData) GetForeignCurrencyExposure() float64 {
	return orFloat(f.ForeignCurrencyExposure, 0)
}

// GetCommodityExposure returns commodity_exposure, default 0.
func (f *FinancialData) GetCommodityExposure() float64 { return orFloat(f.CommodityExposure, 0) }

// GetSystemDowntimeHours returns system_downtime_hours, default 0.
func (f *FinancialData) GetSystemDowntimeHours() float64 { return orFloat(f.SystemDowntimeHours, 0) }

// GetEmployeeTurnoverRate returns employee_turnover_rate, default 0.
func (f *FinancialData) GetEmployeeTurnoverRate() float64 {
	return orFloat(f.EmployeeTurnoverRate, 0)
}

// GetProcessErrorRate returns process_error_rate, default 0.
func (f *FinancialData) GetProcessErrorRate() float64 { return orFloat(f.ProcessErrorRate, 0) }

// GetTopSupplierConcentration returns top_supplier_concentration, default 0.
func (f *FinancialData) GetTopSupplierConcentration() float64 {
	return orFloat(f.TopSupplierConcentration, 0)
}

// GetSecurityIncidentsYear returns security_incidents_year, default 0.
func (f *FinancialData) GetSecurityIncidentsYear() int { return orInt(f.SecurityIncidentsYear, 0) }

// GetRegulatoryViolationsYear returns regulatory_violations_year, default 0.
func (f *FinancialData) GetRegulatoryViolationsYear() int {
	return orInt(f.RegulatoryViolationsYear, 0)
}

// GetComplianceAuditFindings returns compliance_audit_findings, default 0.
func (f *FinancialData) GetComplianceAuditFindings() int {
	return orInt(f.ComplianceAuditFindings, 0)
}

// GetSOXCompliant returns sox_compliant, default true (absence is not a
// violation).
func (f *FinancialData) GetSOXCompliant() bool { return orBool(f.SOXCompliant, true) }

// GetGDPRCompliant returns gdpr_compliant, default true.
func (f *FinancialData) GetGDPRCompliant() bool { return orBool(f.GDPRCompliant, true) }

// GetBaselCompliant returns basel_compliant, default true.
func (f *FinancialData) GetBaselCompliant() bool { return orBool(f.BaselCompliant, true) }

// GetPendingLitigation returns pending_litigation, default 0.
func (f *FinancialData) GetPendingLitigation() int { return orInt(f.PendingLitigation, 0) }

// GetVolatility returns volatility, default 0.
func (m *MarketData) GetVolatility() float64 {
	if m == nil {
		return 0
	}
	return orFloat(m.Volatility, 0)
}

// GetBeta returns beta, default 1.0 (moves with the market).
func (m *MarketData) GetBeta() float64 {
	if m == nil {
		return 1.0
	}
	return orFloat(m.Beta, 1.0)
}
