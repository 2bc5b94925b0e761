package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TaxYear is the closed set of tax years the estimator carries parameter sets
// for. Unknown years fall back to DefaultTaxYear at parameter lookup.
type TaxYear string

const (
	TaxYear2023 TaxYear = "2023-24"
	TaxYear2024 TaxYear = "2024-25"
	TaxYear2025 TaxYear = "2025-26"

	DefaultTaxYear = TaxYear2025

	// CompareNone disables the year-over-year comparison.
	CompareNone TaxYear = "none"
)

// IsKnown reports whether the year has its own parameter set.
func (y TaxYear) IsKnown() bool {
	switch y {
	case TaxYear2023, TaxYear2024, TaxYear2025:
		return true
	}
	return false
}

// Nation selects the income-tax band structure. Wales currently shares the
// standard structure with England/NI; Scotland has its own schedule.
type Nation string

const (
	NationEnglandNI Nation = "england_ni"
	NationWales     Nation = "wales"
	NationScotland  Nation = "scotland"
)

// EmploymentType selects the National Insurance model for the primary earner.
type EmploymentType string

const (
	EmploymentEmployed     EmploymentType = "employed"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentMixed        EmploymentType = "mixed"
)

// SelfEmployed reports whether the self-employment NI substitution applies.
func (e EmploymentType) SelfEmployed() bool {
	return e == EmploymentSelfEmployed || e == EmploymentMixed
}

// StudentLoanPlan identifies a repayment plan; PlanNone means no loan.
type StudentLoanPlan string

const (
	PlanNone     StudentLoanPlan = "none"
	Plan1        StudentLoanPlan = "1"
	Plan2        StudentLoanPlan = "2"
	Plan4        StudentLoanPlan = "4"
	Plan5        StudentLoanPlan = "5"
	PlanPostgrad StudentLoanPlan = "postgrad"
)

// CouncilTaxBand is a valuation band A-H, or BandAuto for the region average.
type CouncilTaxBand string

const (
	BandAuto CouncilTaxBand = "auto"
	BandA    CouncilTaxBand = "A"
	BandB    CouncilTaxBand = "B"
	BandC    CouncilTaxBand = "C"
	BandD    CouncilTaxBand = "D"
	BandE    CouncilTaxBand = "E"
	BandF    CouncilTaxBand = "F"
	BandG    CouncilTaxBand = "G"
	BandH    CouncilTaxBand = "H"
)

// PolicyOverrides carries optional per-rate substitutions for policy
// simulation. Each field is independently bounded; nil means "use the year's
// value".
type PolicyOverrides struct {
	PersonalAllowance *decimal.Decimal `json:"personal_allowance,omitempty" yaml:"personal_allowance,omitempty"`
	BasicRate         *decimal.Decimal `json:"basic_rate,omitempty" yaml:"basic_rate,omitempty"`
	HigherRate        *decimal.Decimal `json:"higher_rate,omitempty" yaml:"higher_rate,omitempty"`
	AdditionalRate    *decimal.Decimal `json:"additional_rate,omitempty" yaml:"additional_rate,omitempty"`
	NIMainRate        *decimal.Decimal `json:"ni_main_rate,omitempty" yaml:"ni_main_rate,omitempty"`
	NIUpperRate       *decimal.Decimal `json:"ni_upper_rate,omitempty" yaml:"ni_upper_rate,omitempty"`
	VATRate           *decimal.Decimal `json:"vat_rate,omitempty" yaml:"vat_rate,omitempty"`
}

// Validate checks every supplied override against its bounds.
func (po *PolicyOverrides) Validate() error {
	if po.PersonalAllowance != nil {
		if po.PersonalAllowance.IsNegative() || po.PersonalAllowance.GreaterThan(decimal.NewFromInt(25000)) {
			return fmt.Errorf("personal allowance override must be between 0 and 25000")
		}
	}
	rates := map[string]*decimal.Decimal{
		"basic_rate":      po.BasicRate,
		"higher_rate":     po.HigherRate,
		"additional_rate": po.AdditionalRate,
		"ni_main_rate":    po.NIMainRate,
		"ni_upper_rate":   po.NIUpperRate,
		"vat_rate":        po.VATRate,
	}
	for name, r := range rates {
		if r == nil {
			continue
		}
		if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%s override must be between 0 and 1", name)
		}
	}
	return nil
}

// TaxEstimateRequest is the validated household input to the estimator.
type TaxEstimateRequest struct {
	AnnualIncome              decimal.Decimal  `json:"annual_income_gbp" yaml:"annual_income_gbp"`
	Region                    string           `json:"region" yaml:"region"`
	TaxYear                   TaxYear          `json:"tax_year" yaml:"tax_year"`
	VatableSpendRatio         decimal.Decimal  `json:"vatable_spend_ratio" yaml:"vatable_spend_ratio"`
	PensionSalarySacrifice    decimal.Decimal  `json:"pension_salary_sacrifice_gbp" yaml:"pension_salary_sacrifice_gbp"`
	PensionReliefAtSource     decimal.Decimal  `json:"pension_relief_at_source_gbp" yaml:"pension_relief_at_source_gbp"`
	GiftAid                   decimal.Decimal  `json:"gift_aid_gbp" yaml:"gift_aid_gbp"`
	OtherPreTaxDeductions     decimal.Decimal  `json:"other_pre_tax_deductions_gbp" yaml:"other_pre_tax_deductions_gbp"`
	PartnerAnnualIncome       decimal.Decimal  `json:"partner_annual_income_gbp" yaml:"partner_annual_income_gbp"`
	MarriageAllowanceTransfer bool             `json:"marriage_allowance_transfer" yaml:"marriage_allowance_transfer"`
	CompareTaxYear            TaxYear          `json:"compare_tax_year" yaml:"compare_tax_year"`
	CouncilTaxBand            CouncilTaxBand   `json:"council_tax_band" yaml:"council_tax_band"`
	Postcode                  string           `json:"postcode,omitempty" yaml:"postcode,omitempty"`
	CouncilName               string           `json:"council_name,omitempty" yaml:"council_name,omitempty"`
	CouncilTaxAnnualOverride  *decimal.Decimal `json:"council_tax_annual_override_gbp,omitempty" yaml:"council_tax_annual_override_gbp,omitempty"`
	Nation                    Nation           `json:"uk_nation_for_income_tax" yaml:"uk_nation_for_income_tax"`
	EmploymentType            EmploymentType   `json:"employment_type" yaml:"employment_type"`
	SavingsInterest           decimal.Decimal  `json:"savings_interest_gbp" yaml:"savings_interest_gbp"`
	DividendIncome            decimal.Decimal  `json:"dividend_income_gbp" yaml:"dividend_income_gbp"`
	StudentLoanPlan           StudentLoanPlan  `json:"student_loan_plan" yaml:"student_loan_plan"`
	PolicyOverrides           *PolicyOverrides `json:"policy_overrides,omitempty" yaml:"policy_overrides,omitempty"`
}

// ApplyDefaults fills unset fields with the service defaults.
func (r *TaxEstimateRequest) ApplyDefaults() {
	if r.Region == "" {
		r.Region = "England"
	}
	if r.TaxYear == "" {
		r.TaxYear = DefaultTaxYear
	}
	if r.VatableSpendRatio.IsZero() {
		r.VatableSpendRatio = decimal.NewFromFloat(0.6)
	}
	if r.CompareTaxYear == "" {
		r.CompareTaxYear = CompareNone
	}
	if r.CouncilTaxBand == "" {
		r.CouncilTaxBand = BandAuto
	}
	if r.Nation == "" {
		r.Nation = NationEnglandNI
	}
	if r.EmploymentType == "" {
		r.EmploymentType = EmploymentEmployed
	}
	if r.StudentLoanPlan == "" {
		r.StudentLoanPlan = PlanNone
	}
}

// Validate rejects malformed or out-of-range fields before they reach the
// engine. Nothing here clamps; clamping only happens where the estimator's
// uncertainty policy explicitly defines it.
func (r *TaxEstimateRequest) Validate() error {
	if r.AnnualIncome.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("annual income must be positive")
	}
	if r.PartnerAnnualIncome.IsNegative() {
		return fmt.Errorf("partner annual income cannot be negative")
	}
	if r.VatableSpendRatio.IsNegative() || r.VatableSpendRatio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("vatable spend ratio must be between 0 and 1")
	}
	for name, d := range map[string]decimal.Decimal{
		"pension salary sacrifice": r.PensionSalarySacrifice,
		"pension relief at source": r.PensionReliefAtSource,
		"gift aid":                 r.GiftAid,
		"other pre-tax deductions": r.OtherPreTaxDeductions,
		"savings interest":         r.SavingsInterest,
		"dividend income":          r.DividendIncome,
	} {
		if d.IsNegative() {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	if !r.TaxYear.IsKnown() {
		return fmt.Errorf("unknown tax year %q", r.TaxYear)
	}
	if r.CompareTaxYear != CompareNone && !r.CompareTaxYear.IsKnown() {
		return fmt.Errorf("unknown comparison tax year %q", r.CompareTaxYear)
	}
	switch r.Nation {
	case NationEnglandNI, NationWales, NationScotland:
	default:
		return fmt.Errorf("unknown nation %q", r.Nation)
	}
	switch r.EmploymentType {
	case EmploymentEmployed, EmploymentSelfEmployed, EmploymentMixed:
	default:
		return fmt.Errorf("unknown employment type %q", r.EmploymentType)
	}
	switch r.StudentLoanPlan {
	case PlanNone, Plan1, Plan2, Plan4, Plan5, PlanPostgrad:
	default:
		return fmt.Errorf("unknown student loan plan %q", r.StudentLoanPlan)
	}
	switch r.CouncilTaxBand {
	case BandAuto, BandA, BandB, BandC, BandD, BandE, BandF, BandG, BandH:
	default:
		return fmt.Errorf("unknown council tax band %q", r.CouncilTaxBand)
	}
	if r.CouncilTaxAnnualOverride != nil && r.CouncilTaxAnnualOverride.IsNegative() {
		return fmt.Errorf("council tax override cannot be negative")
	}
	if r.PolicyOverrides != nil {
		if err := r.PolicyOverrides.Validate(); err != nil {
			return fmt.Errorf("policy overrides validation failed: %w", err)
		}
	}
	return nil
}
