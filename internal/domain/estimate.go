package domain

import "github.com/shopspring/decimal"

// Assumptions records every input the estimator resolved, including values
// inferred from a postcode lookup and whether policy overrides were active.
type Assumptions struct {
	TaxYear                 TaxYear         `json:"tax_year"`
	VatableSpendRatio       decimal.Decimal `json:"vatable_spend_ratio"`
	VATRate                 decimal.Decimal `json:"vat_rate"`
	NIMainRate              decimal.Decimal `json:"ni_main_rate"`
	NIUpperRate             decimal.Decimal `json:"ni_upper_rate"`
	AdjustedIncome          decimal.Decimal `json:"adjusted_income_gbp"`
	AdjustedPartnerIncome   decimal.Decimal `json:"adjusted_partner_income_gbp"`
	PensionSalarySacrifice  decimal.Decimal `json:"pension_salary_sacrifice_gbp"`
	PensionReliefAtSource   decimal.Decimal `json:"pension_relief_at_source_gbp"`
	GiftAid                 decimal.Decimal `json:"gift_aid_gbp"`
	OtherPreTaxDeductions   decimal.Decimal `json:"other_pre_tax_deductions_gbp"`
	CouncilTaxBand          CouncilTaxBand  `json:"council_tax_band"`
	CouncilName             string          `json:"council_name"`
	PostcodeLookupRegion    string          `json:"postcode_lookup_region"`
	CouncilTaxRegionUsed    string          `json:"council_tax_region_used"`
	Nation                  Nation          `json:"uk_nation_for_income_tax"`
	EmploymentType          EmploymentType  `json:"employment_type"`
	StudentLoanPlan         StudentLoanPlan `json:"student_loan_plan"`
	PolicySimulationActive  bool            `json:"policy_simulation_active"`
	MarriageAllowanceCredit decimal.Decimal `json:"marriage_allowance_credit_gbp"`
}

// HouseholdSummary describes the household the estimate covers.
type HouseholdSummary struct {
	HouseholdIncome           decimal.Decimal `json:"household_income_gbp"`
	PartnerAnnualIncome       decimal.Decimal `json:"partner_annual_income_gbp"`
	HouseholdAdults           int             `json:"household_adults"`
	MarriageAllowanceTransfer bool            `json:"marriage_allowance_transfer"`
}

// YearComparison is the optional rerun of the whole estimate under a second
// tax year's parameters with otherwise identical inputs.
type YearComparison struct {
	CompareTaxYear         TaxYear         `json:"compare_tax_year"`
	TotalEstimatedTax      decimal.Decimal `json:"total_estimated_tax_gbp"`
	DeltaVsSelected        decimal.Decimal `json:"delta_vs_selected_gbp"`
	DeltaVsSelectedPercent decimal.Decimal `json:"delta_vs_selected_percent"`
}

// UncertaintyRange bounds the total by perturbing the spend ratio by 0.10 in
// each direction and the council tax estimate by 10%. Both bounds equal the
// central total's council figure when an absolute override was supplied.
type UncertaintyRange struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

// TaxEstimate is the household-level result of one estimator run.
type TaxEstimate struct {
	AnnualIncome         decimal.Decimal   `json:"annual_income_gbp"`
	IncomeTax            decimal.Decimal   `json:"income_tax_gbp"`
	NationalInsurance    decimal.Decimal   `json:"national_insurance_gbp"`
	VATEstimate          decimal.Decimal   `json:"vat_estimate_gbp"`
	CouncilTaxEstimate   decimal.Decimal   `json:"council_tax_estimate_gbp"`
	StudentLoanRepayment decimal.Decimal   `json:"student_loan_repayment_gbp"`
	SavingsTax           decimal.Decimal   `json:"savings_tax_gbp"`
	DividendTax          decimal.Decimal   `json:"dividend_tax_gbp"`
	TotalEstimatedTax    decimal.Decimal   `json:"total_estimated_tax_gbp"`
	EffectiveTaxRate     decimal.Decimal   `json:"effective_tax_rate"`
	TakeHome             decimal.Decimal   `json:"take_home_gbp"`
	Assumptions          Assumptions       `json:"assumptions"`
	HouseholdSummary     *HouseholdSummary `json:"household_summary,omitempty"`
	HistoricalComparison *YearComparison   `json:"historical_comparison,omitempty"`
	UncertaintyRange     *UncertaintyRange `json:"uncertainty_range_gbp,omitempty"`
}
