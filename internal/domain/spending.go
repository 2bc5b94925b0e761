package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SpendingFunction is one named national spending category for a fixed
// spending year, unrelated to any individual household.
type SpendingFunction struct {
	FunctionLabel string          `json:"function_label"`
	AmountM       decimal.Decimal `json:"amount_m_gbp"`
}

// ServiceContribution is one national spending function scaled down to the
// household's share of total revenue.
type ServiceContribution struct {
	FunctionLabel     string          `json:"function_label"`
	SpendingAmountM   decimal.Decimal `json:"spending_amount_m_gbp"`
	UserContribution  decimal.Decimal `json:"user_contribution_gbp"`
	ShareOfUserTaxPct decimal.Decimal `json:"share_of_user_tax_percent"`
}

// SpendingBreakdown is the top-N attribution view.
type SpendingBreakdown struct {
	TotalUKTaxRevenueM decimal.Decimal       `json:"total_uk_tax_revenue_m_gbp"`
	UserTotalTax       decimal.Decimal       `json:"user_total_tax_gbp"`
	UserShareOfRevenue decimal.Decimal       `json:"user_share_of_total_revenue"`
	SpendingYear       string                `json:"spending_year"`
	RevenueYear        string                `json:"revenue_year"`
	Services           []ServiceContribution `json:"services"`
}

// ServicesImpact is the paginated attribution view.
type ServicesImpact struct {
	TotalUKTaxRevenueM decimal.Decimal       `json:"total_uk_tax_revenue_m_gbp"`
	UserTotalTax       decimal.Decimal       `json:"user_total_tax_gbp"`
	UserShareOfRevenue decimal.Decimal       `json:"user_share_of_total_revenue"`
	SpendingYear       string                `json:"spending_year"`
	RevenueYear        string                `json:"revenue_year"`
	Page               int                   `json:"page"`
	PageSize           int                   `json:"page_size"`
	TotalItems         int                   `json:"total_items"`
	Services           []ServiceContribution `json:"services"`
}

// SpendingBreakdownRequest selects the attribution inputs for the top-N view.
type SpendingBreakdownRequest struct {
	TaxEstimateRequest `yaml:",inline"`
	SpendingYear       string `json:"spending_year" yaml:"spending_year"`
	RevenueYear        string `json:"revenue_year" yaml:"revenue_year"`
	TopN               int    `json:"top_n" yaml:"top_n"`
}

// ApplyDefaults fills unset fields with the service defaults.
func (r *SpendingBreakdownRequest) ApplyDefaults() {
	r.TaxEstimateRequest.ApplyDefaults()
	if r.SpendingYear == "" {
		r.SpendingYear = DefaultSpendingYear
	}
	if r.RevenueYear == "" {
		r.RevenueYear = DefaultRevenueYear
	}
	if r.TopN == 0 {
		r.TopN = 12
	}
}

// Validate rejects out-of-range attribution selectors.
func (r *SpendingBreakdownRequest) Validate() error {
	if err := r.TaxEstimateRequest.Validate(); err != nil {
		return err
	}
	if r.TopN < 1 || r.TopN > 50 {
		return fmt.Errorf("top_n must be between 1 and 50")
	}
	return nil
}

// ServicesImpactRequest selects the attribution inputs for the paginated view.
type ServicesImpactRequest struct {
	TaxEstimateRequest `yaml:",inline"`
	SpendingYear       string `json:"spending_year" yaml:"spending_year"`
	RevenueYear        string `json:"revenue_year" yaml:"revenue_year"`
	Page               int    `json:"page" yaml:"page"`
	PageSize           int    `json:"page_size" yaml:"page_size"`
}

// ApplyDefaults fills unset fields with the service defaults.
func (r *ServicesImpactRequest) ApplyDefaults() {
	r.TaxEstimateRequest.ApplyDefaults()
	if r.SpendingYear == "" {
		r.SpendingYear = DefaultSpendingYear
	}
	if r.RevenueYear == "" {
		r.RevenueYear = DefaultRevenueYear
	}
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize == 0 {
		r.PageSize = 20
	}
}

// Validate rejects out-of-range pagination selectors.
func (r *ServicesImpactRequest) Validate() error {
	if err := r.TaxEstimateRequest.Validate(); err != nil {
		return err
	}
	if r.Page < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	if r.PageSize < 1 || r.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}
	return nil
}

// Snapshot year selectors. The shipped tables carry one year each; these are
// the values the defaults resolve to.
const (
	DefaultSpendingYear = "2024-25"
	DefaultRevenueYear  = "2022 to 2023"
	DefaultFiscalYear   = "2022 to 2023"
)
