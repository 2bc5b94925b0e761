package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RegionCodes is the fixed closed set of geographies the regional engine
// covers: the nine English regions plus Wales, Scotland and Northern Ireland.
// UK-aggregate rows are deliberately excluded.
var RegionCodes = map[string]bool{
	"E12000001": true, // North East
	"E12000002": true, // North West
	"E12000003": true, // Yorkshire and The Humber
	"E12000004": true, // East Midlands
	"E12000005": true, // West Midlands
	"E12000006": true, // East of England
	"E12000007": true, // London
	"E12000008": true, // South East
	"E12000009": true, // South West
	"W92000004": true, // Wales
	"S92000003": true, // Scotland
	"N92000002": true, // Northern Ireland
}

// GeographyCodeUK identifies the UK-aggregate row in the revenue table.
const GeographyCodeUK = "K02000001"

// RegionBalance is one region's net fiscal position for a fiscal year.
type RegionBalance struct {
	GeographyCode string          `json:"geography_code"`
	GeographyName string          `json:"geography_name"`
	ContributionM decimal.Decimal `json:"contribution_m_gbp"`
	SpendingM     decimal.Decimal `json:"spending_m_gbp"`
	NetBalanceM   decimal.Decimal `json:"net_balance_m_gbp"`
}

// RegionalFlow is a derived transfer from a net-donor region to a
// net-recipient region. Flows are recomputed whenever balances change; they
// are never persisted truth.
type RegionalFlow struct {
	OriginRegion      string          `json:"origin_region"`
	DestinationRegion string          `json:"destination_region"`
	ValueM            decimal.Decimal `json:"value_m_gbp"`
}

// BorrowingMethod flags whether an externally published borrowing figure was
// available or the figure had to be implied from the regional dataset gap.
type BorrowingMethod string

const (
	BorrowingOfficial BorrowingMethod = "official_psnb_ex"
	BorrowingImplied  BorrowingMethod = "implied_gap_from_regional_dataset"
)

// BorrowingFigure is an externally published aggregate borrowing figure,
// reported verbatim when present.
type BorrowingFigure struct {
	AmountB         decimal.Decimal `json:"amount_b_gbp"`
	ReleasePeriod   string          `json:"release_period"`
	ReferencePeriod string          `json:"reference_period"`
	SourceURL       string          `json:"source_url"`
}

// RegionalFlowsRequest selects a fiscal year and a page of flows.
type RegionalFlowsRequest struct {
	Year     string `json:"year" yaml:"year"`
	Page     int    `json:"page" yaml:"page"`
	PageSize int    `json:"page_size" yaml:"page_size"`
}

// ApplyDefaults fills unset fields with the service defaults.
func (r *RegionalFlowsRequest) ApplyDefaults() {
	if r.Year == "" {
		r.Year = DefaultFiscalYear
	}
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize == 0 {
		r.PageSize = 50
	}
}

// Validate rejects out-of-range pagination selectors.
func (r *RegionalFlowsRequest) Validate() error {
	if r.Page < 1 {
		return fmt.Errorf("page must be at least 1")
	}
	if r.PageSize < 1 || r.PageSize > 500 {
		return fmt.Errorf("page_size must be between 1 and 500")
	}
	return nil
}

// RegionalFlows is the regional balance and flow view for one fiscal year.
type RegionalFlows struct {
	Year                     string           `json:"year"`
	Page                     int              `json:"page"`
	PageSize                 int              `json:"page_size"`
	TotalItems               int              `json:"total_items"`
	OfficialBorrowingB       *decimal.Decimal `json:"official_borrowing_b_gbp,omitempty"`
	OfficialBorrowingRelease string           `json:"official_borrowing_release_period,omitempty"`
	OfficialBorrowingRef     string           `json:"official_borrowing_reference_period,omitempty"`
	BorrowingMethod          BorrowingMethod  `json:"borrowing_method"`
	Balances                 []RegionBalance  `json:"balances"`
	Flows                    []RegionalFlow   `json:"flows"`
}

// JournalistExport unions the estimate, attribution and regional views and
// adds two delimited-text tables alongside the structured result.
type JournalistExport struct {
	ExportedAtUTC       string             `json:"exported_at_utc"`
	Tax                 *TaxEstimate       `json:"tax"`
	SpendingBreakdown   *SpendingBreakdown `json:"spending_breakdown"`
	ServicesImpact      *ServicesImpact    `json:"services_impact"`
	RegionalFlows       *RegionalFlows     `json:"regional_flows"`
	ServicesCSV         string             `json:"services_csv"`
	RegionalBalancesCSV string             `json:"regional_balances_csv"`
}
