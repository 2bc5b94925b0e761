package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/taxatlas/taxgo/internal/domain"
)

// TAX MODEL ASSUMPTIONS:
//
// 1. Parameter sets are approximate annualised figures per tax year, intended
//    for estimation and comparison mode, not authoritative computation.
// 2. The only parameter that moves across the carried years is the NI main
//    rate (12% in 2023-24, 8% from 2024-25).
// 3. The Scottish schedule and the self-employment NI model are deliberate
//    simplifications of the real rules; they are the reference behaviour and
//    must not be "corrected".

// TaxParameters is the immutable per-year constant set. All rates are
// fractions in [0,1]; all thresholds are annual GBP amounts.
type TaxParameters struct {
	PersonalAllowance    decimal.Decimal
	BasicRateLimit       decimal.Decimal
	HigherRateThreshold  decimal.Decimal
	BasicRate            decimal.Decimal
	HigherRate           decimal.Decimal
	AdditionalRate       decimal.Decimal
	NIPrimaryThreshold   decimal.Decimal
	NIUpperEarningsLimit decimal.Decimal
	NIMainRate           decimal.Decimal
	NIUpperRate          decimal.Decimal
	VATRate              decimal.Decimal
}

// MarriageAllowanceCredit is the fixed annual credit transferred between
// partners when the marriage allowance conditions hold.
var MarriageAllowanceCredit = decimal.NewFromInt(252)

func baseParameters() TaxParameters {
	return TaxParameters{
		PersonalAllowance:    decimal.NewFromInt(12570),
		BasicRateLimit:       decimal.NewFromInt(37700),
		HigherRateThreshold:  decimal.NewFromInt(125140),
		BasicRate:            decimal.NewFromFloat(0.20),
		HigherRate:           decimal.NewFromFloat(0.40),
		AdditionalRate:       decimal.NewFromFloat(0.45),
		NIPrimaryThreshold:   decimal.NewFromInt(12570),
		NIUpperEarningsLimit: decimal.NewFromInt(50270),
		NIMainRate:           decimal.NewFromFloat(0.08),
		NIUpperRate:          decimal.NewFromFloat(0.02),
		VATRate:              decimal.NewFromFloat(0.20),
	}
}

// ParametersFor returns the parameter set for a tax year. The enumeration is
// closed: every known year is an explicit case and anything else takes the
// default year's parameters.
func ParametersFor(year domain.TaxYear) TaxParameters {
	switch year {
	case domain.TaxYear2023:
		p := baseParameters()
		p.NIMainRate = decimal.NewFromFloat(0.12)
		return p
	case domain.TaxYear2024:
		return baseParameters()
	case domain.TaxYear2025:
		return baseParameters()
	default:
		return baseParameters()
	}
}

// ApplyOverrides returns a copy of p with any supplied policy overrides
// substituted. A nil overrides pointer returns p unchanged.
func ApplyOverrides(p TaxParameters, po *domain.PolicyOverrides) TaxParameters {
	if po == nil {
		return p
	}
	if po.PersonalAllowance != nil {
		p.PersonalAllowance = *po.PersonalAllowance
	}
	if po.BasicRate != nil {
		p.BasicRate = *po.BasicRate
	}
	if po.HigherRate != nil {
		p.HigherRate = *po.HigherRate
	}
	if po.AdditionalRate != nil {
		p.AdditionalRate = *po.AdditionalRate
	}
	if po.NIMainRate != nil {
		p.NIMainRate = *po.NIMainRate
	}
	if po.NIUpperRate != nil {
		p.NIUpperRate = *po.NIUpperRate
	}
	if po.VATRate != nil {
		p.VATRate = *po.VATRate
	}
	return p
}
