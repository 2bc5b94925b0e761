package calculation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxatlas/taxgo/internal/domain"
)

func baseRequest() domain.TaxEstimateRequest {
	req := domain.TaxEstimateRequest{
		AnnualIncome: decimal.NewFromInt(50000),
	}
	req.ApplyDefaults()
	return req
}

type stubResolver struct {
	council string
	region  string
	ok      bool
	calls   int
}

func (s *stubResolver) Resolve(ctx context.Context, postcode string) (string, string, bool) {
	s.calls++
	return s.council, s.region, s.ok
}

func TestEstimateSingleEarner(t *testing.T) {
	engine := NewHouseholdEngine(nil)
	estimate, err := engine.Estimate(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.True(t, estimate.IncomeTax.Equal(d("7486")), "income tax: %s", estimate.IncomeTax)
	assert.True(t, estimate.NationalInsurance.Equal(d("2994.40")), "NI: %s", estimate.NationalInsurance)
	assert.True(t, estimate.VATEstimate.Equal(d("3951.96")), "VAT: %s", estimate.VATEstimate)
	assert.True(t, estimate.CouncilTaxEstimate.Equal(d("2280")), "council: %s", estimate.CouncilTaxEstimate)
	assert.True(t, estimate.TotalEstimatedTax.Equal(d("16712.36")), "total: %s", estimate.TotalEstimatedTax)
	assert.True(t, estimate.EffectiveTaxRate.Equal(d("0.334247")), "effective: %s", estimate.EffectiveTaxRate)
	assert.True(t, estimate.TakeHome.Equal(d("33287.64")), "take-home: %s", estimate.TakeHome)
	assert.Nil(t, estimate.HistoricalComparison)
}

func TestEstimateUncertaintyRange(t *testing.T) {
	engine := NewHouseholdEngine(nil)
	estimate, err := engine.Estimate(context.Background(), baseRequest())
	require.NoError(t, err)

	require.NotNil(t, estimate.UncertaintyRange)
	assert.True(t, estimate.UncertaintyRange.Low.Equal(d("15825.70")), "low: %s", estimate.UncertaintyRange.Low)
	assert.True(t, estimate.UncertaintyRange.High.Equal(d("17599.02")), "high: %s", estimate.UncertaintyRange.High)
	assert.True(t, estimate.UncertaintyRange.Low.LessThan(estimate.TotalEstimatedTax))
	assert.True(t, estimate.UncertaintyRange.High.GreaterThan(estimate.TotalEstimatedTax))
}

func TestEstimateUncertaintyRatioClamped(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	req := baseRequest()
	req.VatableSpendRatio = d("0.95")
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)

	// 0.95 + 0.10 clamps at 1.0, so the high perturbation is smaller than the
	// low one; the range still brackets the point estimate.
	require.NotNil(t, estimate.UncertaintyRange)
	assert.True(t, estimate.UncertaintyRange.High.GreaterThanOrEqual(estimate.TotalEstimatedTax))
}

func TestEstimateCouncilOverrideSkipsPerturbation(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	override := decimal.NewFromInt(1800)
	req := baseRequest()
	req.CouncilTaxAnnualOverride = &override
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, estimate.CouncilTaxEstimate.Equal(d("1800")))

	// With the override fixed, the only uncertainty left is the VAT ratio:
	// the spread is exactly vatHigh - vatLow at the +-0.10 perturbation.
	spread := estimate.UncertaintyRange.High.Sub(estimate.UncertaintyRange.Low)
	assert.True(t, spread.Equal(d("1317.32")), "spread: %s", spread)
}

func TestEstimateYearComparison(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	req := baseRequest()
	req.CompareTaxYear = domain.TaxYear2023
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, estimate.HistoricalComparison)
	c := estimate.HistoricalComparison
	assert.Equal(t, domain.TaxYear2023, c.CompareTaxYear)

	// 2023-24 carried the 12% NI main rate, so the same inputs cost more.
	assert.True(t, c.TotalEstimatedTax.Equal(d("18059.84")), "compare total: %s", c.TotalEstimatedTax)
	assert.True(t, c.DeltaVsSelected.Equal(d("1347.48")), "delta: %s", c.DeltaVsSelected)
	assert.True(t, c.DeltaVsSelectedPercent.GreaterThan(d("8.06")))
	assert.True(t, c.DeltaVsSelectedPercent.LessThan(d("8.07")))
}

func TestEstimateComparisonSameYearSkipped(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	req := baseRequest()
	req.CompareTaxYear = req.TaxYear
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, estimate.HistoricalComparison)
}

func TestEstimateMarriageAllowance(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	tests := []struct {
		name          string
		primary       string
		partner       string
		transfer      bool
		wantCredit    string
		wantIncomeTax string
	}{
		{
			// Partner under the allowance, primary a basic-rate payer.
			name:          "credit against primary",
			primary:       "30000",
			partner:       "10000",
			transfer:      true,
			wantCredit:    "252",
			wantIncomeTax: "3234",
		},
		{
			// Both partners over the allowance: no transfer available.
			name:          "both above allowance",
			primary:       "30000",
			partner:       "20000",
			transfer:      true,
			wantCredit:    "0",
			wantIncomeTax: "4972",
		},
		{
			// Transfer not requested.
			name:          "transfer off",
			primary:       "30000",
			partner:       "10000",
			transfer:      false,
			wantCredit:    "0",
			wantIncomeTax: "3486",
		},
		{
			// Higher-threshold breach on the primary disqualifies the couple.
			name:          "primary above higher threshold",
			primary:       "130000",
			partner:       "10000",
			transfer:      true,
			wantCredit:    "0",
			wantIncomeTax: "44703",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			req.AnnualIncome = d(tt.primary)
			req.PartnerAnnualIncome = d(tt.partner)
			req.MarriageAllowanceTransfer = tt.transfer

			estimate, err := engine.Estimate(context.Background(), req)
			require.NoError(t, err)
			assert.True(t, estimate.Assumptions.MarriageAllowanceCredit.Equal(d(tt.wantCredit)),
				"credit: %s", estimate.Assumptions.MarriageAllowanceCredit)
			assert.True(t, estimate.IncomeTax.Equal(d(tt.wantIncomeTax)),
				"income tax: %s", estimate.IncomeTax)
		})
	}
}

func TestEstimateSelfEmployedNISubstitution(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	req := baseRequest()
	req.EmploymentType = domain.EmploymentSelfEmployed
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)

	// Class 2 + Class 4 at 50,000: 179.40 + (50000-12570)*0.06.
	assert.True(t, estimate.NationalInsurance.Equal(d("2425.20")),
		"NI: %s", estimate.NationalInsurance)
}

func TestEstimateScottishSchedule(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	req := baseRequest()
	req.Nation = domain.NationScotland
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, estimate.IncomeTax.Equal(d("11028.31")), "income tax: %s", estimate.IncomeTax)
}

func TestEstimateSalarySacrificeReducesAdjustedIncome(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	req := baseRequest()
	req.PensionSalarySacrifice = decimal.NewFromInt(5000)
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, estimate.Assumptions.AdjustedIncome.Equal(d("45000")))
	// 45,000 is still all basic rate: (45000-12570)*0.20.
	assert.True(t, estimate.IncomeTax.Equal(d("6486")), "income tax: %s", estimate.IncomeTax)
}

func TestEstimatePostcodeLookup(t *testing.T) {
	resolver := &stubResolver{council: "Leeds", region: "Yorkshire and The Humber", ok: true}
	engine := NewHouseholdEngine(resolver)

	req := baseRequest()
	req.Postcode = "LS1 1UR"
	req.CompareTaxYear = domain.TaxYear2023
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Leeds", estimate.Assumptions.CouncilName)
	assert.Equal(t, "Yorkshire and The Humber", estimate.Assumptions.CouncilTaxRegionUsed)
	assert.True(t, estimate.CouncilTaxEstimate.Equal(d("2240")))
	// One lookup even with the comparison rerun.
	assert.Equal(t, 1, resolver.calls)
}

func TestEstimateExplicitCouncilNameWins(t *testing.T) {
	resolver := &stubResolver{council: "Leeds", region: "Yorkshire and The Humber", ok: true}
	engine := NewHouseholdEngine(resolver)

	req := baseRequest()
	req.Postcode = "LS1 1UR"
	req.CouncilName = "Manchester"
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Manchester", estimate.Assumptions.CouncilName)
}

func TestEstimateFailedLookupFallsBackToRegion(t *testing.T) {
	resolver := &stubResolver{ok: false}
	engine := NewHouseholdEngine(resolver)

	req := baseRequest()
	req.Postcode = "ZZ1 1ZZ"
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "England", estimate.Assumptions.CouncilTaxRegionUsed)
	assert.True(t, estimate.CouncilTaxEstimate.Equal(d("2280")))
}

func TestEstimatePolicyOverrides(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	basic := d("0.25")
	req := baseRequest()
	req.PolicyOverrides = &domain.PolicyOverrides{BasicRate: &basic}
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, estimate.Assumptions.PolicySimulationActive)
	// (50000-12570) * 0.25.
	assert.True(t, estimate.IncomeTax.Equal(d("9357.50")), "income tax: %s", estimate.IncomeTax)
}

func TestEstimateRejectsInvalidRequests(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	req := baseRequest()
	req.AnnualIncome = decimal.Zero
	_, err := engine.Estimate(context.Background(), req)
	assert.Error(t, err)

	req = baseRequest()
	req.VatableSpendRatio = d("1.5")
	_, err = engine.Estimate(context.Background(), req)
	assert.Error(t, err)

	req = baseRequest()
	req.TaxYear = domain.TaxYear("2010-11")
	_, err = engine.Estimate(context.Background(), req)
	assert.Error(t, err)
}

func TestEstimateHouseholdSummary(t *testing.T) {
	engine := NewHouseholdEngine(nil)

	req := baseRequest()
	req.PartnerAnnualIncome = decimal.NewFromInt(20000)
	estimate, err := engine.Estimate(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, estimate.HouseholdSummary)
	assert.True(t, estimate.HouseholdSummary.HouseholdIncome.Equal(d("70000")))
	assert.Equal(t, 2, estimate.HouseholdSummary.HouseholdAdults)
}
