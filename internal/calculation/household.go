package calculation

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/taxatlas/taxgo/internal/domain"
)

// CouncilResolver resolves a postcode to a council name and region. A failed
// or timed-out lookup reports ok=false and never fails the estimate.
type CouncilResolver interface {
	Resolve(ctx context.Context, postcode string) (council, region string, ok bool)
}

// HouseholdEngine combines the per-person calculators into a household-level
// estimate with marriage allowance, an uncertainty range and an optional
// year-over-year comparison.
type HouseholdEngine struct {
	Councils CouncilResolver // optional; nil disables postcode lookup
}

// NewHouseholdEngine creates a household engine.
func NewHouseholdEngine(councils CouncilResolver) *HouseholdEngine {
	return &HouseholdEngine{Councils: councils}
}

var (
	ratioPerturbation = decimal.NewFromFloat(0.10)
	councilLowFactor  = decimal.NewFromFloat(0.9)
	councilHighFactor = decimal.NewFromFloat(1.1)
	one               = decimal.NewFromInt(1)
	percentMultiplier = decimal.NewFromInt(100)
)

// Estimate runs the full household pipeline for the request's tax year and,
// when a comparison year is selected, reruns it with the comparison year's
// parameters and identical inputs.
func (e *HouseholdEngine) Estimate(ctx context.Context, req domain.TaxEstimateRequest) (*domain.TaxEstimate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var councilName, lookupRegion string
	if req.Postcode != "" && e.Councils != nil {
		if council, region, ok := e.Councils.Resolve(ctx, req.Postcode); ok {
			councilName, lookupRegion = council, region
		}
	}
	if req.CouncilName != "" {
		councilName = req.CouncilName
	}

	estimate := e.compute(req, req.TaxYear, councilName, lookupRegion)

	if req.CompareTaxYear != domain.CompareNone && req.CompareTaxYear != req.TaxYear {
		compare := e.compute(req, req.CompareTaxYear, councilName, lookupRegion)
		delta := round2(compare.TotalEstimatedTax.Sub(estimate.TotalEstimatedTax))
		deltaPct := decimal.Zero
		if !estimate.TotalEstimatedTax.IsZero() {
			deltaPct = delta.Div(estimate.TotalEstimatedTax).Mul(percentMultiplier).Round(4)
		}
		estimate.HistoricalComparison = &domain.YearComparison{
			CompareTaxYear:         req.CompareTaxYear,
			TotalEstimatedTax:      compare.TotalEstimatedTax,
			DeltaVsSelected:        delta,
			DeltaVsSelectedPercent: deltaPct,
		}
	}

	return estimate, nil
}

// compute runs one full pass of the pipeline under a single year's
// parameters. The postcode lookup result is resolved once by the caller so a
// comparison rerun does not repeat it.
func (e *HouseholdEngine) compute(req domain.TaxEstimateRequest, year domain.TaxYear, councilName, lookupRegion string) *domain.TaxEstimate {
	params := ApplyOverrides(ParametersFor(year), req.PolicyOverrides)
	incomeTaxCalc := NewIncomeTaxCalculator(params)
	niCalc := NewNICalculator(params)
	vatCalc := NewConsumptionTaxCalculator(params)

	adjustedIncome := decimal.Max(decimal.Zero,
		req.AnnualIncome.Sub(req.PensionSalarySacrifice).Sub(req.OtherPreTaxDeductions))
	adjustedPartnerIncome := decimal.Max(decimal.Zero, req.PartnerAnnualIncome)
	basicBandExtension := req.PensionReliefAtSource.Add(req.GiftAid)

	primaryTax := incomeTaxCalc.Calculate(adjustedIncome, basicBandExtension)
	if req.Nation == domain.NationScotland {
		primaryTax = incomeTaxCalc.CalculateScottish(adjustedIncome)
	}
	primaryNI := niCalc.Calculate(adjustedIncome)
	if req.EmploymentType.SelfEmployed() {
		primaryNI = CalculateSelfEmployedNI(adjustedIncome)
	}

	// Partner is always taxed on the standard band structure with no
	// basic-band extension; reliefs attach to the primary earner's inputs.
	partnerTax := incomeTaxCalc.Calculate(adjustedPartnerIncome, decimal.Zero)
	partnerNI := niCalc.Calculate(adjustedPartnerIncome)

	marriageCredit := decimal.Zero
	if req.MarriageAllowanceTransfer && adjustedPartnerIncome.GreaterThan(decimal.Zero) {
		lower := decimal.Min(adjustedIncome, adjustedPartnerIncome)
		higher := decimal.Max(adjustedIncome, adjustedPartnerIncome)
		if lower.LessThanOrEqual(params.PersonalAllowance) && higher.LessThanOrEqual(params.HigherRateThreshold) {
			marriageCredit = decimal.Min(MarriageAllowanceCredit, decimal.Max(primaryTax, partnerTax))
			// Credit goes against whichever partner owes the larger
			// income tax, never both.
			if primaryTax.GreaterThanOrEqual(partnerTax) {
				primaryTax = round2(primaryTax.Sub(marriageCredit))
			} else {
				partnerTax = round2(partnerTax.Sub(marriageCredit))
			}
		}
	}

	householdIncomeTax := round2(primaryTax.Add(partnerTax))
	householdNI := round2(primaryNI.Add(partnerNI))
	grossHouseholdIncome := req.AnnualIncome.Add(req.PartnerAnnualIncome)
	adjustedHouseholdIncome := adjustedIncome.Add(adjustedPartnerIncome)

	vat := vatCalc.Calculate(adjustedHouseholdIncome, householdIncomeTax, householdNI, req.VatableSpendRatio)

	councilRegion := lookupRegion
	if councilRegion == "" {
		councilRegion = req.Region
	}
	var council decimal.Decimal
	if req.CouncilTaxAnnualOverride != nil {
		council = round2(*req.CouncilTaxAnnualOverride)
	} else {
		council = CalculateCouncilTax(councilRegion, req.CouncilTaxBand)
	}

	savingsTax := CalculateSavingsTax(adjustedIncome, req.SavingsInterest)
	dividendTax := CalculateDividendTax(adjustedIncome, req.DividendIncome)
	studentLoan := CalculateStudentLoan(adjustedIncome, req.StudentLoanPlan)

	total := round2(householdIncomeTax.Add(householdNI).Add(vat).Add(council).
		Add(savingsTax).Add(dividendTax).Add(studentLoan))
	effective := decimal.Zero
	if !grossHouseholdIncome.IsZero() {
		effective = total.Div(grossHouseholdIncome).Round(6)
	}
	takeHome := round2(grossHouseholdIncome.Sub(total))

	// Uncertainty: rerun only the consumption and council estimates at the
	// perturbed inputs, holding every other component constant.
	ratioLow := decimal.Max(decimal.Zero, req.VatableSpendRatio.Sub(ratioPerturbation))
	ratioHigh := decimal.Min(one, req.VatableSpendRatio.Add(ratioPerturbation))
	vatLow := vatCalc.Calculate(adjustedHouseholdIncome, householdIncomeTax, householdNI, ratioLow)
	vatHigh := vatCalc.Calculate(adjustedHouseholdIncome, householdIncomeTax, householdNI, ratioHigh)
	councilLow, councilHigh := council, council
	if req.CouncilTaxAnnualOverride == nil {
		councilLow = round2(council.Mul(councilLowFactor))
		councilHigh = round2(council.Mul(councilHighFactor))
	}
	fixed := householdIncomeTax.Add(householdNI).Add(savingsTax).Add(dividendTax).Add(studentLoan)
	totalLow := round2(fixed.Add(vatLow).Add(councilLow))
	totalHigh := round2(fixed.Add(vatHigh).Add(councilHigh))

	adults := 1
	if req.PartnerAnnualIncome.GreaterThan(decimal.Zero) {
		adults = 2
	}

	return &domain.TaxEstimate{
		AnnualIncome:         round2(req.AnnualIncome),
		IncomeTax:            householdIncomeTax,
		NationalInsurance:    householdNI,
		VATEstimate:          vat,
		CouncilTaxEstimate:   council,
		StudentLoanRepayment: studentLoan,
		SavingsTax:           savingsTax,
		DividendTax:          dividendTax,
		TotalEstimatedTax:    total,
		EffectiveTaxRate:     effective,
		TakeHome:             takeHome,
		Assumptions: domain.Assumptions{
			TaxYear:                 year,
			VatableSpendRatio:       req.VatableSpendRatio,
			VATRate:                 params.VATRate,
			NIMainRate:              params.NIMainRate,
			NIUpperRate:             params.NIUpperRate,
			AdjustedIncome:          round2(adjustedIncome),
			AdjustedPartnerIncome:   round2(adjustedPartnerIncome),
			PensionSalarySacrifice:  req.PensionSalarySacrifice,
			PensionReliefAtSource:   req.PensionReliefAtSource,
			GiftAid:                 req.GiftAid,
			OtherPreTaxDeductions:   req.OtherPreTaxDeductions,
			CouncilTaxBand:          req.CouncilTaxBand,
			CouncilName:             councilName,
			PostcodeLookupRegion:    lookupRegion,
			CouncilTaxRegionUsed:    councilRegion,
			Nation:                  req.Nation,
			EmploymentType:          req.EmploymentType,
			StudentLoanPlan:         req.StudentLoanPlan,
			PolicySimulationActive:  req.PolicyOverrides != nil,
			MarriageAllowanceCredit: marriageCredit,
		},
		HouseholdSummary: &domain.HouseholdSummary{
			HouseholdIncome:           round2(grossHouseholdIncome),
			PartnerAnnualIncome:       round2(req.PartnerAnnualIncome),
			HouseholdAdults:           adults,
			MarriageAllowanceTransfer: req.MarriageAllowanceTransfer,
		},
		UncertaintyRange: &domain.UncertaintyRange{Low: totalLow, High: totalHigh},
	}
}
