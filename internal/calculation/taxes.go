package calculation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/taxatlas/taxgo/internal/domain"
)

var (
	taperFloor = decimal.NewFromInt(100000)
	two        = decimal.NewFromInt(2)
)

// round2 rounds a monetary amount to 2 decimal places. Rounding happens at
// each sub-calculation, not once at the end; downstream sums rely on this
// order to reproduce reference output exactly.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// taperedAllowance reduces the personal allowance by £1 for every £2 of
// income above £100,000, floored at zero.
func taperedAllowance(income, allowance decimal.Decimal) decimal.Decimal {
	reduction := decimal.Max(decimal.Zero, income.Sub(taperFloor)).Div(two)
	return decimal.Max(decimal.Zero, allowance.Sub(reduction))
}

// IncomeTaxCalculator computes banded UK income tax from a parameter set.
type IncomeTaxCalculator struct {
	Params TaxParameters
}

// NewIncomeTaxCalculator creates an income tax calculator for one parameter set.
func NewIncomeTaxCalculator(params TaxParameters) *IncomeTaxCalculator {
	return &IncomeTaxCalculator{Params: params}
}

// Calculate returns income tax for an annual income with an optional
// basic-rate band extension. The extension comes from relief-at-source
// pension contributions and gift aid, which widen the amount taxed at the
// lower marginal rate rather than reducing taxable income directly.
func (c *IncomeTaxCalculator) Calculate(income, basicBandExtension decimal.Decimal) decimal.Decimal {
	p := c.Params
	allowance := taperedAllowance(income, p.PersonalAllowance)
	taxable := decimal.Max(decimal.Zero, income.Sub(allowance))

	effectiveBasicBand := decimal.Max(decimal.Zero, p.BasicRateLimit.Add(basicBandExtension))
	basicTaxable := decimal.Min(taxable, effectiveBasicBand)
	higherBandWidth := decimal.Max(decimal.Zero, p.HigherRateThreshold.Sub(allowance).Sub(effectiveBasicBand))
	higherTaxable := decimal.Min(decimal.Max(decimal.Zero, taxable.Sub(effectiveBasicBand)), higherBandWidth)
	additionalTaxable := decimal.Max(decimal.Zero, taxable.Sub(basicTaxable).Sub(higherTaxable))

	tax := basicTaxable.Mul(p.BasicRate).
		Add(higherTaxable.Mul(p.HigherRate)).
		Add(additionalTaxable.Mul(p.AdditionalRate))
	return round2(tax)
}

// scottishBand is one slice of the fixed five-band Scottish schedule.
type scottishBand struct {
	Width decimal.Decimal
	Rate  decimal.Decimal
}

// Simplified Scottish non-savings/non-dividend schedule over taxable income.
// The remainder above the last band is taxed at the top rate.
var (
	scottishBands = []scottishBand{
		{decimal.NewFromInt(2306), decimal.NewFromFloat(0.19)},
		{decimal.NewFromInt(13991 - 2306), decimal.NewFromFloat(0.20)},
		{decimal.NewFromInt(31092 - 13991), decimal.NewFromFloat(0.21)},
		{decimal.NewFromInt(62943 - 31092), decimal.NewFromFloat(0.42)},
	}
	scottishTopRate = decimal.NewFromFloat(0.47)
)

// CalculateScottish replaces the three-band UK structure with the fixed
// five-band Scottish schedule. The allowance taper step is shared.
func (c *IncomeTaxCalculator) CalculateScottish(income decimal.Decimal) decimal.Decimal {
	allowance := taperedAllowance(income, c.Params.PersonalAllowance)
	taxable := decimal.Max(decimal.Zero, income.Sub(allowance))

	total := decimal.Zero
	remaining := taxable
	for _, band := range scottishBands {
		take := decimal.Min(remaining, band.Width)
		if take.LessThanOrEqual(decimal.Zero) {
			break
		}
		total = total.Add(take.Mul(band.Rate))
		remaining = remaining.Sub(take)
	}
	if remaining.GreaterThan(decimal.Zero) {
		total = total.Add(remaining.Mul(scottishTopRate))
	}
	return round2(total)
}

// NICalculator computes employee Class 1 National Insurance.
type NICalculator struct {
	Params TaxParameters
}

// NewNICalculator creates a National Insurance calculator for one parameter set.
func NewNICalculator(params TaxParameters) *NICalculator {
	return &NICalculator{Params: params}
}

// Calculate returns annual employee NI: zero below the primary threshold, the
// main rate up to the upper earnings limit, the upper rate above it.
func (c *NICalculator) Calculate(income decimal.Decimal) decimal.Decimal {
	p := c.Params
	if income.LessThanOrEqual(p.NIPrimaryThreshold) {
		return decimal.Zero
	}
	if income.LessThanOrEqual(p.NIUpperEarningsLimit) {
		return round2(income.Sub(p.NIPrimaryThreshold).Mul(p.NIMainRate))
	}
	main := p.NIUpperEarningsLimit.Sub(p.NIPrimaryThreshold).Mul(p.NIMainRate)
	upper := income.Sub(p.NIUpperEarningsLimit).Mul(p.NIUpperRate)
	return round2(main.Add(upper))
}

// Simplified Class 2 + Class 4 self-employment model. The thresholds are
// pinned rather than drawn from the year's parameter set.
var (
	selfEmployedClass2      = decimal.NewFromFloat(179.4)
	selfEmployedFloor       = decimal.NewFromInt(12570)
	selfEmployedUpperLimit  = decimal.NewFromInt(50270)
	selfEmployedMainNIRate  = decimal.NewFromFloat(0.06)
	selfEmployedUpperNIRate = decimal.NewFromFloat(0.02)
)

// CalculateSelfEmployedNI substitutes the flat-plus-two-band self-employment
// approximation for employee NI.
func CalculateSelfEmployedNI(income decimal.Decimal) decimal.Decimal {
	class2 := decimal.Zero
	if income.GreaterThanOrEqual(selfEmployedFloor) {
		class2 = selfEmployedClass2
	}
	class4Main := decimal.Max(decimal.Zero, decimal.Min(income, selfEmployedUpperLimit).Sub(selfEmployedFloor)).Mul(selfEmployedMainNIRate)
	class4Upper := decimal.Max(decimal.Zero, income.Sub(selfEmployedUpperLimit)).Mul(selfEmployedUpperNIRate)
	return round2(class2.Add(class4Main).Add(class4Upper))
}

// ConsumptionTaxCalculator estimates the VAT embedded in household spending.
type ConsumptionTaxCalculator struct {
	Params TaxParameters
}

// NewConsumptionTaxCalculator creates a VAT estimator for one parameter set.
func NewConsumptionTaxCalculator(params TaxParameters) *ConsumptionTaxCalculator {
	return &ConsumptionTaxCalculator{Params: params}
}

// Calculate extracts the VAT component from VAT-inclusive prices: disposable
// income times the spend ratio times rate/(1+rate). Not VAT-on-top.
func (c *ConsumptionTaxCalculator) Calculate(income, incomeTax, nationalInsurance, spendRatio decimal.Decimal) decimal.Decimal {
	disposable := decimal.Max(decimal.Zero, income.Sub(incomeTax).Sub(nationalInsurance))
	vatableSpend := disposable.Mul(spendRatio)
	rate := c.Params.VATRate
	component := vatableSpend.Mul(rate.Div(decimal.NewFromInt(1).Add(rate)))
	return round2(component)
}

// Savings and dividend taxation use a three-band allowance/rate lookup keyed
// on total income rather than a full marginal computation.
var (
	savingsBasicLimit  = decimal.NewFromInt(50270)
	savingsHigherLimit = decimal.NewFromInt(125140)

	dividendAllowance      = decimal.NewFromInt(500)
	dividendBasicRate      = decimal.NewFromFloat(0.0875)
	dividendHigherRate     = decimal.NewFromFloat(0.3375)
	dividendAdditionalRate = decimal.NewFromFloat(0.3935)
)

// CalculateSavingsTax returns tax on savings interest above the income-banded
// personal savings allowance.
func CalculateSavingsTax(income, savingsInterest decimal.Decimal) decimal.Decimal {
	if savingsInterest.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	var allowance, rate decimal.Decimal
	switch {
	case income.LessThanOrEqual(savingsBasicLimit):
		allowance, rate = decimal.NewFromInt(1000), decimal.NewFromFloat(0.20)
	case income.LessThanOrEqual(savingsHigherLimit):
		allowance, rate = decimal.NewFromInt(500), decimal.NewFromFloat(0.40)
	default:
		allowance, rate = decimal.Zero, decimal.NewFromFloat(0.45)
	}
	taxable := decimal.Max(decimal.Zero, savingsInterest.Sub(allowance))
	return round2(taxable.Mul(rate))
}

// CalculateDividendTax returns tax on dividend income above the dividend
// allowance at the income-banded dividend rate.
func CalculateDividendTax(income, dividendIncome decimal.Decimal) decimal.Decimal {
	if dividendIncome.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	taxable := decimal.Max(decimal.Zero, dividendIncome.Sub(dividendAllowance))
	var rate decimal.Decimal
	switch {
	case income.LessThanOrEqual(savingsBasicLimit):
		rate = dividendBasicRate
	case income.LessThanOrEqual(savingsHigherLimit):
		rate = dividendHigherRate
	default:
		rate = dividendAdditionalRate
	}
	return round2(taxable.Mul(rate))
}

// studentLoanPlan holds the repayment threshold and marginal rate for a plan.
type studentLoanPlan struct {
	Threshold decimal.Decimal
	Rate      decimal.Decimal
}

var studentLoanPlans = map[domain.StudentLoanPlan]studentLoanPlan{
	domain.Plan1:        {decimal.NewFromInt(24990), decimal.NewFromFloat(0.09)},
	domain.Plan2:        {decimal.NewFromInt(27295), decimal.NewFromFloat(0.09)},
	domain.Plan4:        {decimal.NewFromInt(31395), decimal.NewFromFloat(0.09)},
	domain.Plan5:        {decimal.NewFromInt(25000), decimal.NewFromFloat(0.09)},
	domain.PlanPostgrad: {decimal.NewFromInt(21000), decimal.NewFromFloat(0.06)},
}

// CalculateStudentLoan returns the annual repayment for a plan: the plan rate
// on income above the plan threshold, zero for none or unrecognised plans.
func CalculateStudentLoan(income decimal.Decimal, plan domain.StudentLoanPlan) decimal.Decimal {
	p, ok := studentLoanPlans[plan]
	if !ok {
		return decimal.Zero
	}
	repay := decimal.Max(decimal.Zero, income.Sub(p.Threshold)).Mul(p.Rate)
	return round2(repay)
}

// Region-average annual band D council tax. Unknown regions fall back to the
// England average.
var councilTaxAverageByRegion = map[string]decimal.Decimal{
	"north east":               decimal.NewFromInt(2345),
	"north west":               decimal.NewFromInt(2280),
	"yorkshire and the humber": decimal.NewFromInt(2240),
	"east midlands":            decimal.NewFromInt(2310),
	"west midlands":            decimal.NewFromInt(2290),
	"east of england":          decimal.NewFromInt(2440),
	"london":                   decimal.NewFromInt(2170),
	"south east":               decimal.NewFromInt(2435),
	"south west":               decimal.NewFromInt(2445),
	"england":                  decimal.NewFromInt(2280),
	"wales":                    decimal.NewFromInt(2200),
	"scotland":                 decimal.NewFromInt(1590),
	"northern ireland":         decimal.NewFromInt(1250),
}

// Band multipliers relative to band D, in ninths.
var councilTaxBandMultiplier = map[domain.CouncilTaxBand]decimal.Decimal{
	domain.BandA: decimal.NewFromInt(6).Div(decimal.NewFromInt(9)),
	domain.BandB: decimal.NewFromInt(7).Div(decimal.NewFromInt(9)),
	domain.BandC: decimal.NewFromInt(8).Div(decimal.NewFromInt(9)),
	domain.BandD: decimal.NewFromInt(1),
	domain.BandE: decimal.NewFromInt(11).Div(decimal.NewFromInt(9)),
	domain.BandF: decimal.NewFromInt(13).Div(decimal.NewFromInt(9)),
	domain.BandG: decimal.NewFromInt(15).Div(decimal.NewFromInt(9)),
	domain.BandH: decimal.NewFromInt(18).Div(decimal.NewFromInt(9)),
}

// CalculateCouncilTax returns the region-average base price scaled by the
// band multiplier. BandAuto and unknown bands return the base unchanged.
func CalculateCouncilTax(region string, band domain.CouncilTaxBand) decimal.Decimal {
	key := strings.ToLower(strings.TrimSpace(region))
	base, ok := councilTaxAverageByRegion[key]
	if !ok {
		base = councilTaxAverageByRegion["england"]
	}
	if band == domain.BandAuto {
		return base
	}
	multiplier, ok := councilTaxBandMultiplier[band]
	if !ok {
		return base
	}
	return round2(base.Mul(multiplier))
}
