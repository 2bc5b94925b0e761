// Package regional computes each region's net fiscal balance and the
// proportional surplus-to-deficit transfer flows between regions.
package regional

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/taxatlas/taxgo/internal/domain"
	"github.com/taxatlas/taxgo/internal/pagination"
	"github.com/taxatlas/taxgo/internal/tables"
)

// flowNoiseFloor drops sub-£10k flows as rounding noise.
var flowNoiseFloor = decimal.NewFromFloat(0.01)

// Engine derives regional balances and flows from the cached tables.
type Engine struct {
	Tables *tables.Store
}

// NewEngine creates a regional engine over a table store.
func NewEngine(store *tables.Store) *Engine {
	return &Engine{Tables: store}
}

// ComputeBalances derives net balances for the closed region set from the
// revenue and expenditure tables. A region absent from the expenditure table
// counts as zero expenditure, not an exclusion. Results sort alphabetically
// by region name.
func (e *Engine) ComputeBalances(year string) ([]domain.RegionBalance, error) {
	revenue, err := e.Tables.RegionalRevenue(year)
	if err != nil {
		return nil, err
	}
	expenditure, err := e.Tables.RegionalExpenditure(year)
	if err != nil {
		return nil, err
	}

	balances := make([]domain.RegionBalance, 0, len(revenue))
	for code, rev := range revenue {
		spending := decimal.Zero
		if exp, ok := expenditure[code]; ok {
			spending = exp.AmountM
		}
		balances = append(balances, domain.RegionBalance{
			GeographyCode: code,
			GeographyName: rev.Name,
			ContributionM: rev.AmountM.Round(2),
			SpendingM:     spending.Round(2),
			NetBalanceM:   rev.AmountM.Sub(spending).Round(2),
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		return balances[i].GeographyName < balances[j].GeographyName
	})
	return balances, nil
}

// ComputeFlows allocates the transferable total across every donor-recipient
// pair in proportion to each side's weight. This is a proportional
// allocation, not a matching or max-flow solve: the redistribution carries no
// capacity constraints beyond each side's own total, so
// sum(flows) ~= min(total surplus, total deficit) by construction.
func ComputeFlows(balances []domain.RegionBalance) []domain.RegionalFlow {
	var donors, recipients []domain.RegionBalance
	for _, b := range balances {
		switch {
		case b.NetBalanceM.GreaterThan(decimal.Zero):
			donors = append(donors, b)
		case b.NetBalanceM.LessThan(decimal.Zero):
			recipients = append(recipients, b)
		}
	}

	totalSurplus := decimal.Zero
	for _, d := range donors {
		totalSurplus = totalSurplus.Add(d.NetBalanceM)
	}
	totalDeficit := decimal.Zero
	for _, r := range recipients {
		totalDeficit = totalDeficit.Add(r.NetBalanceM.Neg())
	}
	if totalSurplus.LessThanOrEqual(decimal.Zero) || totalDeficit.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	transferTotal := decimal.Min(totalSurplus, totalDeficit)
	var flows []domain.RegionalFlow
	for _, d := range donors {
		donorWeight := d.NetBalanceM.Div(totalSurplus)
		donorTransfer := transferTotal.Mul(donorWeight)
		for _, r := range recipients {
			recipientWeight := r.NetBalanceM.Neg().Div(totalDeficit)
			value := donorTransfer.Mul(recipientWeight)
			if value.LessThan(flowNoiseFloor) {
				continue
			}
			flows = append(flows, domain.RegionalFlow{
				OriginRegion:      d.GeographyName,
				DestinationRegion: r.GeographyName,
				ValueM:            value.Round(4),
			})
		}
	}
	sort.SliceStable(flows, func(i, j int) bool {
		return flows[i].ValueM.GreaterThan(flows[j].ValueM)
	})
	return flows
}

// Balances returns the precomputed balance snapshot when one exists for the
// year, otherwise derives balances from the source tables.
func (e *Engine) Balances(year string) ([]domain.RegionBalance, error) {
	precomputed, err := e.Tables.PrecomputedBalances(year)
	if err != nil {
		return nil, err
	}
	if len(precomputed) > 0 {
		return precomputed, nil
	}
	return e.ComputeBalances(year)
}

// Flows returns the precomputed flow snapshot when one exists for the year,
// otherwise recomputes flows from the balances.
func (e *Engine) Flows(year string) ([]domain.RegionalFlow, error) {
	precomputed, err := e.Tables.PrecomputedFlows(year)
	if err != nil {
		return nil, err
	}
	if len(precomputed) > 0 {
		return precomputed, nil
	}
	balances, err := e.Balances(year)
	if err != nil {
		return nil, err
	}
	return ComputeFlows(balances), nil
}

// RegionalFlows assembles the full regional view: balances, one page of
// flows, and the borrowing figure. The official figure is reported verbatim
// when its snapshot is present; otherwise the method flag tells the caller
// the figure is implied by the regional revenue/expenditure gap.
func (e *Engine) RegionalFlows(req domain.RegionalFlowsRequest) (*domain.RegionalFlows, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	balances, err := e.Balances(req.Year)
	if err != nil {
		return nil, err
	}
	flows, err := e.Flows(req.Year)
	if err != nil {
		return nil, err
	}
	pageFlows, totalItems := pagination.Page(flows, req.Page, req.PageSize)

	result := &domain.RegionalFlows{
		Year:            req.Year,
		Page:            req.Page,
		PageSize:        req.PageSize,
		TotalItems:      totalItems,
		BorrowingMethod: domain.BorrowingImplied,
		Balances:        balances,
		Flows:           pageFlows,
	}

	// Best effort; a broken or absent borrowing snapshot never fails the
	// request.
	if official, err := e.Tables.OfficialBorrowing(); err == nil && official != nil {
		amount := official.AmountB
		result.OfficialBorrowingB = &amount
		result.OfficialBorrowingRelease = official.ReleasePeriod
		result.OfficialBorrowingRef = official.ReferencePeriod
		result.BorrowingMethod = domain.BorrowingOfficial
	}
	return result, nil
}
