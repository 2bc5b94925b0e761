// Package attribution maps a household's total tax onto the national
// spending functions in proportion to its share of total revenue.
package attribution

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/taxatlas/taxgo/internal/domain"
	"github.com/taxatlas/taxgo/internal/pagination"
	"github.com/taxatlas/taxgo/internal/tables"
)

var million = decimal.NewFromInt(1000000)

// Engine computes service-level contribution breakdowns from the cached
// national tables.
type Engine struct {
	Tables *tables.Store
}

// NewEngine creates an attribution engine over a table store.
func NewEngine(store *tables.Store) *Engine {
	return &Engine{Tables: store}
}

// build computes every service contribution, sorted descending by the
// household's imputed contribution. The sort is stable so ties keep source
// order.
func (e *Engine) build(userTotalTax decimal.Decimal, revenueYear, spendingYear string) (decimal.Decimal, decimal.Decimal, []domain.ServiceContribution, error) {
	totalRevenueM, err := e.Tables.TotalUKRevenueM(revenueYear)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, nil, err
	}
	userShare := userTotalTax.Div(million).Div(totalRevenueM)

	funcs, err := e.Tables.SubFunctionSpending(spendingYear)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, nil, err
	}

	services := make([]domain.ServiceContribution, 0, len(funcs))
	for _, f := range funcs {
		contribution := f.AmountM.Mul(userShare).Mul(million)
		sharePct := decimal.Zero
		if !userTotalTax.IsZero() {
			sharePct = contribution.Div(userTotalTax).Mul(decimal.NewFromInt(100))
		}
		services = append(services, domain.ServiceContribution{
			FunctionLabel:     f.FunctionLabel,
			SpendingAmountM:   f.AmountM.Round(2),
			UserContribution:  contribution.Round(2),
			ShareOfUserTaxPct: sharePct.Round(4),
		})
	}

	sort.SliceStable(services, func(i, j int) bool {
		return services[i].UserContribution.GreaterThan(services[j].UserContribution)
	})
	return totalRevenueM.Round(2), userShare.Round(10), services, nil
}

// ServicesImpact returns one page of the full ranked contribution list.
func (e *Engine) ServicesImpact(userTotalTax decimal.Decimal, revenueYear, spendingYear string, page, pageSize int) (*domain.ServicesImpact, error) {
	totalRevenueM, userShare, services, err := e.build(userTotalTax, revenueYear, spendingYear)
	if err != nil {
		return nil, err
	}
	pageItems, totalItems := pagination.Page(services, page, pageSize)
	return &domain.ServicesImpact{
		TotalUKTaxRevenueM: totalRevenueM,
		UserTotalTax:       userTotalTax.Round(2),
		UserShareOfRevenue: userShare,
		SpendingYear:       spendingYear,
		RevenueYear:        revenueYear,
		Page:               page,
		PageSize:           pageSize,
		TotalItems:         totalItems,
		Services:           pageItems,
	}, nil
}

// SpendingBreakdown returns the top-N ranked contributions.
func (e *Engine) SpendingBreakdown(userTotalTax decimal.Decimal, revenueYear, spendingYear string, topN int) (*domain.SpendingBreakdown, error) {
	impact, err := e.ServicesImpact(userTotalTax, revenueYear, spendingYear, 1, topN)
	if err != nil {
		return nil, err
	}
	return &domain.SpendingBreakdown{
		TotalUKTaxRevenueM: impact.TotalUKTaxRevenueM,
		UserTotalTax:       impact.UserTotalTax,
		UserShareOfRevenue: impact.UserShareOfRevenue,
		SpendingYear:       impact.SpendingYear,
		RevenueYear:        impact.RevenueYear,
		Services:           impact.Services,
	}, nil
}
