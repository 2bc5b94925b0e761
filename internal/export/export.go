// Package export assembles the journalist bundle: the tax estimate, both
// attribution views, the regional view and two delimited-text tables in one
// structured payload.
package export

import (
	"context"
	"time"

	"github.com/taxatlas/taxgo/internal/attribution"
	"github.com/taxatlas/taxgo/internal/calculation"
	"github.com/taxatlas/taxgo/internal/domain"
	"github.com/taxatlas/taxgo/internal/output"
	"github.com/taxatlas/taxgo/internal/regional"
)

// Exporter runs every engine once over a single household request.
type Exporter struct {
	Household   *calculation.HouseholdEngine
	Attribution *attribution.Engine
	Regional    *regional.Engine
}

// NewExporter creates an exporter over the three engines.
func NewExporter(household *calculation.HouseholdEngine, attr *attribution.Engine, reg *regional.Engine) *Exporter {
	return &Exporter{Household: household, Attribution: attr, Regional: reg}
}

// Build produces the full journalist export for one household. The breakdown
// carries the top 12 services, the impact view the first hundred, and the
// regional view the first two hundred flows.
func (e *Exporter) Build(ctx context.Context, req domain.TaxEstimateRequest) (*domain.JournalistExport, error) {
	req.ApplyDefaults()

	estimate, err := e.Household.Estimate(ctx, req)
	if err != nil {
		return nil, err
	}

	breakdown, err := e.Attribution.SpendingBreakdown(estimate.TotalEstimatedTax,
		domain.DefaultRevenueYear, domain.DefaultSpendingYear, 12)
	if err != nil {
		return nil, err
	}
	impact, err := e.Attribution.ServicesImpact(estimate.TotalEstimatedTax,
		domain.DefaultRevenueYear, domain.DefaultSpendingYear, 1, 100)
	if err != nil {
		return nil, err
	}

	flows, err := e.Regional.RegionalFlows(domain.RegionalFlowsRequest{
		Year:     domain.DefaultFiscalYear,
		Page:     1,
		PageSize: 200,
	})
	if err != nil {
		return nil, err
	}

	servicesCSV, err := output.ServicesCSV(impact.Services)
	if err != nil {
		return nil, err
	}
	balancesCSV, err := output.RegionalBalancesCSV(flows.Balances)
	if err != nil {
		return nil, err
	}

	return &domain.JournalistExport{
		ExportedAtUTC:       time.Now().UTC().Format(time.RFC3339),
		Tax:                 estimate,
		SpendingBreakdown:   breakdown,
		ServicesImpact:      impact,
		RegionalFlows:       flows,
		ServicesCSV:         servicesCSV,
		RegionalBalancesCSV: balancesCSV,
	}, nil
}
