// Package api exposes the engines over HTTP with JSON request and response
// bodies, per-client rate limiting and a shared response cache.
package api

import (
	"net/http"
	"time"

	"github.com/taxatlas/taxgo/internal/attribution"
	"github.com/taxatlas/taxgo/internal/cache"
	"github.com/taxatlas/taxgo/internal/calculation"
	"github.com/taxatlas/taxgo/internal/domain"
	"github.com/taxatlas/taxgo/internal/export"
	"github.com/taxatlas/taxgo/internal/regional"
)

// Server wires the handlers onto a mux.
type Server struct {
	Estimate    *EstimateHandler
	Attribution *AttributionHandler
	Regional    *RegionalHandler
	Export      *ExportHandler
	Limiter     *RateLimiter
	Version     string
}

// NewServer assembles the handler set over the three engines.
func NewServer(household *calculation.HouseholdEngine, attr *attribution.Engine,
	reg *regional.Engine, c cache.Cache, version string) *Server {
	return &Server{
		Estimate:    NewEstimateHandler(household),
		Attribution: NewAttributionHandler(household, attr),
		Regional:    NewRegionalHandler(reg, c),
		Export:      NewExportHandler(export.NewExporter(household, attr, reg)),
		Limiter:     NewRateLimiter(30, time.Minute),
		Version:     version,
	}
}

// Handler returns the routed mux. Calculation routes sit behind the rate
// limiter; health and meta do not.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	limited := func(h http.HandlerFunc) http.Handler {
		return RateLimitMiddleware(s.Limiter, h)
	}

	mux.Handle("/tax/estimate", limited(s.Estimate.Estimate))
	mux.Handle("/spending/breakdown", limited(s.Attribution.SpendingBreakdown))
	mux.Handle("/services/impact", limited(s.Attribution.ServicesImpact))
	mux.Handle("/regional/flows", limited(s.Regional.RegionalFlows))
	mux.Handle("/journalist/export", limited(s.Export.JournalistExport))

	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/public/meta", s.meta)

	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) meta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version":          s.Version,
		"tax_years":        []domain.TaxYear{domain.TaxYear2023, domain.TaxYear2024, domain.TaxYear2025},
		"default_tax_year": domain.DefaultTaxYear,
		"spending_year":    domain.DefaultSpendingYear,
		"revenue_year":     domain.DefaultRevenueYear,
		"fiscal_year":      domain.DefaultFiscalYear,
	})
}
