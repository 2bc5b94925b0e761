package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/taxatlas/taxgo/internal/attribution"
	"github.com/taxatlas/taxgo/internal/cache"
	"github.com/taxatlas/taxgo/internal/calculation"
	"github.com/taxatlas/taxgo/internal/domain"
	"github.com/taxatlas/taxgo/internal/export"
	"github.com/taxatlas/taxgo/internal/regional"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrDataNotFound) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// EstimateHandler serves household tax estimates.
type EstimateHandler struct {
	engine *calculation.HouseholdEngine
}

// NewEstimateHandler creates the estimate handler.
func NewEstimateHandler(engine *calculation.HouseholdEngine) *EstimateHandler {
	return &EstimateHandler{engine: engine}
}

func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.TaxEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ApplyDefaults()

	result, err := h.engine.Estimate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// AttributionHandler serves the spending breakdown and services impact views.
type AttributionHandler struct {
	household   *calculation.HouseholdEngine
	attribution *attribution.Engine
}

// NewAttributionHandler creates the attribution handler.
func NewAttributionHandler(household *calculation.HouseholdEngine, attr *attribution.Engine) *AttributionHandler {
	return &AttributionHandler{household: household, attribution: attr}
}

func (h *AttributionHandler) SpendingBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.SpendingBreakdownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	estimate, err := h.household.Estimate(r.Context(), req.TaxEstimateRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.attribution.SpendingBreakdown(estimate.TotalEstimatedTax,
		req.RevenueYear, req.SpendingYear, req.TopN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AttributionHandler) ServicesImpact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.ServicesImpactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	estimate, err := h.household.Estimate(r.Context(), req.TaxEstimateRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.attribution.ServicesImpact(estimate.TotalEstimatedTax,
		req.RevenueYear, req.SpendingYear, req.Page, req.PageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RegionalHandler serves regional balance and flow views. Responses depend
// only on the request selectors, so they are memoised in the cache.
type RegionalHandler struct {
	engine *regional.Engine
	cache  cache.Cache
}

// NewRegionalHandler creates the regional handler.
func NewRegionalHandler(engine *regional.Engine, c cache.Cache) *RegionalHandler {
	return &RegionalHandler{engine: engine, cache: c}
}

func (h *RegionalHandler) RegionalFlows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.RegionalFlowsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	key := fmt.Sprintf("regional_flows:%s:%d:%d", req.Year, req.Page, req.PageSize)
	if h.cache != nil {
		if cached, ok := h.cache.Get(key); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	result, err := h.engine.RegionalFlows(req)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.cache != nil {
		if body, err := json.Marshal(result); err == nil {
			h.cache.Set(key, string(body))
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// ExportHandler serves the journalist export.
type ExportHandler struct {
	exporter *export.Exporter
}

// NewExportHandler creates the export handler.
func NewExportHandler(exporter *export.Exporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

func (h *ExportHandler) JournalistExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.TaxEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.exporter.Build(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
