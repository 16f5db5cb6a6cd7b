package tax

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/taxdesk/internal/aggregate"
	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

type Handler struct {
	svc *finance.Service
}

func NewHandler(svc *finance.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/summary/breakdown", h.breakdown)
	r.Get("/deminimis", h.deMinimis)

	r.Route("/tax", func(r chi.Router) {
		r.Post("/cit", h.cit)
		r.Post("/vat", h.vat)
	})
}

type summaryResponse struct {
	Summary     aggregate.Summary `json:"summary"`
	Ratios      aggregate.Ratios  `json:"ratios"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum := h.svc.Summary()

	writeJSON(w, summaryResponse{
		Summary:     sum,
		Ratios:      aggregate.HealthRatios(sum),
		LastUpdated: h.svc.LastUpdated(),
	})
}

func (h *Handler) breakdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Breakdown())
}

func (h *Handler) deMinimis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.EvaluateDeMinimis())
}

func (h *Handler) cit(w http.ResponseWriter, r *http.Request) {
	var req tax.CITElections
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if msg := negative(map[string]decimal.Decimal{
		"exemptIncome":         req.ExemptIncome,
		"carriedForwardLosses": req.CarriedForwardLosses,
	}); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	writeJSON(w, h.svc.ComputeCIT(r.Context(), req))
}

func (h *Handler) vat(w http.ResponseWriter, r *http.Request) {
	var req tax.VATInputs
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if msg := negative(map[string]decimal.Decimal{
		"standardRatedSales":            req.StandardRatedSales,
		"zeroRatedSales":                req.ZeroRatedSales,
		"exemptSales":                   req.ExemptSales,
		"recoverablePurchases":          req.RecoverablePurchases,
		"nonRecoverablePurchases":       req.NonRecoverablePurchases,
		"designatedZoneMainlandImports": req.DesignatedZoneMainlandImports,
	}); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	writeJSON(w, h.svc.ComputeVAT(req))
}

// negative names the first (alphabetically) negative amount, or returns "".
func negative(fields map[string]decimal.Decimal) string {
	var first string

	for name, v := range fields {
		if v.IsNegative() && (first == "" || name < first) {
			first = name
		}
	}

	if first == "" {
		return ""
	}

	return first + " must not be negative"
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
