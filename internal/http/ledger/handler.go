package ledger

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

type Handler struct {
	svc *finance.Service
}

func NewHandler(svc *finance.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RevenueRoutes(r chi.Router) {
	r.Get("/", h.listRevenues)
	r.Post("/", h.createRevenue)
	r.Get("/{id}", h.getRevenue)
	r.Patch("/{id}", h.updateRevenue)
	r.Delete("/{id}", h.deleteRevenue)
}

func (h *Handler) ExpenseRoutes(r chi.Router) {
	r.Get("/", h.listExpenses)
	r.Post("/", h.createExpense)
	r.Get("/{id}", h.getExpense)
	r.Patch("/{id}", h.updateExpense)
	r.Delete("/{id}", h.deleteExpense)
}

func (h *Handler) listRevenues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toRevenueResponses(h.svc.Revenues()))
}

func (h *Handler) createRevenue(w http.ResponseWriter, r *http.Request) {
	var req revenueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params, err := req.params()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.svc.AddRevenue(params)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, _ := h.svc.Revenue(id)
	writeJSON(w, http.StatusCreated, toRevenueResponse(entry))
}

func (h *Handler) getRevenue(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.svc.Revenue(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "revenue not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toRevenueResponse(entry))
}

func (h *Handler) updateRevenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Revenue(id); !ok {
		http.Error(w, "revenue not found", http.StatusNotFound)
		return
	}

	var req revenuePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch, err := req.patch()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateRevenue(id, patch); err != nil {
		writeError(w, err)
		return
	}

	entry, ok := h.svc.Revenue(id)
	if !ok {
		http.Error(w, "revenue not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toRevenueResponse(entry))
}

func (h *Handler) deleteRevenue(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Revenue(id); !ok {
		http.Error(w, "revenue not found", http.StatusNotFound)
		return
	}

	if err := h.svc.DeleteRevenue(id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toExpenseResponses(h.svc.Expenses()))
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params, err := req.params()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.svc.AddExpense(params)
	if err != nil {
		writeError(w, err)
		return
	}

	entry, _ := h.svc.Expense(id)
	writeJSON(w, http.StatusCreated, toExpenseResponse(entry))
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.svc.Expense(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(entry))
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Expense(id); !ok {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}

	var req expensePatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch, err := req.patch()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.UpdateExpense(id, patch); err != nil {
		writeError(w, err)
		return
	}

	entry, ok := h.svc.Expense(id)
	if !ok {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(entry))
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Expense(id); !ok {
		http.Error(w, "expense not found", http.StatusNotFound)
		return
	}

	if err := h.svc.DeleteExpense(id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrValidation) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Error("ledger request failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
