package importcsv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/importer"
	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
	svc       *finance.Service
}

func NewHandler(importSvc *importer.Service, svc *finance.Service) *Handler {
	return &Handler{importSvc: importSvc, svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type revenueDTO struct {
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Date        string            `json:"date"`
	Category    string            `json:"category,omitempty"`
	IncomeType  ledger.IncomeType `json:"freeZoneIncomeType,omitempty"`
}

type expenseDTO struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
}

type batchDTO struct {
	Revenues []revenueDTO `json:"revenues"`
	Expenses []expenseDTO `json:"expenses"`
}

type conflictDTO struct {
	Kind        ledger.EntryKind `json:"kind"`
	Index       int              `json:"index"`
	Date        string           `json:"date"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
	ExistingID  string           `json:"existingId"`
}

// importConflictResponse carries the parsed batch back so the client can
// drop the duplicates and post the rest to /confirm.
type importConflictResponse struct {
	Pending   batchDTO      `json:"pending"`
	Conflicts []conflictDTO `json:"conflicts"`
}

type importSuccessResponse struct {
	Revenues int `json:"revenues"`
	Expenses int `json:"expenses"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	batch, err := h.importSvc.Import(r.Context(), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.ImportBatch(batch)
	if err != nil {
		writeError(w, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			Pending:   toBatchDTO(batch),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Kind:        c.Kind,
				Index:       c.Index,
				Date:        c.Date.Format(time.DateOnly),
				Amount:      c.Amount,
				Description: c.Description,
				ExistingID:  c.ExistingID,
			})
		}

		writeJSON(w, http.StatusConflict, resp)

		return
	}

	writeJSON(w, http.StatusCreated, importSuccessResponse{
		Revenues: len(result.Revenues),
		Expenses: len(result.Expenses),
	})
}

func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req batchDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	batch, err := req.batch()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.svc.AddBatch(batch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, importSuccessResponse{
		Revenues: len(result.Revenues),
		Expenses: len(result.Expenses),
	})
}

func (b batchDTO) batch() (ledger.Batch, error) {
	var batch ledger.Batch

	for _, rev := range b.Revenues {
		date, err := time.Parse(time.DateOnly, rev.Date)
		if err != nil {
			return ledger.Batch{}, errors.New("revenue date must be YYYY-MM-DD")
		}

		batch.Revenues = append(batch.Revenues, ledger.RevenueParams{
			Amount:      rev.Amount,
			Description: rev.Description,
			Date:        date,
			Category:    rev.Category,
			IncomeType:  rev.IncomeType,
		})
	}

	for _, exp := range b.Expenses {
		date, err := time.Parse(time.DateOnly, exp.Date)
		if err != nil {
			return ledger.Batch{}, errors.New("expense date must be YYYY-MM-DD")
		}

		batch.Expenses = append(batch.Expenses, ledger.ExpenseParams{
			Amount:      exp.Amount,
			Category:    exp.Category,
			Date:        date,
			Description: exp.Description,
		})
	}

	return batch, nil
}

func toBatchDTO(b ledger.Batch) batchDTO {
	dto := batchDTO{
		Revenues: make([]revenueDTO, 0, len(b.Revenues)),
		Expenses: make([]expenseDTO, 0, len(b.Expenses)),
	}

	for _, p := range b.Revenues {
		dto.Revenues = append(dto.Revenues, revenueDTO{
			Amount:      p.Amount,
			Description: p.Description,
			Date:        p.Date.Format(time.DateOnly),
			Category:    p.Category,
			IncomeType:  p.IncomeType,
		})
	}

	for _, p := range b.Expenses {
		dto.Expenses = append(dto.Expenses, expenseDTO{
			Amount:      p.Amount,
			Category:    p.Category,
			Date:        p.Date.Format(time.DateOnly),
			Description: p.Description,
		})
	}

	return dto
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ledger.ErrValidation) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Error("import failed", "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
