package report

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/profile"
	"github.com/MrJamesThe3rd/taxdesk/internal/report"
	"github.com/MrJamesThe3rd/taxdesk/internal/tax"
)

type Handler struct {
	svc      *finance.Service
	profiles profile.Provider
	company  string
	now      func() time.Time
}

func NewHandler(svc *finance.Service, profiles profile.Provider, company string) *Handler {
	return &Handler{svc: svc, profiles: profiles, company: company, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.render)
}

// render writes the text report. The sbr query parameter claims Small
// Business Relief for the CIT section.
func (h *Handler) render(w http.ResponseWriter, r *http.Request) {
	var elections tax.CITElections

	if s := r.URL.Query().Get("sbr"); s != "" {
		claimed, err := strconv.ParseBool(s)
		if err != nil {
			http.Error(w, "sbr must be a boolean", http.StatusBadRequest)
			return
		}

		elections.SmallBusinessReliefClaimed = claimed
	}

	isQFZP := false
	if p, err := h.profiles.Profile(r.Context()); err != nil {
		slog.Warn("reading setup profile for report", "error", err)
	} else {
		isQFZP = p.IsQFZP
	}

	in := report.Input{
		Company:     h.company,
		GeneratedAt: h.now(),
		IsQFZP:      isQFZP,
		Summary:     h.svc.Summary(),
		DeMinimis:   h.svc.EvaluateDeMinimis(),
		CIT:         h.svc.ComputeCIT(r.Context(), elections),
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, in); err != nil {
		slog.Error("rendering report", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write report", "error", err)
	}
}
