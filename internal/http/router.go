package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/MrJamesThe3rd/taxdesk/internal/http/auth"
	"github.com/MrJamesThe3rd/taxdesk/internal/http/importcsv"
	"github.com/MrJamesThe3rd/taxdesk/internal/http/ledger"
	"github.com/MrJamesThe3rd/taxdesk/internal/http/matching"
	"github.com/MrJamesThe3rd/taxdesk/internal/http/profile"
	"github.com/MrJamesThe3rd/taxdesk/internal/http/report"
	"github.com/MrJamesThe3rd/taxdesk/internal/http/tax"
)

// Options configures the middleware stack. Zero values switch a feature off.
type Options struct {
	JWTSecret          string
	RateLimitPerMinute int
	CORSOrigins        []string
	Timeout            time.Duration
}

type Handlers struct {
	Ledger   *ledger.Handler
	Tax      *tax.Handler
	Report   *report.Handler
	Profile  *profile.Handler
	Import   *importcsv.Handler
	Matching *matching.Handler
}

func New(opts Options, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(secureHeaders())

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}

	if opts.RateLimitPerMinute > 0 {
		router.Use(httprate.Limit(opts.RateLimitPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
	}

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(auth.Middleware(opts.JWTSecret))
		}

		r.Route("/revenues", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Ledger.RevenueRoutes(r)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Ledger.ExpenseRoutes(r)
		})

		r.Group(h.Tax.Routes)
		r.Route("/report", h.Report.Routes)
		r.Route("/profile", h.Profile.Routes)
		r.Route("/import", h.Import.Routes)
		r.Route("/rules", h.Matching.Routes)
	})

	return router
}

func secureHeaders() func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := s.Process(w, r); err != nil {
				slog.Warn("secure headers blocked request", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
