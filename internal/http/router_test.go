package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	taxdeskHttp "github.com/MrJamesThe3rd/taxdesk/internal/http"
	"github.com/MrJamesThe3rd/taxdesk/internal/http/auth"
	importHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/importcsv"
	ledgerHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/ledger"
	matchingHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/matching"
	profileHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/profile"
	reportHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/report"
	taxHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/tax"
	"github.com/MrJamesThe3rd/taxdesk/internal/importer"
	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
	"github.com/MrJamesThe3rd/taxdesk/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/taxdesk/internal/matching/store"
	"github.com/MrJamesThe3rd/taxdesk/internal/profile"
)

func newServer(t *testing.T, opts taxdeskHttp.Options) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := kv.NewMemory()

	var (
		l           = ledger.New(store, ledger.WithLogger(logger))
		profiles    = profile.NewStore(store, profile.Profile{})
		financeSvc  = finance.NewService(l, profiles, finance.WithLogger(logger))
		matchingSvc = matching.NewService(matchingStore.New(store))
		importSvc   = importer.NewService(matchingSvc)
	)

	t.Cleanup(financeSvc.Close)

	return taxdeskHttp.New(opts, taxdeskHttp.Handlers{
		Ledger:   ledgerHandler.NewHandler(financeSvc),
		Tax:      taxHandler.NewHandler(financeSvc),
		Report:   reportHandler.NewHandler(financeSvc, profiles, "Acme FZ LLC"),
		Profile:  profileHandler.NewHandler(profiles),
		Import:   importHandler.NewHandler(importSvc, financeSvc),
		Matching: matchingHandler.NewHandler(matchingSvc),
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))

	return v
}

func TestRevenueLifecycle(t *testing.T) {
	h := newServer(t, taxdeskHttp.Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/revenues",
		`{"amount":"2000000","description":"Consulting","date":"2024-03-15","freeZoneIncomeType":"qualifying"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "2024-03-15", created["date"])
	assert.Equal(t, "2000000", created["amount"])

	rec = do(t, h, http.MethodPatch, "/api/v1/revenues/"+id, `{"amount":"1500000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1500000", decode[map[string]any](t, rec)["amount"])

	rec = do(t, h, http.MethodGet, "/api/v1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)

	summary := decode[struct {
		Summary map[string]any `json:"summary"`
	}](t, rec)
	assert.Equal(t, "1500000", summary.Summary["totalRevenue"])
	assert.Equal(t, "1500000", summary.Summary["qualifyingIncome"])

	rec = do(t, h, http.MethodDelete, "/api/v1/revenues/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/revenues/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/revenues/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateValidation(t *testing.T) {
	h := newServer(t, taxdeskHttp.Options{})

	type testCase struct {
		name    string
		path    string
		body    string
		wantMsg string
	}

	tests := []testCase{
		{
			name:    "NegativeRevenue",
			path:    "/api/v1/revenues",
			body:    `{"amount":"-1","description":"Refund","date":"2024-03-15"}`,
			wantMsg: "amount must not be negative",
		},
		{
			name:    "MissingDate",
			path:    "/api/v1/revenues",
			body:    `{"amount":"1","description":"Fee"}`,
			wantMsg: "date is required",
		},
		{
			name:    "BadDate",
			path:    "/api/v1/revenues",
			body:    `{"amount":"1","description":"Fee","date":"15/03/2024"}`,
			wantMsg: "YYYY-MM-DD",
		},
		{
			name:    "UnknownIncomeType",
			path:    "/api/v1/revenues",
			body:    `{"amount":"1","date":"2024-03-15","freeZoneIncomeType":"exempt"}`,
			wantMsg: "must be one of",
		},
		{
			name:    "ExpenseWithoutCategory",
			path:    "/api/v1/expenses",
			body:    `{"amount":"1","date":"2024-03-15"}`,
			wantMsg: "category is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantMsg)
		})
	}
}

func TestTaxEndpoints(t *testing.T) {
	h := newServer(t, taxdeskHttp.Options{})

	rec := do(t, h, http.MethodPut, "/api/v1/profile", `{"isQFZP":true,"freeZoneIncome":{"qualifying":"1000000"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/revenues",
		`{"amount":"2000000","description":"Services","date":"2024-03-15","freeZoneIncomeType":"qualifying"}`).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/expenses",
		`{"amount":"500000","category":"Salaries","date":"2024-03-31"}`).Code)

	rec = do(t, h, http.MethodPost, "/api/v1/tax/cit", `{}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "11250", decode[map[string]any](t, rec)["citPayable"])

	rec = do(t, h, http.MethodPost, "/api/v1/tax/cit", `{"carriedForwardLosses":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/tax/vat",
		`{"standardRatedSales":"400000","recoverablePurchases":"100000","isDesignatedZone":true,"designatedZoneMainlandImports":"50000"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	vat := decode[map[string]any](t, rec)
	assert.Equal(t, "12500", vat["netVAT"])
	assert.Equal(t, false, vat["isRefundable"])

	rec = do(t, h, http.MethodGet, "/api/v1/deminimis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["isCompliant"])

	rec = do(t, h, http.MethodGet, "/api/v1/summary/breakdown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Salaries")

	rec = do(t, h, http.MethodGet, "/api/v1/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Acme FZ LLC")
	assert.Contains(t, rec.Body.String(), "AED 11,250.00")
}

func TestProfileValidation(t *testing.T) {
	h := newServer(t, taxdeskHttp.Options{})

	rec := do(t, h, http.MethodPut, "/api/v1/profile", `{"isQFZP":true,"freeZoneIncome":{"qualifying":"-1"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["isQFZP"])
}

func upload(t *testing.T, h http.Handler, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)

	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestImportFlow(t *testing.T) {
	h := newServer(t, taxdeskHttp.Options{})

	rec := do(t, h, http.MethodPost, "/api/v1/rules", `{"pattern":"dewa","category":"Utilities"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/rules/suggest?description=DEWA%20BILL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["found"])

	const statement = "Date,Description,Amount\n05/01/2025,CLIENT PAYMENT,\"1,000.00\"\n06/01/2025,DEWA BILL,-200.00\n"

	rec = upload(t, h, statement)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"revenues":1,"expenses":1}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)

	expenses := decode[[]map[string]any](t, rec)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Utilities", expenses[0]["category"])

	// Uploading the same statement again reports duplicates.
	rec = upload(t, h, statement)
	require.Equal(t, http.StatusConflict, rec.Code)

	conflict := decode[map[string]any](t, rec)
	assert.Len(t, conflict["conflicts"], 2)

	pending, err := json.Marshal(conflict["pending"])
	require.NoError(t, err)

	rec = do(t, h, http.MethodPost, "/api/v1/import/confirm", string(pending))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/revenues", "")
	assert.Len(t, decode[[]map[string]any](t, rec), 2)
}

func TestImportUnknownLayout(t *testing.T) {
	h := newServer(t, taxdeskHttp.Options{})

	rec := upload(t, h, "foo,bar\n1,2\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	h := newServer(t, taxdeskHttp.Options{JWTSecret: "s3cret"})

	rec := do(t, h, http.MethodGet, "/api/v1/summary", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.Issue("s3cret", "owner", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecureHeaders(t *testing.T) {
	h := newServer(t, taxdeskHttp.Options{})

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
