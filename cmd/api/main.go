package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/taxdesk/internal/app"
	"github.com/MrJamesThe3rd/taxdesk/internal/config"
	taxdeskHttp "github.com/MrJamesThe3rd/taxdesk/internal/http"
	"github.com/MrJamesThe3rd/taxdesk/internal/http/auth"
	importHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/importcsv"
	ledgerHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/ledger"
	matchingHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/matching"
	profileHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/profile"
	reportHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/report"
	taxHandler "github.com/MrJamesThe3rd/taxdesk/internal/http/tax"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printToken(cfg, os.Args[2:]); err != nil {
			slog.Error("failed to issue token", "error", err)
			os.Exit(1)
		}

		return
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// printToken issues an API token: api token <subject>.
func printToken(cfg *config.Config, args []string) error {
	if cfg.Server.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	subject := "taxdesk"
	if len(args) > 0 {
		subject = args[0]
	}

	token, err := auth.Issue(cfg.Server.JWTSecret, subject, 30*24*time.Hour)
	if err != nil {
		return err
	}

	fmt.Println(token)

	return nil
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Storage.FlushWait)
		defer cancel()

		if err := a.Close(closeCtx); err != nil {
			slog.Error("failed to close ledger", "error", err)
		}
	}()

	handlers := taxdeskHttp.Handlers{
		Ledger:   ledgerHandler.NewHandler(a.Finance),
		Tax:      taxHandler.NewHandler(a.Finance),
		Report:   reportHandler.NewHandler(a.Finance, a.Profiles, cfg.App.Company),
		Profile:  profileHandler.NewHandler(a.Profiles),
		Import:   importHandler.NewHandler(a.Importer, a.Finance),
		Matching: matchingHandler.NewHandler(a.Matching),
	}

	router := taxdeskHttp.New(taxdeskHttp.Options{
		JWTSecret:          cfg.Server.JWTSecret,
		RateLimitPerMinute: cfg.Server.RateLimit,
		CORSOrigins:        cfg.Server.CORSOrigins,
		Timeout:            cfg.Server.Timeout,
	}, handlers)

	if cfg.Server.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set, the API is unauthenticated")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "name", cfg.App.Name, "addr", server.Addr, "storage", cfg.Storage.Backend)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
