// Package app wires the services shared by the API server and the TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrJamesThe3rd/taxdesk/internal/config"
	"github.com/MrJamesThe3rd/taxdesk/internal/finance"
	"github.com/MrJamesThe3rd/taxdesk/internal/importer"
	"github.com/MrJamesThe3rd/taxdesk/internal/ledger"
	"github.com/MrJamesThe3rd/taxdesk/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/taxdesk/internal/matching/store"
	"github.com/MrJamesThe3rd/taxdesk/internal/profile"
	"github.com/MrJamesThe3rd/taxdesk/internal/storage"
)

type App struct {
	Config   *config.Config
	Ledger   *ledger.Ledger
	Finance  *finance.Service
	Profiles *profile.Store
	Matching *matching.Service
	Importer *importer.Service

	persist      bool
	stopFlush    func()
	closeStorage func()
}

// Open connects the configured storage, loads the ledger and starts persisting
// every change. The caller must Close the returned App.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	fallback, err := cfg.DefaultProfile()
	if err != nil {
		return nil, err
	}

	store, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	persist := true

	l := ledger.New(store, ledger.WithLogger(logger))
	if err := l.Load(ctx); err != nil {
		if !errors.Is(err, ledger.ErrPersistence) {
			closeStorage()
			return nil, fmt.Errorf("loading ledger: %w", err)
		}

		// The stored ledger is unreadable: keep working in memory and never
		// write over it this session.
		logger.Error("ledger could not be loaded, changes will not be saved this session", "error", err)

		persist = false
	}

	profiles := profile.NewStore(store, fallback)
	matchingSvc := matching.NewService(matchingStore.New(store))

	a := &App{
		Config:       cfg,
		Ledger:       l,
		Finance:      finance.NewService(l, profiles, finance.WithLogger(logger)),
		Profiles:     profiles,
		Matching:     matchingSvc,
		Importer:     importer.NewService(matchingSvc),
		persist:      persist,
		stopFlush:    func() {},
		closeStorage: closeStorage,
	}

	if persist {
		a.stopFlush = l.AutoFlush(cfg.Storage.FlushWait)
	}

	return a, nil
}

// Persisting reports whether ledger changes are being saved to storage.
func (a *App) Persisting() bool {
	return a.persist
}

// Close flushes the ledger once more and releases the storage connections.
// A ledger that could not be loaded is not flushed.
func (a *App) Close(ctx context.Context) error {
	a.stopFlush()
	a.Finance.Close()

	var err error
	if a.persist {
		err = a.Ledger.Close(ctx)
	}

	a.closeStorage()

	if err != nil {
		return fmt.Errorf("closing ledger: %w", err)
	}

	return nil
}
