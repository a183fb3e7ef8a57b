// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package app assembles the tenant credit services from configuration. It is
// shared by the HTTP server and the admin CLI so both run the same stack.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/opentrusty/tenantcredit/internal/audit"
	natsbroker "github.com/opentrusty/tenantcredit/internal/broker/nats"
	"github.com/opentrusty/tenantcredit/internal/cache"
	"github.com/opentrusty/tenantcredit/internal/config"
	"github.com/opentrusty/tenantcredit/internal/credit"
	"github.com/opentrusty/tenantcredit/internal/identity"
	"github.com/opentrusty/tenantcredit/internal/observability/logger"
	"github.com/opentrusty/tenantcredit/internal/store/memory"
	"github.com/opentrusty/tenantcredit/internal/store/postgres"
	"github.com/opentrusty/tenantcredit/internal/store/sqlite"
	"github.com/opentrusty/tenantcredit/internal/tenant"
)

// App holds the wired services.
type App struct {
	Tenants  *tenant.Service
	Credits  *credit.Service
	Resolver identity.Resolver
	Audit    audit.Logger

	closers []func() error
}

// Options carries the optional instrumentation handed to the ledger service.
type Options struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Audit  audit.Logger
}

// stores is the storage pair selected by the database driver.
type stores struct {
	tenants tenant.Repository
	ledger  credit.Store
	close   func() error
}

// New wires storage, cache, event publishing and identity resolution from
// cfg. The returned App must be closed.
func New(ctx context.Context, cfg *config.Config, opts Options) (_ *App, err error) {
	a := &App{Audit: opts.Audit}
	if a.Audit == nil {
		a.Audit = audit.NewSlogLogger()
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, st.close)

	tenantRepo := st.tenants
	if cfg.Cache.Enabled && cfg.Database.Driver != config.DriverMemory {
		cached, err := cache.NewTenantRepository(tenantRepo, cache.Config{
			MaxItems: cfg.Cache.MaxItems,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create tenant cache: %w", err)
		}
		a.closers = append(a.closers, func() error { cached.Close(); return nil })
		tenantRepo = cached
	}

	a.Tenants = tenant.NewService(tenantRepo, a.Audit)

	creditOpts := []credit.Option{
		credit.WithPageOptions(credit.PageOptions{
			DefaultLimit: cfg.Ledger.DefaultPageSize,
			MaxLimit:     cfg.Ledger.MaxPageSize,
		}),
	}
	if opts.Tracer != nil {
		creditOpts = append(creditOpts, credit.WithTracer(opts.Tracer))
	}
	if opts.Meter != nil {
		creditOpts = append(creditOpts, credit.WithMeter(opts.Meter))
	}
	if cfg.Events.NATSURL != "" {
		pub, err := natsbroker.Connect(ctx, cfg.Events.NATSURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pub.Close)
		creditOpts = append(creditOpts, credit.WithPublisher(pub))
		slog.InfoContext(ctx, "ledger events enabled", logger.Component("nats"))
	}
	a.Credits = credit.NewService(st.ledger, a.Tenants, a.Audit, creditOpts...)

	a.Resolver, err = NewResolver(cfg.Identity)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// NewResolver builds the identity resolver for the configured mode.
func NewResolver(cfg config.IdentityConfig) (identity.Resolver, error) {
	switch cfg.Mode {
	case config.IdentityHeaders, "":
		return identity.NewHeaderResolver(), nil
	case config.IdentityToken:
		return identity.NewTokenResolver(cfg.TokenSecret, cfg.TokenIssuer)
	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Mode)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStores(ctx context.Context, cfg config.DatabaseConfig) (*stores, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		slog.WarnContext(ctx, "using in-memory storage; data is lost on exit", logger.Component("store"))
		return &stores{
			tenants: memory.NewTenantRepository(),
			ledger:  memory.NewLedgerStore(),
			close:   func() error { return nil },
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.New(ctx, sqlite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		slog.InfoContext(ctx, "connected to sqlite", logger.Component("store"), logger.String("path", cfg.SQLitePath))
		return &stores{
			tenants: sqlite.NewTenantRepository(db),
			ledger:  sqlite.NewLedgerStore(db),
			close:   db.Close,
		}, nil

	case config.DriverPostgres:
		db, err := postgres.New(ctx, postgresConfig(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if cfg.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}
		slog.InfoContext(ctx, "connected to postgres", logger.Component("store"))
		return &stores{
			tenants: postgres.NewTenantRepository(db),
			ledger:  postgres.NewLedgerStore(db),
			close:   func() error { db.Close(); return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// Migrate applies the schema for the configured driver. The in-memory driver
// has nothing to migrate.
func Migrate(ctx context.Context, cfg config.DatabaseConfig) error {
	switch cfg.Driver {
	case config.DriverMemory:
		return nil
	case config.DriverSQLite:
		// sqlite.New migrates on open
		db, err := sqlite.New(ctx, sqlite.Config{Path: cfg.SQLitePath})
		if err != nil {
			return err
		}
		return db.Close()
	case config.DriverPostgres:
		db, err := postgres.New(ctx, postgresConfig(cfg))
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(ctx)
	default:
		return fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func postgresConfig(cfg config.DatabaseConfig) postgres.Config {
	return postgres.Config{
		URL:          cfg.URL,
		Host:         cfg.Host,
		Port:         cfg.Port,
		User:         cfg.User,
		Password:     cfg.Password,
		Database:     cfg.Database,
		SSLMode:      cfg.SSLMode,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}
}
