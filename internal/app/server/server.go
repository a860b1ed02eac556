package server

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

	"github.com/jackc/pgx/v5/pgxpool"

	"timesheets/internal/domain/audit"
	"timesheets/internal/domain/auth"
	"timesheets/internal/domain/payroll"
	"timesheets/internal/domain/reconciliation"
	"timesheets/internal/domain/registry"
	"timesheets/internal/domain/timesheet"
	"timesheets/internal/platform/config"
	"timesheets/internal/platform/crypto"
	"timesheets/internal/platform/db"
	"timesheets/internal/platform/metrics"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Logger *slog.Logger
}

// New connects to the database, applies migrations when enabled and wires
// every service into the router.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	registryStore := registry.NewStore(pool, sealer)
	if sealed, err := registryStore.SealPlaintextAccounts(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("seal account numbers: %w", err)
	} else if sealed > 0 {
		logger.Info("sealed plaintext account numbers", "count", sealed)
	}
	auditService := audit.New(pool)
	timesheetService := timesheet.NewService(timesheet.NewStore(pool), registryStore, auditService, logger)
	payrollService := payroll.NewService(payroll.NewStore(pool), timesheetService, registryStore, auditService, logger, payroll.Options{
		Company:                payroll.Company{Name: cfg.CompanyName, Address: cfg.CompanyAddress},
		DefaultDisbursementDay: cfg.DefaultDisbursementDay,
	})
	reconciliationService := reconciliation.NewService(timesheetService, registryStore, logger)

	router := NewRouter(cfg, logger, Services{
		Timesheets: timesheetService,
		Payroll:    payrollService,
		Reports:    reconciliationService,
		Registry:   registryStore,
		Audit:      auditService,
		Perms:      auth.StaticPermissions{},
	}, metrics.New(), pool.Ping)

	return &App{Config: cfg, DB: pool, Router: router, Logger: logger}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// Serve listens until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("server listening", "addr", a.Config.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down", "timeout", a.Config.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Run loads configuration and serves until SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Serve(ctx)
}
