package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/FACorreiaa/ccparser/internal/domain/analysis"
	"github.com/FACorreiaa/ccparser/internal/domain/categorization"
	"github.com/FACorreiaa/ccparser/internal/domain/statement"
	"github.com/FACorreiaa/ccparser/internal/domain/transaction"
	"github.com/FACorreiaa/ccparser/internal/domain/user"
	"github.com/FACorreiaa/ccparser/pkg/config"
	"github.com/FACorreiaa/ccparser/pkg/db"
	"github.com/FACorreiaa/ccparser/pkg/storage"
	"github.com/FACorreiaa/ccparser/pkg/telemetry"
)

// Dependencies is the storage context of one command invocation. It is
// built once in run and handed to the command.
type Dependencies struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *telemetry.Metrics
	DB      *db.DB
	Archive storage.Archive

	traceFile       *os.File
	shutdownTracing func(context.Context) error

	// Repositories
	UserRepo        *user.Repository
	RuleRepo        *categorization.Repository
	TransactionRepo *transaction.Repository
	StatementRepo   *statement.Repository

	// Services
	UserService           *user.Service
	CategorizationService *categorization.Service
	TransactionService    *transaction.Service
	StatementService      *statement.Service
	AnalysisService       *analysis.Service
}

// InitDependencies opens the store, applies migrations and wires every
// service.
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *telemetry.Metrics) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	}

	if err := deps.initTracing(); err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}

	if err := deps.initDatabase(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.initRepositories()

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Debug("dependencies initialized", "driver", deps.DB.Driver())
	return deps, nil
}

func (d *Dependencies) initTracing() error {
	path := d.Config.Telemetry.TraceFile
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	shutdown, err := telemetry.InstallTracing(f)
	if err != nil {
		f.Close()
		return err
	}
	d.traceFile = f
	d.shutdownTracing = shutdown
	return nil
}

func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.Open(ctx, db.Options{
		Driver: d.Config.Database.Driver,
		Path:   d.Config.Database.Path,
		DSN:    d.Config.Database.DSN,
	})
	if err != nil {
		return err
	}
	d.DB = database

	if err := d.DB.Migrate(ctx, d.Logger); err != nil {
		d.DB.Close()
		d.DB = nil
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (d *Dependencies) initRepositories() {
	d.UserRepo = user.NewRepository(d.DB)
	d.RuleRepo = categorization.NewRepository(d.DB)
	d.TransactionRepo = transaction.NewRepository(d.DB, d.Config.Currency)
	d.StatementRepo = statement.NewRepository(d.DB, d.Config.Currency)
}

func (d *Dependencies) initServices() error {
	archive, err := storage.New(d.Config.Storage.ArchiveDir)
	if err != nil {
		return fmt.Errorf("failed to init statement archive: %w", err)
	}
	d.Archive = archive

	d.CategorizationService = categorization.NewService(d.RuleRepo, d.Logger)
	d.UserService = user.NewService(d.DB, d.UserRepo, d.CategorizationService, d.Logger)
	d.TransactionService = transaction.NewService(d.DB, d.TransactionRepo, d.CategorizationService, d.Logger)
	d.StatementService = statement.NewService(statement.ServiceDeps{
		Store:        d.DB,
		Repo:         d.StatementRepo,
		Transactions: d.TransactionRepo,
		Engines:      d.CategorizationService,
		Archive:      d.Archive,
		Metrics:      d.Metrics,
		Logger:       d.Logger,
	})
	d.AnalysisService = analysis.NewService(d.TransactionService, d.Logger)
	return nil
}

// Cleanup closes all resources and flushes pending spans.
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Warn("failed to close database", "error", err)
		}
	}
	if d.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.shutdownTracing(ctx); err != nil {
			d.Logger.Warn("failed to flush spans", "error", err)
		}
		d.shutdownTracing = nil
	}
	if d.traceFile != nil {
		if err := d.traceFile.Close(); err != nil {
			d.Logger.Warn("failed to close trace file", "path", d.Config.Telemetry.TraceFile, "error", err)
		}
		d.traceFile = nil
	}
}
