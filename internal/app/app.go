package app

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/resultatbasen/ingest/external/statsweb"
	"github.com/resultatbasen/ingest/internal/config"
	"github.com/resultatbasen/ingest/internal/infrastructure/checkpoint"
	"github.com/resultatbasen/ingest/internal/infrastructure/repository/postgres"
	"github.com/resultatbasen/ingest/internal/platform/logging"
	"github.com/resultatbasen/ingest/internal/platform/resilience"
	"github.com/resultatbasen/ingest/internal/usecase"
)

// Options carries per-invocation switches that are not environment
// configuration.
type Options struct {
	DryRun bool
}

// App wires the services the command surface dispatches to.
type App struct {
	Resolver *usecase.EntityResolver
	Ingest   *usecase.IngestService
	Scan     *usecase.ScanService
	Cleanup  *usecase.CleanupService
	Enrich   *usecase.EnrichService

	db     *sqlx.DB
	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	checkpoints, err := checkpoint.NewFileStore(cfg.CheckpointDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open checkpoint dir %s: %w", cfg.CheckpointDir, err)
	}

	athleteRepo := postgres.NewAthleteRepository(db)
	clubRepo := postgres.NewClubRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	meetRepo := postgres.NewMeetRepository(db)
	seasonRepo := postgres.NewSeasonRepository(db)
	resultRepo := postgres.NewResultRepository(db)
	givenNames := postgres.NewGivenNameRepository(db)

	client := statsweb.NewClient(statsweb.ClientConfig{
		BaseURL:      cfg.SourceBaseURL,
		Timeout:      cfg.SourceTimeout,
		MaxRetries:   cfg.SourceMaxRetries,
		RequestDelay: cfg.SourceRequestDelay,
		Logger:       logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.SourceCircuitEnabled,
			FailureThreshold: cfg.SourceCircuitFailureCount,
			OpenTimeout:      cfg.SourceCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.SourceCircuitHalfOpenMaxReq,
		},
	})

	resolver := usecase.NewEntityResolver(athleteRepo, clubRepo, eventRepo, meetRepo, seasonRepo, logger)
	ingestSvc := usecase.NewIngestService(resolver, resultRepo, cfg.BatchSize, opts.DryRun, logger)
	scanSvc := usecase.NewScanService(client, ingestSvc, checkpoints, resultRepo, cfg.ScanCheckpointInterval, logger)
	cleanupSvc := usecase.NewCleanupService(resultRepo, 0, logger)
	enrichSvc := usecase.NewEnrichService(athleteRepo, givenNames, logger)

	return &App{
		Resolver: resolver,
		Ingest:   ingestSvc,
		Scan:     scanSvc,
		Cleanup:  cleanupSvc,
		Enrich:   enrichSvc,
		db:       db,
		logger:   logger,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Connect("postgres", cfg.DBURL, otelsql.WithDBName(dbNameFromURL(cfg.DBURL)))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}
