package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/extract"
	receipthandler "github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/handler"
	receiptservice "github.com/FACorreiaa/receipt-pipeline/internal/domain/receipt/service"
	"github.com/FACorreiaa/receipt-pipeline/internal/domain/taxonomy"
	taxonomyhandler "github.com/FACorreiaa/receipt-pipeline/internal/domain/taxonomy/handler"
	"github.com/FACorreiaa/receipt-pipeline/pkg/auth"
	"github.com/FACorreiaa/receipt-pipeline/pkg/config"
	"github.com/FACorreiaa/receipt-pipeline/pkg/cron"
	"github.com/FACorreiaa/receipt-pipeline/pkg/db"
	"github.com/FACorreiaa/receipt-pipeline/pkg/metrics"
	"github.com/FACorreiaa/receipt-pipeline/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config   *config.Config
	DB       *db.DB
	Logger   *slog.Logger
	Registry *prometheus.Registry

	// Infrastructure
	TokenManager *auth.TokenManager
	ObjectStore  storage.ObjectStore
	LocalStore   *storage.LocalStore
	Uploader     *storage.Uploader
	Metrics      *metrics.Pipeline
	Scheduler    *cron.Scheduler

	// Services
	TaxonomyRepo    *taxonomy.Repository
	TaxonomyService *taxonomy.Service
	Inferencer      *taxonomy.Inferencer
	ReceiptService  *receiptservice.Service

	// Handlers
	ReceiptHandler  *receipthandler.ReceiptHandler
	TaxonomyHandler *taxonomyhandler.TaxonomyHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	if err := deps.initServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initInfrastructure sets up auth, storage, metrics and the upload janitor.
func (d *Dependencies) initInfrastructure(ctx context.Context) error {
	jwtSecret := []byte(d.Config.Auth.JWTSecret)
	if len(jwtSecret) == 0 {
		return fmt.Errorf("jwt secret is required")
	}
	d.TokenManager = auth.NewTokenManager(jwtSecret, 1*time.Hour)

	store, err := storage.New(ctx, &storage.Config{
		Type:              d.Config.Storage.Type,
		LocalPath:         d.Config.Storage.LocalPath,
		BaseURL:           d.Config.Server.BaseURL,
		S3Bucket:          d.Config.Storage.S3Bucket,
		S3Region:          d.Config.Storage.S3Region,
		S3AccessKeyID:     d.Config.Storage.S3AccessKeyID,
		S3SecretAccessKey: d.Config.Storage.S3SecretAccessKey,
		S3Endpoint:        d.Config.Storage.S3Endpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to init object store: %w", err)
	}
	d.ObjectStore = store
	if local, ok := store.(*storage.LocalStore); ok {
		d.LocalStore = local
	}

	d.Uploader = storage.NewUploader(d.ObjectStore, d.Config.Storage.SignedURLTTL, d.Logger)
	d.Metrics = metrics.NewPipeline(d.Registry)
	d.Scheduler = cron.NewScheduler(d.LocalStore, d.Config.Storage.LocalRetention, d.Logger)

	d.Logger.Info("infrastructure initialized", "storage_type", d.Config.Storage.Type)
	return nil
}

// initServices wires the taxonomy and receipt pipeline services.
func (d *Dependencies) initServices(ctx context.Context) error {
	d.TaxonomyRepo = taxonomy.NewRepository(d.DB.Pool)
	d.TaxonomyService = taxonomy.NewService(d.TaxonomyRepo, d.Logger)

	inferencer, err := taxonomy.NewInferencer()
	if err != nil {
		return fmt.Errorf("failed to build keyword inferencer: %w", err)
	}
	d.Inferencer = inferencer

	// The analysis clients are optional: without credentials the pipeline
	// still works through the heuristic fallback path.
	var detector extract.TextDetector
	var expenseAPI extract.ExpenseAPI
	if d.Config.Textract.Region != "" {
		client, err := extract.NewTextractClient(ctx, &d.Config.Textract)
		if err != nil {
			return fmt.Errorf("failed to init document analysis client: %w", err)
		}
		detector = client
		expenseAPI = client
	} else {
		d.Logger.Warn("no document analysis region configured, running in heuristic-only mode")
	}

	d.ReceiptService = receiptservice.NewService(
		d.Uploader,
		extract.NewStructuredExtractor(expenseAPI, d.Logger),
		extract.NewTextExtractor(detector, d.Logger),
		d.TaxonomyService,
		d.Inferencer,
		d.Metrics,
		d.Logger,
	)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.ReceiptHandler = receipthandler.NewReceiptHandler(d.ReceiptService, d.Metrics, d.Config.Upload.MaxBytes, d.Logger)
	d.TaxonomyHandler = taxonomyhandler.NewTaxonomyHandler(d.TaxonomyService, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
