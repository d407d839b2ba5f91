package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldstack/mechanic/internal/api/handlers"
	"github.com/fieldstack/mechanic/internal/config"
	"github.com/fieldstack/mechanic/internal/database"
	"github.com/fieldstack/mechanic/internal/jobs"
	"github.com/fieldstack/mechanic/internal/manufacturer"
	"github.com/fieldstack/mechanic/internal/openai"
	"github.com/fieldstack/mechanic/internal/repository"
	"github.com/fieldstack/mechanic/internal/server"
	"github.com/fieldstack/mechanic/internal/service"
	"github.com/fieldstack/mechanic/internal/sme"
	"github.com/fieldstack/mechanic/internal/storage"
	"github.com/fieldstack/mechanic/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	sharedopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the mechanic API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("OPENAI_API_KEY is required: the troubleshooting core needs embedding and reasoning providers")
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	atomRepo := repository.NewAtomRepository(pool, cfg.EmbeddingDimensions)
	gapRepo := repository.NewGapRepository(pool)
	manualRepo := repository.NewManualRepository(pool)
	txRunner := repository.NewTxRunner(pool, cfg.EmbeddingDimensions)

	embedClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      sharedopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
	})
	chatClient := openai.NewChatClient(cfg.OpenAIAPIKey, cfg.ReasoningModel)
	smeRouter := sme.NewRouter(chatClient)
	detector := manufacturer.NewDetector()

	calculator := service.NewConfidenceCalculator(service.ConfidenceWeights{
		ManufacturerBoost: cfg.ManufacturerBoost,
		ModelBoost:        cfg.ModelBoost,
		VerifiedBoost:     cfg.VerifiedBoost,
		StalenessPenalty:  cfg.StalenessPenalty,
		StalenessWindow:   cfg.StalenessWindow,
	})

	troubleshootSvc := service.NewTroubleshootService(
		embedClient, atomRepo, gapRepo, detector, smeRouter, calculator,
		service.RoutingConfig{
			KBThreshold:       cfg.KBThreshold,
			SMEThreshold:      cfg.SMEThreshold,
			ResearchThreshold: cfg.ResearchThreshold,
			ClarifyThreshold:  cfg.ClarifyThreshold,
			SearchLimit:       cfg.SearchLimit,
			MinAtomConfidence: cfg.MinAtomConfidence,
			MinQueryWords:     cfg.MinQueryWords,
			MaxQueryBytes:     cfg.MaxQueryBytes,
			VendorBoost:       cfg.VendorBoost,
			HighValueVendors:  cfg.HighValueVendors,
			EmbedTimeout:      cfg.EmbedTimeout,
			SearchTimeout:     cfg.SearchTimeout,
			ReasonTimeout:     cfg.ReasonTimeout,
		},
	)

	atomSvc := service.NewAtomService(atomRepo, gapRepo, embedClient, txRunner)
	gapSvc := service.NewGapService(gapRepo)

	var manualHandler *handlers.ManualHandler
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		manualHandler = handlers.NewManualHandler(service.NewManualService(manualRepo, s3Client))
	}

	backfill := jobs.NewBackfillWorker(atomRepo, embedClient, cfg.BackfillBatchSize)
	worker := jobs.NewWorker(backfill, cfg.BackfillInterval)
	go worker.Start(ctx)
	log.Println("embedding backfill worker started")

	router := server.NewRouter(server.RouterConfig{
		TroubleshootHandler: handlers.NewTroubleshootHandler(troubleshootSvc),
		AtomHandler:         handlers.NewAtomHandler(atomSvc),
		GapHandler:          handlers.NewGapHandler(gapSvc, atomSvc),
		StatsHandler:        handlers.NewStatsHandler(atomSvc),
		ManualHandler:       manualHandler,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate wants a database/sql handle
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
