package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/psymetric/psymetric-backend/internal/assembly"
	"github.com/psymetric/psymetric-backend/internal/config"
	"github.com/psymetric/psymetric-backend/internal/database"
	"github.com/psymetric/psymetric-backend/internal/handler"
	"github.com/psymetric/psymetric-backend/internal/logger"
	"github.com/psymetric/psymetric-backend/internal/psychometrics"
	"github.com/psymetric/psymetric-backend/internal/repository"
	"github.com/psymetric/psymetric-backend/internal/router"
	"github.com/psymetric/psymetric-backend/internal/scoring"
	"github.com/psymetric/psymetric-backend/internal/service"
	"github.com/psymetric/psymetric-backend/internal/simulation"
	"github.com/psymetric/psymetric-backend/internal/validator"
	"github.com/psymetric/psymetric-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Psymetric Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	catalogRepo := repository.NewCatalogRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	statsRepo := repository.NewItemStatisticsRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)

	// ─── Initialize Core Engines ──────────────────────────────────────
	teamService := service.NewTeamService(teamRepo, rdb, log)

	analyzer := psychometrics.NewAnalyzer(answerRepo, statsRepo, statsRepo, catalogRepo, cfg.MinItemResponses, log)
	eligibility := psychometrics.NewEligibilityChecker(statsRepo)

	picker := assembly.NewPicker(catalogRepo, eligibility, log)
	assemblers := assembly.NewRegistry(
		assembly.NewOverviewAssembler(catalogRepo, picker, log),
		assembly.NewJobFitAssembler(catalogRepo, picker, log),
		assembly.NewTeamFitAssembler(catalogRepo, teamService, picker, log),
	)

	aggregator := scoring.NewAggregator(catalogRepo, log)
	strategies := scoring.NewRegistry(
		scoring.NewOverviewStrategy(aggregator, catalogRepo, cfg.MinQuestionsPerCompetency),
		scoring.NewJobFitStrategy(aggregator, catalogRepo, cfg.MinQuestionsPerCompetency),
		scoring.NewTeamFitStrategy(aggregator, teamService, cfg.MinQuestionsPerCompetency),
	)
	percentile := scoring.NewPercentileCalculator(resultRepo)
	emitter := scoring.NewRedisEmitter(rdb, log)

	orchestrator := scoring.NewOrchestrator(
		sessionRepo, templateRepo, answerRepo, resultRepo,
		strategies, aggregator, percentile, emitter,
		scoring.Options{
			RetryAttempts:         cfg.ScoringRetryAttempts,
			RetryDelay:            cfg.ScoringRetryDelay,
			MinSecondsPerQuestion: cfg.MinSecondsPerQuestion,
		},
		log,
	)

	simulator := simulation.NewSimulator(catalogRepo, log)

	// ─── Initialize Services ──────────────────────────────────────────
	catalogService := service.NewCatalogService(catalogRepo)
	templateService := service.NewTemplateService(templateRepo, catalogRepo, assemblers, simulator, rdb, log)
	sessionService := service.NewSessionService(sessionRepo, templateRepo, answerRepo, catalogRepo,
		assemblers, rdb, cfg.MinItemResponses, log)
	resultService := service.NewResultService(resultRepo)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Catalog:  handler.NewCatalogHandler(catalogService),
		Template: handler.NewTemplateHandler(templateService),
		Session:  handler.NewSessionHandler(sessionService),
		Result:   handler.NewResultHandler(resultService),
		Team:     handler.NewTeamHandler(teamService),
		Audit:    handler.NewAuditHandler(analyzer),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	scoringWorker := worker.NewScoringWorker(orchestrator, rdb, log)
	auditWorker := worker.NewAuditWorker(analyzer, rdb, cfg.AuditInterval, log)
	maintenanceWorker := worker.NewMaintenanceWorker(sessionService, resultRepo, orchestrator, cfg.PendingRetryBackoff, log)

	go scoringWorker.Start(workerCtx)
	go auditWorker.Start(workerCtx)
	go maintenanceWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
