// Package main is the entry point for the Radar ETF analysis service.
// Radar scans a fixed ETF universe daily, enriches notable movers with news
// sentiment, synthesizes regime-aware recommendations and serves the results
// over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/quiverlabs/radar/internal/advisor"
	"github.com/quiverlabs/radar/internal/analysis"
	"github.com/quiverlabs/radar/internal/clientdata"
	"github.com/quiverlabs/radar/internal/clients/llm"
	"github.com/quiverlabs/radar/internal/clients/marketdata"
	"github.com/quiverlabs/radar/internal/clients/newsfeed"
	"github.com/quiverlabs/radar/internal/config"
	"github.com/quiverlabs/radar/internal/database"
	"github.com/quiverlabs/radar/internal/pipeline"
	"github.com/quiverlabs/radar/internal/portfolio"
	"github.com/quiverlabs/radar/internal/radar"
	"github.com/quiverlabs/radar/internal/risk"
	"github.com/quiverlabs/radar/internal/scalpel"
	"github.com/quiverlabs/radar/internal/scheduler"
	"github.com/quiverlabs/radar/internal/server"
	"github.com/quiverlabs/radar/internal/universe"
	"github.com/quiverlabs/radar/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting radar")

	// Databases: durable state and the ephemeral client cache.
	universeDB, err := database.New(database.Config{
		Path: cfg.DatabasePath("universe.db"), Profile: database.ProfileStandard, Name: "universe",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open universe database")
	}
	defer universeDB.Close()

	portfolioDB, err := database.New(database.Config{
		Path: cfg.DatabasePath("portfolio.db"), Profile: database.ProfileStandard, Name: "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	cacheDB, err := database.New(database.Config{
		Path: cfg.DatabasePath("cache.db"), Profile: database.ProfileCache, Name: "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	// Repositories.
	if _, err := universe.NewRepository(universeDB.Conn(), log); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed universe reference data")
	}

	portfolioRepo, err := portfolio.NewRepository(portfolioDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize portfolio repository")
	}

	analysisRepo, err := analysis.NewRepository(portfolioDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize analysis repository")
	}

	if _, err := analysis.NewLedger(portfolioDB.Conn(), log); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize transaction ledger")
	}

	cacheRepo, err := clientdata.NewRepository(cacheDB.Conn(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize client cache")
	}

	bootstrapPortfolio(portfolioRepo, cfg.InitialCapital, log)

	// External clients.
	marketClient := marketdata.NewClient(marketdata.DefaultConfig(), cacheRepo, log)
	newsClient := newsfeed.NewClient(cfg.NewsAPIKey, cacheRepo, log)

	llmClient, err := llm.NewClient(context.Background(), llm.DefaultConfig(cfg.GeminiAPIKey), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize sentiment client")
	}

	// Decision core.
	validator := risk.NewValidator(risk.DefaultLimits(), log)

	pipelineCfg := pipeline.DefaultConfig()
	pipelineCfg.LookbackDays = cfg.LookbackDays

	pipe := pipeline.New(pipelineCfg, pipeline.Deps{
		MarketData:    marketClient,
		Detector:      radar.NewDetector(radar.DefaultConfig(), log),
		Enricher:      scalpel.NewEnricher(scalpel.DefaultConfig(), newsClient, llmClient, log),
		Synthesizer:   advisor.NewSynthesizer(advisor.DefaultConfig(), log),
		Validator:     validator,
		PortfolioRepo: portfolioRepo,
		AnalysisRepo:  analysisRepo,
	}, log)

	// Background jobs.
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.AnalysisSchedule, scheduler.NewAnalysisJob(pipe, 15*time.Minute, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register analysis job")
	}
	if err := sched.AddJob(cfg.CleanupSchedule, clientdata.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	sched.Start()

	// HTTP server.
	srv := server.New(server.Config{
		Port:          cfg.Port,
		DevMode:       cfg.DevMode,
		Log:           log,
		Pipeline:      pipe,
		AnalysisRepo:  analysisRepo,
		PortfolioRepo: portfolioRepo,
		Validator:     validator,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Radar stopped")
}

// bootstrapPortfolio creates an all-cash starting snapshot when no portfolio
// exists yet, so the first analysis run has a state to reprice.
func bootstrapPortfolio(repo *portfolio.Repository, initialCapital float64, log zerolog.Logger) {
	state, err := repo.Latest()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to check for existing portfolio")
	}
	if state != nil {
		return
	}

	fresh := portfolio.NewState(nil, initialCapital, initialCapital, nil, time.Now())
	if err := repo.Save(&fresh); err != nil {
		log.Fatal().Err(err).Msg("Failed to create initial portfolio")
	}

	log.Info().Float64("initial_capital", initialCapital).Msg("Created initial all-cash portfolio")
}
