package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"portfolioTracker/internal/config"
	"portfolioTracker/internal/fx"
	"portfolioTracker/internal/market"
	"portfolioTracker/internal/report"
	"portfolioTracker/internal/server"
	"portfolioTracker/internal/storage"
	"portfolioTracker/internal/valuation"
	"portfolioTracker/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := logger.New(logger.Config{Level: "error"})
		errLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Msg("Starting portfolio tracker")

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.DBPath + "?_fk=1")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	if err := storage.InitSchema(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}
	log.Info().Str("path", cfg.DBPath).Msg("Database ready")

	repo := storage.NewPortfolioRepository(db, log)
	marketClient := market.NewYahooClient(log)
	rateClient := fx.NewFrankfurterClient(log)
	engine := valuation.NewEngine(marketClient, rateClient, valuation.FixedZone(cfg.TZOffsetHrs), log)

	emitter, err := report.NewEmitter(cfg.MediaDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare media directory")
	}

	srv := server.New(server.Deps{
		Config:  cfg,
		Log:     log,
		Repo:    repo,
		Engine:  engine,
		Emitter: emitter,
		Market:  marketClient,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server stopped")
}
