// Package main is the entry point for the pocketbank backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/nwaiyar/pocketbank/internal/api"
	"gitlab.com/nwaiyar/pocketbank/internal/bankapi"
	"gitlab.com/nwaiyar/pocketbank/internal/bills"
	"gitlab.com/nwaiyar/pocketbank/internal/config"
	"gitlab.com/nwaiyar/pocketbank/internal/database"
	"gitlab.com/nwaiyar/pocketbank/internal/docstore"
	"gitlab.com/nwaiyar/pocketbank/internal/legacy"
	"gitlab.com/nwaiyar/pocketbank/internal/loans"
	"gitlab.com/nwaiyar/pocketbank/internal/logger"
	"gitlab.com/nwaiyar/pocketbank/internal/recurring"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("pocketbank %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.SetLevel(cfg.LogLevel)
	if cfg.LogJSON {
		logger.SetJSON()
	}
	logger.InitHashSalt()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	store := docstore.NewPostgres(pool)
	bank := bankapi.New(cfg.BankAPIBaseURL, cfg.BankAPIKey, cfg.RequestTimeout)

	tracker := recurring.NewTracker(store)
	router := api.NewRouter(
		bank,
		bills.NewService(bank, tracker),
		tracker,
		loans.NewService(store),
		legacy.NewMigrator(store, tracker),
		api.Options{
			PollAttempts: cfg.BalancePollAttempts,
			PollDelay:    cfg.BalancePollDelay,
		},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error().Err(err).Msg("Graceful shutdown failed")
		}
		cancel()
	}()

	logger.Log.Info().Str("port", cfg.Port).Msg("Listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatal().Err(err).Msg("Server exited")
	}
	<-ctx.Done()
}
