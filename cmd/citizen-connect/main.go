package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/YusovID/citizen-connect/internal/aggregation"
	"github.com/YusovID/citizen-connect/internal/concurrency"
	"github.com/YusovID/citizen-connect/internal/config"
	"github.com/YusovID/citizen-connect/internal/repository/memory"
	"github.com/YusovID/citizen-connect/internal/repository/postgres"
	"github.com/YusovID/citizen-connect/internal/service"
	myhttp "github.com/YusovID/citizen-connect/internal/transport/http"
	"github.com/YusovID/citizen-connect/pkg/logger/sl"
	"github.com/YusovID/citizen-connect/pkg/logger/slogpretty"
)

const sessionPurgeInterval = time.Hour

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting citizen-connect", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		if err := db.DB().Close(); err != nil {
			log.Error("db close failed", sl.Err(err))
		}
	}()

	problems := postgres.NewProblemRepository(db.DB(), log)
	responses := postgres.NewResponseRepository(db.DB(), log)
	organisations := postgres.NewOrganisationRepository(db.DB(), log)
	engine := aggregation.NewEngine(postgres.NewAggregateRepository(db.DB(), log), log)

	var sessions concurrency.Store

	switch cfg.Session.Store {
	case "memory":
		sessions = memory.New()
	default:
		repo := postgres.NewSessionRepository(db.DB(), log, cfg.Session.MaxAge)
		sessions = repo

		go purgeSessions(ctx, log, repo)
	}

	log.Info("edit sessions configured", slog.String("store", cfg.Session.Store))

	srv := myhttp.NewServer(
		log,
		service.NewSummaryService(log, engine, organisations, cfg.Summary),
		service.NewProblemService(db.DB(), log, problems, organisations),
		service.NewModerationService(db.DB(), log, problems, sessions),
		service.NewResponseService(db.DB(), log, problems, responses, sessions),
		cfg.Session,
	)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %v", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}

// purgeSessions drops expired edit session entries until ctx is cancelled.
func purgeSessions(ctx context.Context, log *slog.Logger, repo *postgres.SessionRepository) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.DeleteExpired(ctx)
			if err != nil {
				log.Error("failed to purge edit sessions", sl.Err(err))
				continue
			}

			log.Debug("purged edit sessions", slog.Int64("deleted", n))
		}
	}
}
