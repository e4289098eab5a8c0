package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/cliparse"
	"github.com/danielhkuo/stem-vote/db"
	"github.com/danielhkuo/stem-vote/memstore"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/roster"
	"github.com/danielhkuo/stem-vote/router"
	"github.com/danielhkuo/stem-vote/voting"
)

// backend is what both store implementations provide.
type backend interface {
	voting.Store
	auth.AccountStore
	SeedTallies(ctx context.Context, candidateIDs []string) error
	ListTallies(ctx context.Context) ([]models.CandidateTally, error)
}

func main() {
	if err := cliparse.LoadDotEnv(); err != nil {
		slog.Warn("ignoring .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	store, closer, err := openStore(cfg)
	if err != nil {
		slog.Error("store open failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.Info("Store ready", "type", cfg.DatabaseType)

	candidates, err := roster.Load(cfg.CandidatesFile)
	if err != nil {
		slog.Error("roster load failed", "error", err)
		os.Exit(1)
	}
	if err := store.SeedTallies(context.Background(), candidates.IDs()); err != nil {
		slog.Error("tally seeding failed", "error", err)
		os.Exit(1)
	}

	tokens, err := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		slog.Error("session setup failed", "error", err)
		os.Exit(1)
	}

	mode, err := voting.ParseMode(cfg.VoteMode)
	if err != nil {
		slog.Error("invalid vote mode", "error", err)
		os.Exit(1)
	}
	coord := voting.NewCoordinator(store, voting.Policy{
		Mode:                      mode,
		RequireExistingUserRecord: cfg.RequireExistingUserRecord,
		StoreTimeout:              cfg.StoreTimeout,
	})
	slog.Info("Voting configured",
		"mode", mode,
		"require_user_record", cfg.RequireExistingUserRecord,
		"candidates", len(candidates),
	)

	// Create router
	handler := router.NewRouter(router.Services{
		Auth:           auth.NewService(store, tokens),
		Coordinator:    coord,
		Users:          store,
		Tallies:        store,
		Roster:         candidates,
		IPSalt:         cfg.SessionSecret,
		AllowedOrigins: cfg.CORSOrigins,
	})

	// Create server
	server := http.Server{
		Handler:           handler,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed")
	}
}

func openStore(cfg cliparse.Config) (backend, io.Closer, error) {
	if cfg.DatabaseType == cliparse.DatabaseMemory {
		slog.Warn("using in-memory store; votes are lost on restart")
		return memstore.NewStore(), io.NopCloser(nil), nil
	}

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return nil, nil, err
	}
	s, err := db.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return s, s, nil
}
