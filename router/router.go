// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/handlers"
	"github.com/danielhkuo/stem-vote/middleware"
	"github.com/danielhkuo/stem-vote/roster"
	"github.com/danielhkuo/stem-vote/voting"
)

// Services are the collaborators the routes are served from.
type Services struct {
	Auth        *auth.Service
	Coordinator *voting.Coordinator
	Users       handlers.UserReader
	Tallies     handlers.TallyLister
	Roster      roster.Roster
	// IPSalt keys the client IP hashes in vote logs.
	IPSalt string
	// AllowedOrigins is the CORS allow-list. Empty allows any origin
	// without credentials.
	AllowedOrigins []string
}

func NewRouter(svc Services) http.Handler {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	votingHandler := handlers.NewVotingHandler(svc.Coordinator, svc.Users, svc.IPSalt)
	resultsHandler := handlers.NewResultsHandler(svc.Roster, svc.Tallies)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Accounts
	mux.HandleFunc("POST /auth/register", middleware.WithLogging(authHandler.Register))
	mux.HandleFunc("POST /auth/login", middleware.WithLogging(authHandler.Login))

	// Dashboard (session-bound)
	mux.HandleFunc("GET /me", middleware.WithLogging(votingHandler.Me))
	mux.HandleFunc("POST /votes", middleware.WithLogging(votingHandler.CastVote))

	// Public
	mux.HandleFunc("GET /candidates", middleware.WithLogging(resultsHandler.Candidates))
	mux.HandleFunc("GET /tallies", middleware.WithLogging(resultsHandler.Tallies))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stem-vote API v1"))
	})

	return middleware.CORS(svc.AllowedOrigins, middleware.WithSession(svc.Auth, mux))
}
