// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the stem-vote API.

# Handler Types

Each handler is a struct holding the collaborators it needs:

  - AuthHandler: registration and login (auth.Service)
  - VotingHandler: vote casting and the caller's profile (voting.Coordinator)
  - ResultsHandler: candidate roster and live tallies

	authHandler := handlers.NewAuthHandler(authService)
	votingHandler := handlers.NewVotingHandler(coord, store, cfg.SessionSecret)

# Endpoints

	POST /auth/register → Register (201, returns token and membership_id)
	POST /auth/login    → Login
	GET  /me            → Me
	POST /votes         → CastVote
	GET  /candidates    → Candidates
	GET  /tallies       → Tallies

Session-bound endpoints read the session attached by middleware.WithSession.

# Vote Outcomes

CastVote answers 201 when the vote is recorded and 200 with outcome
"already_voted" on a repeat. Errors carry a code:

	400 invalid_candidate     empty candidate_id
	401 unauthenticated       missing or expired session
	403 user_record_missing   policy requires a user record
	503 store_unavailable     store failure or timeout; safe to retry in hardened mode
*/
package handlers
