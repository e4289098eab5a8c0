// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the stem-vote API.

# Route Registration

NewRouter returns the full handler stack: CORS, then session resolution,
then an http.ServeMux with every endpoint:

	handler := router.NewRouter(router.Services{
		Auth:        authService,
		Coordinator: coord,
		Users:       store,
		Tallies:     store,
		Roster:      candidates,
		IPSalt:      cfg.SessionSecret,
	})

AllowedOrigins feeds middleware.CORS. Leave it empty to allow any origin
without credentials.

# Endpoints

Health:

	GET /health
	GET /

Accounts:

	POST /auth/register - Create account and session
	POST /auth/login    - Start a session

Dashboard (Authorization: Bearer <token>):

	GET  /me    - Profile and has_voted
	POST /votes - Cast the caller's single vote

Public:

	GET /candidates - Ballot roster
	GET /tallies    - Current counts
*/
package router
