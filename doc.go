// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the stem-vote API server.

stem-vote runs a STEM society election: members register, sign in and cast
a single vote for one candidate. The server guarantees each identity is
counted at most once.

# Starting the Server

	SESSION_SECRET=change-me DATABASE_URL=stem-vote.db go run .

Or with Postgres and flags:

	go run . -t postgres -d "postgres://..." -session-secret change-me

A .env file in the working directory is read first; real environment
variables win over it.

# Configuration

Required settings:

  - SESSION_SECRET (-session-secret): signs session tokens and salts IP hashes
  - DATABASE_URL (-d): file path for sqlite, connection string for postgres

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or memory (default: sqlite)
  - VOTE_MODE (-vote-mode): default or hardened (default: hardened)
  - REQUIRE_EXISTING_USER_RECORD (-require-user-record)
  - CANDIDATES_FILE (-candidates): roster YAML
  - SESSION_TTL, STORE_TIMEOUT

# Architecture

  - voting: the vote coordinator and its store contract
  - db: SQL store for Postgres (lib/pq) and SQLite (modernc)
  - memstore: in-memory store
  - auth: accounts, bcrypt passwords, JWT sessions
  - roster: candidate list
  - handlers, router, middleware: HTTP surface
  - client: Go client for the HTTP API
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
