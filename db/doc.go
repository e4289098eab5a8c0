// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db is the SQL document store for PostgreSQL and SQLite.

# Opening

	store, err := db.Open(db.DialectPostgres, "postgres://...")
	store, err := db.Open(db.DialectSQLite, "stem-vote.db")

Open pings the database and runs CreateSchema, which is safe to call
multiple times - uses IF NOT EXISTS for all tables and indexes. Queries are
written with ? placeholders and rewritten to $n for PostgreSQL. SQLite
handles use one connection so writers never contend for the file lock.

# Tables

  - account: login credentials (email is unique)
  - user_record: name, email, membership_id, created_at, has_voted
  - candidate_tally: vote_count per candidate (CHECK vote_count >= 0)

Timestamps are UTC unix milliseconds.

# Operations

Store implements voting.Store and auth.AccountStore:

  - GetUser: models.ErrNotFound for unknown ids
  - EnsureTally: INSERT ... ON CONFLICT DO NOTHING
  - IncrementTally: UPDATE ... SET vote_count = vote_count + ?
  - MarkVoted: upsert of has_voted only
  - RunInTx: BEGIN / fn / COMMIT, rollback on error
  - ClaimVote (in a transaction): upsert guarded by WHERE has_voted = FALSE
  - CreateAccount: account insert plus user_record upsert in one transaction
  - SeedTallies, ListTallies, GetAccountByEmail

Unique violations from either driver map to auth.ErrEmailInUse.
*/
package db
