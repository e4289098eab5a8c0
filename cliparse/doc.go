// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	_ = cliparse.LoadDotEnv()
	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Values are read in three layers, later layers winning:

 1. Built-in defaults (envDefault tags)
 2. Environment variables, optionally seeded from a .env file
 3. CLI flags

# Flags and Environment Variables

	-p                    PORT                          (default 3318)
	-d                    DATABASE_URL                  (file path for sqlite)
	-t                    DATABASE_TYPE                 sqlite, postgres or memory
	-session-secret       SESSION_SECRET                required
	-session-ttl          SESSION_TTL                   (default 1h)
	-vote-mode            VOTE_MODE                     default or hardened (default hardened)
	-require-user-record  REQUIRE_EXISTING_USER_RECORD  (default false)
	-candidates           CANDIDATES_FILE               roster YAML, built-in list if empty
	-cors-origins         CORS_ORIGINS                  comma-separated, any origin if empty
	-store-timeout        STORE_TIMEOUT                 (default 5s)

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing for sqlite or postgres
  - SESSION_SECRET is missing
  - the database type or vote mode is unknown
  - the port is outside 1-65535
*/
package cliparse
