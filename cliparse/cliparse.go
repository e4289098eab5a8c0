// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMemory   = "memory"
)

type Config struct {
	Port                      int           `env:"PORT" envDefault:"3318"`
	DatabaseURL               string        `env:"DATABASE_URL"`
	DatabaseType              string        `env:"DATABASE_TYPE" envDefault:"sqlite"`
	SessionSecret             string        `env:"SESSION_SECRET"`
	SessionTTL                time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	VoteMode                  string        `env:"VOTE_MODE" envDefault:"hardened"`
	RequireExistingUserRecord bool          `env:"REQUIRE_EXISTING_USER_RECORD" envDefault:"false"`
	CandidatesFile            string        `env:"CANDIDATES_FILE"`
	CORSOrigins               []string      `env:"CORS_ORIGINS" envSeparator:","`
	StoreTimeout              time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
}

// LoadDotEnv loads variables from .env files that exist. Variables already
// set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ParseFlags reads the environment, then lets CLI flags override it
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("stem-vote", flag.ContinueOnError)

	// Network and storage
	fs.IntVar(&cfg.Port, "p", cfg.Port, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", cfg.DatabaseURL, "Database URL (file path for sqlite)")
	fs.StringVar(&cfg.DatabaseType, "t", cfg.DatabaseType, "Database type (sqlite, postgres or memory)")
	fs.DurationVar(&cfg.StoreTimeout, "store-timeout", cfg.StoreTimeout, "Upper bound for one vote's store calls")

	// Sessions (prefer env for the secret, but allow CLI for dev)
	fs.StringVar(&cfg.SessionSecret, "session-secret", cfg.SessionSecret, "Session signing secret (prefer env)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "Session lifetime")

	// Voting policy
	fs.StringVar(&cfg.VoteMode, "vote-mode", cfg.VoteMode, "Vote mode (default or hardened)")
	fs.BoolVar(&cfg.RequireExistingUserRecord, "require-user-record", cfg.RequireExistingUserRecord, "Reject voters without a user record")
	fs.StringVar(&cfg.CandidatesFile, "candidates", cfg.CandidatesFile, "Candidate roster YAML file")

	// Browser access
	fs.Func("cors-origins", "Comma-separated origins allowed by CORS (empty allows any origin without credentials)", func(v string) error {
		cfg.CORSOrigins = splitList(v)
		return nil
	})

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	cfg.DatabaseType = strings.ToLower(strings.TrimSpace(cfg.DatabaseType))
	switch cfg.DatabaseType {
	case DatabaseSQLite, DatabasePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	case DatabaseMemory:
	default:
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port %d", cfg.Port)
	}

	// Secrets - MUST be provided
	if cfg.SessionSecret == "" {
		return Config{}, errors.New("SESSION_SECRET required")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, errors.New("session TTL must be positive")
	}

	switch strings.ToLower(cfg.VoteMode) {
	case "default", "hardened":
	default:
		return Config{}, fmt.Errorf("unknown vote mode %q", cfg.VoteMode)
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
