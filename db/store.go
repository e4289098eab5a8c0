// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/voting"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect maps a config value to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case DialectPostgres:
		return DialectPostgres, nil
	case DialectSQLite:
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported database type %q", s)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements the voting and account stores over database/sql.
type Store struct {
	sqlDB   *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open connects to the database, verifies the connection, and creates the
// schema. For SQLite, dsn is a file path.
func Open(dialect Dialect, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	switch dialect {
	case DialectPostgres:
		sqlDB, err = sql.Open("postgres", dsn)
	case DialectSQLite:
		sqlDB, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err == nil {
			// A single connection serializes writers; transactions hold it
			// until commit.
			sqlDB.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database type %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := CreateSchema(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return New(sqlDB, dialect), nil
}

// New wraps an already-open handle whose schema exists.
func New(sqlDB *sql.DB, dialect Dialect) *Store {
	return &Store{sqlDB: sqlDB, dialect: dialect, now: time.Now}
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.sqlDB
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) q() queries {
	return queries{q: s.sqlDB, dialect: s.dialect, now: s.now}
}

func (s *Store) GetUser(ctx context.Context, userID string) (models.UserRecord, error) {
	return s.q().getUser(ctx, userID)
}

func (s *Store) EnsureTally(ctx context.Context, candidateID string) error {
	return s.q().ensureTally(ctx, candidateID)
}

func (s *Store) IncrementTally(ctx context.Context, candidateID string, delta int64) error {
	return s.q().incrementTally(ctx, candidateID, delta)
}

// MarkVoted upserts has_voted=true without touching other columns.
func (s *Store) MarkVoted(ctx context.Context, userID string) error {
	_, err := s.q().exec(ctx, `
		INSERT INTO user_record (user_id, created_at, has_voted)
		VALUES (?, ?, TRUE)
		ON CONFLICT (user_id) DO UPDATE SET has_voted = TRUE
	`, userID, toMillis(s.now()))
	if err != nil {
		return fmt.Errorf("mark voted: %w", err)
	}
	return nil
}

// RunInTx runs fn in a database transaction, committing if fn returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(tx voting.Tx) error) error {
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{queries{q: sqlTx, dialect: s.dialect, now: s.now}}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SeedTallies ensures a zero tally exists for every id.
func (s *Store) SeedTallies(ctx context.Context, candidateIDs []string) error {
	q := s.q()
	for _, id := range candidateIDs {
		if err := q.ensureTally(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// ListTallies returns all tallies ordered by candidate id.
func (s *Store) ListTallies(ctx context.Context) ([]models.CandidateTally, error) {
	q := s.q()
	rows, err := q.q.QueryContext(ctx, q.rebind(`
		SELECT candidate_id, vote_count FROM candidate_tally ORDER BY candidate_id
	`))
	if err != nil {
		return nil, fmt.Errorf("list tallies: %w", err)
	}
	defer rows.Close()

	var tallies []models.CandidateTally
	for rows.Next() {
		var t models.CandidateTally
		if err := rows.Scan(&t.CandidateID, &t.Count); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tallies: %w", err)
	}
	return tallies, nil
}

// CreateAccount inserts credentials and merges the profile into the user
// record in one transaction. An existing has_voted flag is preserved.
func (s *Store) CreateAccount(ctx context.Context, acct models.Account, rec models.UserRecord) error {
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()
	q := queries{q: sqlTx, dialect: s.dialect, now: s.now}

	_, err = q.exec(ctx, `
		INSERT INTO account (user_id, email, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, acct.UserID, strings.ToLower(strings.TrimSpace(acct.Email)), acct.PasswordHash, acct.DisplayName, toMillis(acct.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrEmailInUse
		}
		return fmt.Errorf("insert account: %w", err)
	}

	_, err = q.exec(ctx, `
		INSERT INTO user_record (user_id, name, email, membership_id, created_at, has_voted)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			membership_id = excluded.membership_id,
			created_at = excluded.created_at
	`, rec.UserID, rec.Name, rec.Email, rec.MembershipID, toMillis(rec.CreatedAt), rec.HasVoted)
	if err != nil {
		return fmt.Errorf("upsert user record: %w", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	q := s.q()
	var (
		acct      models.Account
		createdAt int64
	)
	err := q.q.QueryRowContext(ctx, q.rebind(`
		SELECT user_id, email, password_hash, display_name, created_at
		FROM account WHERE email = ?
	`), strings.ToLower(strings.TrimSpace(email))).Scan(
		&acct.UserID, &acct.Email, &acct.PasswordHash, &acct.DisplayName, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, models.ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("get account: %w", err)
	}
	acct.CreatedAt = fromMillis(createdAt)
	return acct, nil
}

// txStore is the transactional view handed to RunInTx callbacks.
type txStore struct {
	queries
}

func (t *txStore) GetUser(ctx context.Context, userID string) (models.UserRecord, error) {
	return t.getUser(ctx, userID)
}

func (t *txStore) EnsureTally(ctx context.Context, candidateID string) error {
	return t.ensureTally(ctx, candidateID)
}

func (t *txStore) IncrementTally(ctx context.Context, candidateID string, delta int64) error {
	return t.incrementTally(ctx, candidateID, delta)
}

// ClaimVote flips has_voted only when it is false. Under PostgreSQL a
// concurrent claimant blocks on the row lock and then re-evaluates the
// WHERE clause against the committed row.
func (t *txStore) ClaimVote(ctx context.Context, userID string) (bool, error) {
	res, err := t.exec(ctx, `
		INSERT INTO user_record (user_id, created_at, has_voted)
		VALUES (?, ?, TRUE)
		ON CONFLICT (user_id) DO UPDATE SET has_voted = TRUE
		WHERE user_record.has_voted = FALSE
	`, userID, toMillis(t.now()))
	if err != nil {
		return false, fmt.Errorf("claim vote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim vote: %w", err)
	}
	return n == 1, nil
}

type queries struct {
	q       querier
	dialect Dialect
	now     func() time.Time
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (q queries) rebind(query string) string {
	if q.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (q queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.q.ExecContext(ctx, q.rebind(query), args...)
}

func (q queries) getUser(ctx context.Context, userID string) (models.UserRecord, error) {
	var (
		rec          models.UserRecord
		membershipID sql.NullString
		createdAt    int64
	)
	err := q.q.QueryRowContext(ctx, q.rebind(`
		SELECT user_id, name, email, membership_id, created_at, has_voted
		FROM user_record WHERE user_id = ?
	`), userID).Scan(&rec.UserID, &rec.Name, &rec.Email, &membershipID, &createdAt, &rec.HasVoted)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	if membershipID.Valid {
		rec.MembershipID = &membershipID.String
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

func (q queries) ensureTally(ctx context.Context, candidateID string) error {
	_, err := q.exec(ctx, `
		INSERT INTO candidate_tally (candidate_id, vote_count)
		VALUES (?, 0)
		ON CONFLICT (candidate_id) DO NOTHING
	`, candidateID)
	if err != nil {
		return fmt.Errorf("ensure tally: %w", err)
	}
	return nil
}

// incrementTally applies the delta in the database, never client-side.
func (q queries) incrementTally(ctx context.Context, candidateID string, delta int64) error {
	res, err := q.exec(ctx, `
		UPDATE candidate_tally SET vote_count = vote_count + ? WHERE candidate_id = ?
	`, delta, candidateID)
	if err != nil {
		return fmt.Errorf("increment tally: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment tally: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ voting.Store = (*Store)(nil)
var _ voting.Tx = (*txStore)(nil)
var _ auth.AccountStore = (*Store)(nil)
