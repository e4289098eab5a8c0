// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/voting"
)

// Op names a store operation for failure injection.
type Op string

const (
	OpGetUser        Op = "get_user"
	OpEnsureTally    Op = "ensure_tally"
	OpIncrementTally Op = "increment_tally"
	OpMarkVoted      Op = "mark_voted"
	OpClaimVote      Op = "claim_vote"
	OpCommit         Op = "commit"
)

type state struct {
	users    map[string]models.UserRecord
	tallies  map[string]int64
	accounts map[string]models.Account // keyed by email
}

func (st *state) clone() *state {
	c := &state{
		users:    make(map[string]models.UserRecord, len(st.users)),
		tallies:  make(map[string]int64, len(st.tallies)),
		accounts: make(map[string]models.Account, len(st.accounts)),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.tallies {
		c.tallies[k] = v
	}
	for k, v := range st.accounts {
		c.accounts[k] = v
	}
	return c
}

// Store is an in-memory document store. Transactions hold the store lock
// for their whole duration and apply their writes on commit.
type Store struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time

	failMu   sync.Mutex
	failures map[Op]error
}

func NewStore() *Store {
	return &Store{
		state: &state{
			users:    make(map[string]models.UserRecord),
			tallies:  make(map[string]int64),
			accounts: make(map[string]models.Account),
		},
		now:      time.Now,
		failures: make(map[Op]error),
	}
}

// FailNext makes the next call of op return err.
func (s *Store) FailNext(op Op, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[op] = err
}

func (s *Store) injected(op Op) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

// PutUser replaces a user record. Intended for seeding.
func (s *Store) PutUser(rec models.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.UserID = userKey(rec.UserID)
	s.state.users[rec.UserID] = rec
}

func (s *Store) GetUser(ctx context.Context, userID string) (models.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.UserRecord{}, err
	}
	if err := s.injected(OpGetUser); err != nil {
		return models.UserRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUser(s.state, userID)
}

func (s *Store) EnsureTally(ctx context.Context, candidateID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.injected(OpEnsureTally); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ensureTally(s.state, candidateID)
	return nil
}

func (s *Store) IncrementTally(ctx context.Context, candidateID string, delta int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.injected(OpIncrementTally); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return incrementTally(s.state, candidateID, delta)
}

func (s *Store) MarkVoted(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.injected(OpMarkVoted); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	markVoted(s.state, userID, s.now())
	return nil
}

func (s *Store) RunInTx(ctx context.Context, fn func(tx voting.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, staged: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.injected(OpCommit); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = tx.staged
	return nil
}

// SeedTallies ensures a zero tally exists for every id.
func (s *Store) SeedTallies(ctx context.Context, candidateIDs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range candidateIDs {
		ensureTally(s.state, id)
	}
	return nil
}

// ListTallies returns all tallies ordered by candidate id.
func (s *Store) ListTallies(ctx context.Context) ([]models.CandidateTally, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	tallies := make([]models.CandidateTally, 0, len(s.state.tallies))
	for id, count := range s.state.tallies {
		tallies = append(tallies, models.CandidateTally{CandidateID: id, Count: count})
	}
	sort.Slice(tallies, func(i, j int) bool {
		return tallies[i].CandidateID < tallies[j].CandidateID
	})
	return tallies, nil
}

// CreateAccount stores credentials and the initial user record together.
func (s *Store) CreateAccount(ctx context.Context, acct models.Account, rec models.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(acct.Email))
	if _, exists := s.state.accounts[email]; exists {
		return auth.ErrEmailInUse
	}
	acct.Email = email
	s.state.accounts[email] = acct

	// Merge the profile; an existing has_voted flag is kept.
	rec.UserID = userKey(rec.UserID)
	if existing, ok := s.state.users[rec.UserID]; ok {
		rec.HasVoted = existing.HasVoted
	}
	s.state.users[rec.UserID] = rec
	return nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.state.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.Account{}, models.ErrNotFound
	}
	return acct, nil
}

type memTx struct {
	store  *Store
	staged *state
}

func (t *memTx) GetUser(ctx context.Context, userID string) (models.UserRecord, error) {
	if err := t.store.injected(OpGetUser); err != nil {
		return models.UserRecord{}, err
	}
	return getUser(t.staged, userID)
}

func (t *memTx) EnsureTally(ctx context.Context, candidateID string) error {
	if err := t.store.injected(OpEnsureTally); err != nil {
		return err
	}
	ensureTally(t.staged, candidateID)
	return nil
}

func (t *memTx) IncrementTally(ctx context.Context, candidateID string, delta int64) error {
	if err := t.store.injected(OpIncrementTally); err != nil {
		return err
	}
	return incrementTally(t.staged, candidateID, delta)
}

func (t *memTx) ClaimVote(ctx context.Context, userID string) (bool, error) {
	if err := t.store.injected(OpClaimVote); err != nil {
		return false, err
	}
	rec, ok := t.staged.users[userKey(userID)]
	if ok && rec.HasVoted {
		return false, nil
	}
	markVoted(t.staged, userID, t.store.now())
	return true, nil
}

func getUser(st *state, userID string) (models.UserRecord, error) {
	rec, ok := st.users[userKey(userID)]
	if !ok {
		return models.UserRecord{}, models.ErrNotFound
	}
	return rec, nil
}

func ensureTally(st *state, candidateID string) {
	if _, ok := st.tallies[candidateID]; !ok {
		st.tallies[candidateID] = 0
	}
}

func incrementTally(st *state, candidateID string, delta int64) error {
	count, ok := st.tallies[candidateID]
	if !ok {
		return models.ErrNotFound
	}
	st.tallies[candidateID] = count + delta
	return nil
}

func markVoted(st *state, userID string, now time.Time) {
	userID = userKey(userID)
	rec, ok := st.users[userID]
	if !ok {
		rec = models.UserRecord{UserID: userID, CreatedAt: now.UTC()}
	}
	rec.HasVoted = true
	st.users[userID] = rec
}

// userKey normalises a user id into a users map key.
func userKey(userID string) string {
	return strings.TrimSpace(userID)
}

var _ voting.Store = (*Store)(nil)
var _ auth.AccountStore = (*Store)(nil)
