// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/stem-vote/models"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrUserRecordMissing = errors.New("user record missing")
	ErrInvalidCandidate  = errors.New("invalid candidate id")
)

// Outcome is the non-error result of a vote attempt.
type Outcome string

const (
	OutcomeRecorded     Outcome = models.OutcomeRecorded
	OutcomeAlreadyVoted Outcome = models.OutcomeAlreadyVoted
)

// Mode selects how the read-check-write sequence is applied.
type Mode int

const (
	// ModeDefault issues each step as an independent store call. Two
	// concurrent calls for one identity can both increment.
	ModeDefault Mode = iota
	// ModeHardened runs the whole sequence in one store transaction guarded
	// by a conditional claim on the user record.
	ModeHardened
)

func (m Mode) String() string {
	switch m {
	case ModeHardened:
		return "hardened"
	default:
		return "default"
	}
}

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ModeDefault, nil
	case "hardened":
		return ModeHardened, nil
	}
	return ModeDefault, fmt.Errorf("unknown vote mode %q", s)
}

// Reader holds the reads and writes available both inside and outside a
// transaction.
type Reader interface {
	GetUser(ctx context.Context, userID string) (models.UserRecord, error)
	EnsureTally(ctx context.Context, candidateID string) error
	IncrementTally(ctx context.Context, candidateID string, delta int64) error
}

// Store is the persistence the coordinator needs. GetUser returns
// models.ErrNotFound for unknown users.
type Store interface {
	Reader
	// MarkVoted merges has_voted=true into the user record, creating it if absent.
	MarkVoted(ctx context.Context, userID string) error
	// RunInTx applies fn atomically. fn must only use the Tx it is given.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view of a Store.
type Tx interface {
	Reader
	// ClaimVote sets has_voted=true if and only if it was false (or the
	// record was absent) and reports whether it did.
	ClaimVote(ctx context.Context, userID string) (bool, error)
}

// Policy configures a Coordinator.
type Policy struct {
	Mode                      Mode
	RequireExistingUserRecord bool
	// StoreTimeout bounds a whole CastVote call. Zero means no bound.
	StoreTimeout time.Duration
}

// Coordinator casts votes at most once per identity.
type Coordinator struct {
	store  Store
	policy Policy
	now    func() time.Time
}

func NewCoordinator(store Store, policy Policy) *Coordinator {
	return &Coordinator{store: store, policy: policy, now: time.Now}
}

// Policy returns the coordinator's configuration.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// CastVote records one vote for candidateID on behalf of session's user.
//
// OutcomeAlreadyVoted is returned with a nil error when the user already
// voted. Store failures are wrapped in ErrStoreUnavailable and are never
// retried here; in ModeDefault a retry after a failure can double count.
func (c *Coordinator) CastVote(ctx context.Context, session *models.Session, candidateID string) (Outcome, error) {
	if !session.Valid(c.now()) {
		return "", ErrUnauthenticated
	}
	candidateID = strings.TrimSpace(candidateID)
	if candidateID == "" {
		return "", ErrInvalidCandidate
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var (
		outcome Outcome
		err     error
	)
	if c.policy.Mode == ModeHardened {
		outcome, err = c.castHardened(ctx, session.UserID, candidateID)
	} else {
		outcome, err = c.castDefault(ctx, session.UserID, candidateID)
	}
	if err != nil {
		slog.Error("vote failed",
			"user_id", session.UserID,
			"candidate_id", candidateID,
			"mode", c.policy.Mode.String(),
			"error", err,
		)
		return "", err
	}

	slog.Info("vote processed",
		"user_id", session.UserID,
		"candidate_id", candidateID,
		"mode", c.policy.Mode.String(),
		"outcome", string(outcome),
	)
	return outcome, nil
}

// HasVoted reports the session user's voting status.
func (c *Coordinator) HasVoted(ctx context.Context, session *models.Session) (bool, error) {
	if !session.Valid(c.now()) {
		return false, ErrUnauthenticated
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rec, err := c.store.GetUser(ctx, session.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("get user", err)
	}
	return rec.HasVoted, nil
}

func (c *Coordinator) castDefault(ctx context.Context, userID, candidateID string) (Outcome, error) {
	voted, err := c.checkEligibility(ctx, c.store, userID)
	if err != nil {
		return "", err
	}
	if voted {
		return OutcomeAlreadyVoted, nil
	}

	if err := c.store.EnsureTally(ctx, candidateID); err != nil {
		return "", unavailable("ensure tally", err)
	}
	if err := c.store.IncrementTally(ctx, candidateID, 1); err != nil {
		return "", unavailable("increment tally", err)
	}
	if err := c.store.MarkVoted(ctx, userID); err != nil {
		return "", unavailable("mark voted", err)
	}
	return OutcomeRecorded, nil
}

func (c *Coordinator) castHardened(ctx context.Context, userID, candidateID string) (Outcome, error) {
	var outcome Outcome
	err := c.store.RunInTx(ctx, func(tx Tx) error {
		voted, err := c.checkEligibility(ctx, tx, userID)
		if err != nil {
			return err
		}
		if voted {
			outcome = OutcomeAlreadyVoted
			return nil
		}

		claimed, err := tx.ClaimVote(ctx, userID)
		if err != nil {
			return unavailable("claim vote", err)
		}
		if !claimed {
			outcome = OutcomeAlreadyVoted
			return nil
		}

		if err := tx.EnsureTally(ctx, candidateID); err != nil {
			return unavailable("ensure tally", err)
		}
		if err := tx.IncrementTally(ctx, candidateID, 1); err != nil {
			return unavailable("increment tally", err)
		}
		outcome = OutcomeRecorded
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrUserRecordMissing) {
			return "", err
		}
		return "", unavailable("transaction", err)
	}
	return outcome, nil
}

// checkEligibility returns the stored has_voted flag, applying the
// missing-record policy.
func (c *Coordinator) checkEligibility(ctx context.Context, r Reader, userID string) (bool, error) {
	rec, err := r.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		if c.policy.RequireExistingUserRecord {
			return false, ErrUserRecordMissing
		}
		return false, nil
	}
	if err != nil {
		return false, unavailable("get user", err)
	}
	return rec.HasVoted, nil
}

func (c *Coordinator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.policy.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.policy.StoreTimeout)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
