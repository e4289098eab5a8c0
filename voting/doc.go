// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting casts votes at most once per user identity.

# Coordinator

The Coordinator is the only writer of UserRecord.HasVoted and
CandidateTally.Count:

	coord := voting.NewCoordinator(store, voting.Policy{Mode: voting.ModeHardened})
	outcome, err := coord.CastVote(ctx, session, "c2")

Results:

  - OutcomeRecorded: the tally was incremented and the user marked voted
  - OutcomeAlreadyVoted: nothing was written (not an error)
  - ErrUnauthenticated: nil or expired session, nothing was written
  - ErrStoreUnavailable: the store failed or timed out (wraps the cause)
  - ErrUserRecordMissing: RequireExistingUserRecord is set and the user has no record
  - ErrInvalidCandidate: empty candidate id

Candidate ids are not checked against the roster. An unknown id gets a fresh
tally.

# Modes

ModeDefault issues get user, ensure tally, increment, mark voted as separate
store calls. Two concurrent calls for the same identity can both pass the
has_voted check and both increment.

ModeHardened runs the sequence in Store.RunInTx. Tx.ClaimVote flips
has_voted only if it was false, so a losing racer sees OutcomeAlreadyVoted
and the tally is incremented once. Both mutations commit together or not at
all, which makes retrying after ErrStoreUnavailable safe.

# Store

Store is implemented by db.Store (SQL) and memstore.Store (in memory).
*/
package voting
