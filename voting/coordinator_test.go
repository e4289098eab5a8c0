// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/stem-vote/memstore"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/voting"
)

var modes = []voting.Mode{voting.ModeDefault, voting.ModeHardened}

func newSession(userID string) *models.Session {
	return &models.Session{UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}
}

func seededStore(t *testing.T, ids ...string) *memstore.Store {
	t.Helper()
	store := memstore.NewStore()
	if err := store.SeedTallies(context.Background(), ids); err != nil {
		t.Fatal(err)
	}
	return store
}

func counts(t *testing.T, store *memstore.Store) map[string]int64 {
	t.Helper()
	tallies, err := store.ListTallies(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string]int64, len(tallies))
	for _, tally := range tallies {
		out[tally.CandidateID] = tally.Count
	}
	return out
}

func assertCounts(t *testing.T, store *memstore.Store, want map[string]int64) {
	t.Helper()
	got := counts(t, store)
	if len(got) != len(want) {
		t.Errorf("tallies = %v, want %v", got, want)
		return
	}
	for id, n := range want {
		if got[id] != n {
			t.Errorf("tallies = %v, want %v", got, want)
			return
		}
	}
}

func TestCastVote_Scenario(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			ctx := context.Background()
			store := seededStore(t, "c1", "c2", "c3")
			store.PutUser(models.UserRecord{UserID: "U", Name: "Ayesha", Email: "a@college.edu"})
			coord := voting.NewCoordinator(store, voting.Policy{Mode: mode})
			session := newSession("U")

			outcome, err := coord.CastVote(ctx, session, "c2")
			if err != nil {
				t.Fatalf("CastVote() error = %v", err)
			}
			if outcome != voting.OutcomeRecorded {
				t.Fatalf("CastVote() = %q, want recorded", outcome)
			}
			assertCounts(t, store, map[string]int64{"c1": 0, "c2": 1, "c3": 0})

			rec, err := store.GetUser(ctx, "U")
			if err != nil {
				t.Fatal(err)
			}
			if !rec.HasVoted {
				t.Error("user record not marked voted")
			}
			if rec.Name != "Ayesha" || rec.Email != "a@college.edu" {
				t.Errorf("marking voted clobbered profile: %+v", rec)
			}

			outcome, err = coord.CastVote(ctx, session, "c1")
			if err != nil {
				t.Fatalf("second CastVote() error = %v", err)
			}
			if outcome != voting.OutcomeAlreadyVoted {
				t.Errorf("second CastVote() = %q, want already_voted", outcome)
			}
			assertCounts(t, store, map[string]int64{"c1": 0, "c2": 1, "c3": 0})

			voted, err := coord.HasVoted(ctx, session)
			if err != nil || !voted {
				t.Errorf("HasVoted() = %v, %v; want true, nil", voted, err)
			}
		})
	}
}

func TestCastVote_UnknownCandidateCreatesTally(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			store := seededStore(t, "c1")
			coord := voting.NewCoordinator(store, voting.Policy{Mode: mode})

			outcome, err := coord.CastVote(context.Background(), newSession("U"), "nonexistent-id")
			if err != nil {
				t.Fatal(err)
			}
			if outcome != voting.OutcomeRecorded {
				t.Errorf("CastVote() = %q, want recorded", outcome)
			}
			assertCounts(t, store, map[string]int64{"c1": 0, "nonexistent-id": 1})
		})
	}
}

func TestCastVote_Unauthenticated(t *testing.T) {
	expired := &models.Session{UserID: "U", ExpiresAt: time.Now().Add(-time.Minute)}
	anonymous := &models.Session{ExpiresAt: time.Now().Add(time.Hour)}

	for _, mode := range modes {
		for name, session := range map[string]*models.Session{"nil": nil, "expired": expired, "no user": anonymous} {
			t.Run(mode.String()+"/"+name, func(t *testing.T) {
				store := seededStore(t, "c1", "c2", "c3")
				coord := voting.NewCoordinator(store, voting.Policy{Mode: mode})

				_, err := coord.CastVote(context.Background(), session, "c1")
				if !errors.Is(err, voting.ErrUnauthenticated) {
					t.Errorf("CastVote() error = %v, want ErrUnauthenticated", err)
				}
				assertCounts(t, store, map[string]int64{"c1": 0, "c2": 0, "c3": 0})

				if _, err := coord.HasVoted(context.Background(), session); !errors.Is(err, voting.ErrUnauthenticated) {
					t.Errorf("HasVoted() error = %v, want ErrUnauthenticated", err)
				}
			})
		}
	}
}

func TestCastVote_EmptyCandidate(t *testing.T) {
	store := seededStore(t, "c1")
	coord := voting.NewCoordinator(store, voting.Policy{})

	_, err := coord.CastVote(context.Background(), newSession("U"), "   ")
	if !errors.Is(err, voting.ErrInvalidCandidate) {
		t.Errorf("CastVote() error = %v, want ErrInvalidCandidate", err)
	}
	if _, err := store.GetUser(context.Background(), "U"); !errors.Is(err, models.ErrNotFound) {
		t.Error("rejected vote wrote a user record")
	}
}

func TestCastVote_RequireExistingUserRecord(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			ctx := context.Background()
			store := seededStore(t, "c1")
			store.PutUser(models.UserRecord{UserID: "known"})
			coord := voting.NewCoordinator(store, voting.Policy{Mode: mode, RequireExistingUserRecord: true})

			_, err := coord.CastVote(ctx, newSession("stranger"), "c1")
			if !errors.Is(err, voting.ErrUserRecordMissing) {
				t.Errorf("CastVote() error = %v, want ErrUserRecordMissing", err)
			}
			assertCounts(t, store, map[string]int64{"c1": 0})

			outcome, err := coord.CastVote(ctx, newSession("known"), "c1")
			if err != nil || outcome != voting.OutcomeRecorded {
				t.Errorf("CastVote() = %q, %v; want recorded", outcome, err)
			}
		})
	}
}

func TestCastVote_MissingRecordAllowedByDefault(t *testing.T) {
	store := seededStore(t, "c1")
	coord := voting.NewCoordinator(store, voting.Policy{})

	outcome, err := coord.CastVote(context.Background(), newSession("stranger"), "c1")
	if err != nil || outcome != voting.OutcomeRecorded {
		t.Fatalf("CastVote() = %q, %v; want recorded", outcome, err)
	}
	rec, err := store.GetUser(context.Background(), "stranger")
	if err != nil || !rec.HasVoted {
		t.Errorf("GetUser() = %+v, %v; want has_voted", rec, err)
	}
}

func TestCastVote_HardenedIdempotent(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, "c1", "c2")
	coord := voting.NewCoordinator(store, voting.Policy{Mode: voting.ModeHardened})
	session := newSession("U")

	want := []voting.Outcome{voting.OutcomeRecorded, voting.OutcomeAlreadyVoted, voting.OutcomeAlreadyVoted}
	for i, w := range want {
		got, err := coord.CastVote(ctx, session, "c1")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if got != w {
			t.Errorf("call %d = %q, want %q", i, got, w)
		}
	}
	assertCounts(t, store, map[string]int64{"c1": 1, "c2": 0})
}

func TestCastVote_StoreUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		mode       voting.Mode
		op         memstore.Op
		wantCounts map[string]int64
		wantVoted  bool
	}{
		// Default mode makes no all-or-nothing promise.
		{"default/get user", voting.ModeDefault, memstore.OpGetUser, map[string]int64{"c1": 0}, false},
		{"default/increment", voting.ModeDefault, memstore.OpIncrementTally, map[string]int64{"c1": 0}, false},
		{"default/mark voted", voting.ModeDefault, memstore.OpMarkVoted, map[string]int64{"c1": 1}, false},
		{"hardened/get user", voting.ModeHardened, memstore.OpGetUser, map[string]int64{"c1": 0}, false},
		{"hardened/claim", voting.ModeHardened, memstore.OpClaimVote, map[string]int64{"c1": 0}, false},
		{"hardened/increment", voting.ModeHardened, memstore.OpIncrementTally, map[string]int64{"c1": 0}, false},
		{"hardened/commit", voting.ModeHardened, memstore.OpCommit, map[string]int64{"c1": 0}, false},
	}

	cause := errors.New("connection reset")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := seededStore(t, "c1")
			store.FailNext(tt.op, cause)
			coord := voting.NewCoordinator(store, voting.Policy{Mode: tt.mode})

			_, err := coord.CastVote(ctx, newSession("U"), "c1")
			if !errors.Is(err, voting.ErrStoreUnavailable) {
				t.Fatalf("CastVote() error = %v, want ErrStoreUnavailable", err)
			}
			if !errors.Is(err, cause) {
				t.Errorf("CastVote() error = %v, does not wrap cause", err)
			}
			assertCounts(t, store, tt.wantCounts)

			voted, err := coord.HasVoted(ctx, newSession("U"))
			if err != nil {
				t.Fatal(err)
			}
			if voted != tt.wantVoted {
				t.Errorf("HasVoted() = %v, want %v", voted, tt.wantVoted)
			}
		})
	}
}

func TestCastVote_HardenedRetryAfterFailure(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, "c1")
	store.FailNext(memstore.OpCommit, errors.New("timeout"))
	coord := voting.NewCoordinator(store, voting.Policy{Mode: voting.ModeHardened})
	session := newSession("U")

	if _, err := coord.CastVote(ctx, session, "c1"); !errors.Is(err, voting.ErrStoreUnavailable) {
		t.Fatalf("first CastVote() error = %v", err)
	}
	outcome, err := coord.CastVote(ctx, session, "c1")
	if err != nil || outcome != voting.OutcomeRecorded {
		t.Fatalf("retry = %q, %v; want recorded", outcome, err)
	}
	assertCounts(t, store, map[string]int64{"c1": 1})
}

func TestCastVote_Timeout(t *testing.T) {
	store := seededStore(t, "c1")
	coord := voting.NewCoordinator(&slowStore{Store: store, delay: 200 * time.Millisecond}, voting.Policy{StoreTimeout: 20 * time.Millisecond})

	_, err := coord.CastVote(context.Background(), newSession("U"), "c1")
	if !errors.Is(err, voting.ErrStoreUnavailable) {
		t.Fatalf("CastVote() error = %v, want ErrStoreUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("CastVote() error = %v, want DeadlineExceeded cause", err)
	}
	assertCounts(t, store, map[string]int64{"c1": 0})
}

// TestCastVote_DefaultModeDoubleCount forces two calls from one identity to
// both read has_voted=false before either writes. Default mode then counts
// both.
func TestCastVote_DefaultModeDoubleCount(t *testing.T) {
	store := seededStore(t, "c1")
	gated := newBarrierStore(store, 2)
	coord := voting.NewCoordinator(gated, voting.Policy{Mode: voting.ModeDefault})
	session := newSession("U")

	var recorded atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := coord.CastVote(context.Background(), session, "c1")
			if err != nil {
				t.Errorf("CastVote() error = %v", err)
				return
			}
			if outcome == voting.OutcomeRecorded {
				recorded.Add(1)
			}
		}()
	}
	wg.Wait()

	if recorded.Load() != 2 {
		t.Errorf("recorded = %d, want 2", recorded.Load())
	}
	assertCounts(t, store, map[string]int64{"c1": 2})

	rec, err := store.GetUser(context.Background(), "U")
	if err != nil || !rec.HasVoted {
		t.Errorf("GetUser() = %+v, %v; want has_voted", rec, err)
	}
}

func TestCastVote_HardenedConcurrentSingleIdentity(t *testing.T) {
	store := seededStore(t, "c1", "c2")
	coord := voting.NewCoordinator(store, voting.Policy{Mode: voting.ModeHardened})
	session := newSession("U")

	const callers = 50
	var recorded, already atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidate := "c1"
			if i%2 == 1 {
				candidate = "c2"
			}
			outcome, err := coord.CastVote(context.Background(), session, candidate)
			if err != nil {
				t.Errorf("CastVote() error = %v", err)
				return
			}
			switch outcome {
			case voting.OutcomeRecorded:
				recorded.Add(1)
			case voting.OutcomeAlreadyVoted:
				already.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if recorded.Load() != 1 || already.Load() != callers-1 {
		t.Errorf("recorded = %d, already = %d; want 1, %d", recorded.Load(), already.Load(), callers-1)
	}
	total := int64(0)
	for _, n := range counts(t, store) {
		total += n
	}
	if total != 1 {
		t.Errorf("total tally = %d, want 1", total)
	}
}

func TestCastVote_ConcurrentDistinctVoters(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			store := seededStore(t, "c1")
			coord := voting.NewCoordinator(store, voting.Policy{Mode: mode})

			const voters = 40
			var wg sync.WaitGroup
			for i := 0; i < voters; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					session := newSession("voter-" + string(rune('A'+i)))
					if _, err := coord.CastVote(context.Background(), session, "c1"); err != nil {
						t.Errorf("CastVote() error = %v", err)
					}
				}(i)
			}
			wg.Wait()

			assertCounts(t, store, map[string]int64{"c1": voters})
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    voting.Mode
		wantErr bool
	}{
		{"", voting.ModeDefault, false},
		{"default", voting.ModeDefault, false},
		{"Hardened", voting.ModeHardened, false},
		{"strict", voting.ModeDefault, true},
	}
	for _, tt := range tests {
		got, err := voting.ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

// barrierStore holds every GetUser call until n callers have arrived.
type barrierStore struct {
	*memstore.Store
	arrived sync.WaitGroup
}

func newBarrierStore(store *memstore.Store, n int) *barrierStore {
	b := &barrierStore{Store: store}
	b.arrived.Add(n)
	return b
}

func (b *barrierStore) GetUser(ctx context.Context, userID string) (models.UserRecord, error) {
	rec, err := b.Store.GetUser(ctx, userID)
	b.arrived.Done()
	b.arrived.Wait()
	return rec, err
}

// slowStore delays reads until the delay passes or ctx is done.
type slowStore struct {
	*memstore.Store
	delay time.Duration
}

func (s *slowStore) GetUser(ctx context.Context, userID string) (models.UserRecord, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return models.UserRecord{}, ctx.Err()
	}
	return s.Store.GetUser(ctx, userID)
}
