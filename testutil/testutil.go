// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/cliparse"
	"github.com/danielhkuo/stem-vote/db"
	"github.com/danielhkuo/stem-vote/memstore"
	"github.com/danielhkuo/stem-vote/middleware"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/roster"
	"github.com/danielhkuo/stem-vote/voting"
)

// TestSecret signs sessions in tests
const TestSecret = "test-session-secret"

// SetupTestDB opens a fresh SQLite store with the full schema in a temp dir
func SetupTestDB(t *testing.T) *db.Store {
	t.Helper()

	store, err := db.Open(db.DialectSQLite, filepath.Join(t.TempDir(), "stem-vote.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseType:  cliparse.DatabaseMemory,
		SessionSecret: TestSecret,
		SessionTTL:    time.Hour,
		VoteMode:      "hardened",
		StoreTimeout:  5 * time.Second,
	}
}

// Backend is the store surface the services are built on.
type Backend interface {
	voting.Store
	auth.AccountStore
	SeedTallies(ctx context.Context, candidateIDs []string) error
	ListTallies(ctx context.Context) ([]models.CandidateTally, error)
}

// Services bundles the collaborators handlers and routers need.
type Services struct {
	Store       Backend
	Auth        *auth.Service
	Coordinator *voting.Coordinator
	Roster      roster.Static
	Config      cliparse.Config
}

// NewTestServices wires services over an in-memory store
func NewTestServices(t *testing.T, policy voting.Policy) (*Services, *memstore.Store) {
	t.Helper()
	store := memstore.NewStore()
	return NewServicesWithStore(t, store, policy), store
}

// NewServicesWithStore wires services over store and seeds the default roster
func NewServicesWithStore(t *testing.T, store Backend, policy voting.Policy) *Services {
	t.Helper()

	cfg := GetTestConfig()
	tokens, err := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		t.Fatalf("Failed to create token issuer: %v", err)
	}

	r := roster.Default()
	if err := store.SeedTallies(context.Background(), r.IDs()); err != nil {
		t.Fatalf("Failed to seed tallies: %v", err)
	}

	return &Services{
		Store:       store,
		Auth:        auth.NewService(store, tokens),
		Coordinator: voting.NewCoordinator(store, policy),
		Roster:      r,
		Config:      cfg,
	}
}

// SignUpTestUser registers a user and returns the session
func SignUpTestUser(t *testing.T, svc *auth.Service, name string) models.Session {
	t.Helper()

	reg, err := svc.SignUp(context.Background(), auth.SignUpInput{
		Name:     name,
		Email:    name + "@stem.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Failed to sign up %s: %v", name, err)
	}
	return reg.Session
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// WithSession attaches sess to the request the way middleware.WithSession does
func WithSession(req *http.Request, sess models.Session) *http.Request {
	return req.WithContext(middleware.ContextWithSession(req.Context(), &sess))
}

// BearerHeader returns an Authorization header for token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
