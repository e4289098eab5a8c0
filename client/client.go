// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/voting"
)

// APIError is a non-2xx response. It unwraps to the matching auth or voting
// sentinel when the server sent a known code.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

var codeErrors = map[string]error{
	models.CodeInvalidInput:       auth.ErrInvalidInput,
	models.CodeWeakPassword:       auth.ErrWeakPassword,
	models.CodeEmailInUse:         auth.ErrEmailInUse,
	models.CodeInvalidCredentials: auth.ErrInvalidCredentials,
	models.CodeUnauthenticated:    voting.ErrUnauthenticated,
	models.CodeInvalidCandidate:   voting.ErrInvalidCandidate,
	models.CodeUserRecordMissing:  voting.ErrUserRecordMissing,
	models.CodeStoreUnavailable:   voting.ErrStoreUnavailable,
}

func (e *APIError) Unwrap() error {
	return codeErrors[e.Code]
}

// SessionListener is told about every sign-in and sign-out. It receives nil
// when signed out.
type SessionListener func(*models.Session)

type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	session *models.Session

	listenersMu sync.Mutex
	listeners   map[int]SessionListener
	nextID      int
}

type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 10 * time.Second},
		listeners: make(map[int]SessionListener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionChange registers fn and calls it once with the current session.
// The returned func removes the listener.
func (c *Client) OnSessionChange(fn SessionListener) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	fn(c.CurrentSession())

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			delete(c.listeners, id)
			c.listenersMu.Unlock()
		})
	}
}

// CurrentSession returns a copy of the active session, or nil.
func (c *Client) CurrentSession() *models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Client) setSession(s *models.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	c.listenersMu.Lock()
	listeners := make([]SessionListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(c.CurrentSession())
	}
}

// SignUp registers an account and signs in as it. The returned response
// carries the membership id.
func (c *Client) SignUp(ctx context.Context, req models.RegisterRequest) (models.SessionResponse, error) {
	var resp models.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return models.SessionResponse{}, err
	}
	c.setSession(toSession(resp))
	return resp, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var resp models.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	s := toSession(resp)
	c.setSession(s)
	return c.CurrentSession(), nil
}

// SignOut drops the session locally. Tokens are stateless, so nothing is
// sent to the server.
func (c *Client) SignOut() {
	c.setSession(nil)
}

// CastVote votes as the current session. An unauthenticated client still
// makes the call and gets voting.ErrUnauthenticated back from the server.
func (c *Client) CastVote(ctx context.Context, candidateID string) (voting.Outcome, error) {
	var resp models.CastVoteResponse
	if err := c.do(ctx, http.MethodPost, "/votes", models.CastVoteRequest{CandidateID: candidateID}, &resp); err != nil {
		return "", err
	}
	return voting.Outcome(resp.Outcome), nil
}

func (c *Client) Me(ctx context.Context) (models.MeResponse, error) {
	var resp models.MeResponse
	err := c.do(ctx, http.MethodGet, "/me", nil, &resp)
	return resp, err
}

func (c *Client) Candidates(ctx context.Context) ([]models.Candidate, error) {
	var resp models.CandidatesResponse
	if err := c.do(ctx, http.MethodGet, "/candidates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Candidates, nil
}

func (c *Client) Tallies(ctx context.Context) (models.TalliesResponse, error) {
	var resp models.TalliesResponse
	err := c.do(ctx, http.MethodGet, "/tallies", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if s := c.CurrentSession(); s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return decodeError(res)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(res *http.Response) error {
	apiErr := &APIError{Status: res.StatusCode}
	var body models.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&body); err != nil {
		apiErr.Message = http.StatusText(res.StatusCode)
		return apiErr
	}
	apiErr.Code = body.Code
	apiErr.Message = body.Message
	if apiErr.Message == "" {
		apiErr.Message = body.Error
	}
	return apiErr
}

func toSession(r models.SessionResponse) *models.Session {
	return &models.Session{
		UserID:    r.UserID,
		Email:     r.Email,
		Token:     r.Token,
		ExpiresAt: r.ExpiresAt,
	}
}

// IsRetryable reports whether err is a transient store failure. A retry of
// CastVote is only safe when the server runs in hardened mode; in default
// mode the failed call may already have incremented a tally, so a retry can
// count the vote twice.
func IsRetryable(err error) bool {
	return errors.Is(err, voting.ErrStoreUnavailable)
}
