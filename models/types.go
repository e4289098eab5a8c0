package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("not found")

// Vote outcome constants
const (
	OutcomeRecorded     = "recorded"
	OutcomeAlreadyVoted = "already_voted"
)

// Request types

type RegisterRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	IsMember     bool   `json:"is_member"`
	MembershipID string `json:"membership_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CastVoteRequest struct {
	CandidateID string `json:"candidate_id"`
}

// Response types

type SessionResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	MembershipID string    `json:"membership_id,omitempty"`
}

type CastVoteResponse struct {
	Outcome     string `json:"outcome"`
	CandidateID string `json:"candidate_id"`
	HasVoted    bool   `json:"has_voted"`
	Message     string `json:"message"`
}

type MeResponse struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MembershipID *string   `json:"membership_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	HasVoted     bool      `json:"has_voted"`
}

type CandidatesResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type TalliesResponse struct {
	Tallies []CandidateTally `json:"tallies"`
	Total   int64            `json:"total"`
}

// Domain types

// UserRecord is the per-identity voting state. HasVoted only ever moves
// from false to true.
type UserRecord struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MembershipID *string   `json:"membership_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	HasVoted     bool      `json:"has_voted"`
}

type CandidateTally struct {
	CandidateID string `json:"candidate_id"`
	Count       int64  `json:"count"`
}

type Candidate struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role" yaml:"role"`
	Dept  string `json:"dept" yaml:"dept"`
	Bio   string `json:"bio" yaml:"bio"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Account holds login credentials. It is never serialized to clients.
type Account struct {
	UserID       string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// Session is proof of an authenticated identity.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"-"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the session is present and unexpired at now.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Error codes carried in ErrorResponse.Code
const (
	CodeInvalidInput       = "invalid_input"
	CodeWeakPassword       = "weak_password"
	CodeEmailInUse         = "email_in_use"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthenticated    = "unauthenticated"
	CodeInvalidCandidate   = "invalid_candidate"
	CodeUserRecordMissing  = "user_record_missing"
	CodeStoreUnavailable   = "store_unavailable"
	CodeInternal           = "internal"
)
