// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/stem-vote/models"
)

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrInvalidInput       = errors.New("invalid input")
)

// AccountStore persists credentials. CreateAccount writes the account and
// the initial user record as one unit and returns ErrEmailInUse on a
// duplicate email. GetAccountByEmail returns models.ErrNotFound.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct models.Account, rec models.UserRecord) error
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
}

// SignUpInput is a registration request after transport decoding.
type SignUpInput struct {
	Name     string
	Email    string
	Password string
	// IsMember means MembershipID was issued by the society already.
	// Otherwise a new one is generated.
	IsMember     bool
	MembershipID string
}

// Registration is the result of a successful SignUp.
type Registration struct {
	Session      models.Session
	MembershipID string
}

// Service is the authentication collaborator: sign-up, sign-in, and
// session verification.
type Service struct {
	store  AccountStore
	tokens *TokenIssuer
	now    func() time.Time
}

func NewService(store AccountStore, tokens *TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens, now: time.Now}
}

// SignUp creates an account and its user record, then starts a session.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (Registration, error) {
	name := strings.TrimSpace(in.Name)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return Registration{}, err
	}
	if name == "" || in.Password == "" {
		return Registration{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}

	membershipID := strings.TrimSpace(in.MembershipID)
	if in.IsMember && membershipID == "" {
		return Registration{}, fmt.Errorf("%w: membership id is required for members", ErrInvalidInput)
	}
	if !in.IsMember {
		membershipID, err = GenerateMembershipID()
		if err != nil {
			return Registration{}, err
		}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Registration{}, err
	}

	now := s.now().UTC()
	userID := uuid.NewString()
	acct := models.Account{
		UserID:       userID,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  name,
		CreatedAt:    now,
	}
	rec := models.UserRecord{
		UserID:       userID,
		Name:         name,
		Email:        email,
		MembershipID: &membershipID,
		CreatedAt:    now,
		HasVoted:     false,
	}
	if err := s.store.CreateAccount(ctx, acct, rec); err != nil {
		if errors.Is(err, ErrEmailInUse) {
			return Registration{}, ErrEmailInUse
		}
		return Registration{}, fmt.Errorf("create account: %w", err)
	}

	session, err := s.tokens.Issue(userID, email)
	if err != nil {
		return Registration{}, err
	}

	slog.Info("account created", "user_id", userID, "generated_membership", !in.IsMember)
	return Registration{Session: session, MembershipID: membershipID}, nil
}

// SignIn verifies credentials and starts a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (models.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.Session{}, ErrInvalidCredentials
	}

	acct, err := s.store.GetAccountByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return models.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("get account: %w", err)
	}
	if err := CheckPassword(acct.PasswordHash, password); err != nil {
		return models.Session{}, err
	}

	return s.tokens.Issue(acct.UserID, acct.Email)
}

// CurrentSession verifies a bearer token and returns its session.
func (s *Service) CurrentSession(token string) (*models.Session, error) {
	return s.tokens.Verify(token)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Name != "" {
		return "", fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}
