// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/middleware"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/voting"
)

// UserReader loads user records for the dashboard.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (models.UserRecord, error)
}

type VotingHandler struct {
	coord  *voting.Coordinator
	users  UserReader
	ipSalt string
}

// NewVotingHandler wires the coordinator. ipSalt keys the client IP hashes
// written to the logs.
func NewVotingHandler(coord *voting.Coordinator, users UserReader, ipSalt string) *VotingHandler {
	return &VotingHandler{coord: coord, users: users, ipSalt: ipSalt}
}

// CastVote handles POST /votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if !sess.Valid(time.Now()) {
		writeError(w, voting.ErrUnauthenticated)
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponseCode(w, http.StatusBadRequest, models.CodeInvalidInput, "Invalid JSON")
		return
	}

	outcome, err := h.coord.CastVote(r.Context(), sess, req.CandidateID)
	if err != nil {
		slog.Warn("vote rejected",
			"error", err,
			"ip_hash", auth.HashIP(middleware.GetClientIP(r), h.ipSalt),
		)
		writeError(w, err)
		return
	}

	resp := models.CastVoteResponse{
		Outcome:     string(outcome),
		CandidateID: strings.TrimSpace(req.CandidateID),
		HasVoted:    true,
	}
	status := http.StatusCreated
	switch outcome {
	case voting.OutcomeRecorded:
		resp.Message = "Vote cast successfully"
	case voting.OutcomeAlreadyVoted:
		status = http.StatusOK
		resp.Message = "You have already voted"
	}

	middleware.JSONResponse(w, status, resp)
}

// Me handles GET /me
func (h *VotingHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if !sess.Valid(time.Now()) {
		writeError(w, voting.ErrUnauthenticated)
		return
	}

	rec, err := h.users.GetUser(r.Context(), sess.UserID)
	if errors.Is(err, models.ErrNotFound) {
		if h.coord.Policy().RequireExistingUserRecord {
			writeError(w, voting.ErrUserRecordMissing)
			return
		}
		// No record yet: the user may still vote, so answer from the session.
		voted, err := h.coord.HasVoted(r.Context(), sess)
		if err != nil {
			writeError(w, err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.MeResponse{
			UserID:   sess.UserID,
			Email:    sess.Email,
			HasVoted: voted,
		})
		return
	}
	if err != nil {
		slog.Error("failed to load user record", "error", err, "user_id", sess.UserID)
		writeError(w, errors.Join(voting.ErrStoreUnavailable, err))
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MeResponse{
		UserID:       rec.UserID,
		Name:         rec.Name,
		Email:        rec.Email,
		MembershipID: rec.MembershipID,
		CreatedAt:    rec.CreatedAt,
		HasVoted:     rec.HasVoted,
	})
}
