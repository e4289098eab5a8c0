// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/middleware"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/voting"
)

type apiError struct {
	target  error
	status  int
	code    string
	message string
}

// errorTable maps domain errors to HTTP responses. First match wins.
var errorTable = []apiError{
	{auth.ErrInvalidInput, http.StatusBadRequest, models.CodeInvalidInput, ""},
	{auth.ErrWeakPassword, http.StatusBadRequest, models.CodeWeakPassword, "Password must be at least 6 characters"},
	{auth.ErrEmailInUse, http.StatusConflict, models.CodeEmailInUse, "Email already registered"},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized, models.CodeInvalidCredentials, "Invalid email or password"},
	{voting.ErrUnauthenticated, http.StatusUnauthorized, models.CodeUnauthenticated, "Sign in to continue"},
	{voting.ErrInvalidCandidate, http.StatusBadRequest, models.CodeInvalidCandidate, "candidate_id is required"},
	{voting.ErrUserRecordMissing, http.StatusForbidden, models.CodeUserRecordMissing, "No voter record for this account"},
	{voting.ErrStoreUnavailable, http.StatusServiceUnavailable, models.CodeStoreUnavailable, "Voting is temporarily unavailable, try again"},
}

// writeError translates err into a JSON error response.
func writeError(w http.ResponseWriter, err error) {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			msg := e.message
			if msg == "" {
				msg = err.Error()
			}
			middleware.ErrorResponseCode(w, e.status, e.code, msg)
			return
		}
	}
	slog.Error("unhandled error", "error", err)
	middleware.ErrorResponseCode(w, http.StatusInternalServerError, models.CodeInternal, "Internal error")
}
