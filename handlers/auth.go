// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/stem-vote/auth"
	"github.com/danielhkuo/stem-vote/middleware"
	"github.com/danielhkuo/stem-vote/models"
)

type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponseCode(w, http.StatusBadRequest, models.CodeInvalidInput, "Invalid JSON")
		return
	}

	reg, err := h.svc.SignUp(r.Context(), auth.SignUpInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		IsMember:     req.IsMember,
		MembershipID: req.MembershipID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, sessionResponse(reg.Session, reg.MembershipID))
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponseCode(w, http.StatusBadRequest, models.CodeInvalidInput, "Invalid JSON")
		return
	}

	sess, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, sessionResponse(sess, ""))
}

func sessionResponse(s models.Session, membershipID string) models.SessionResponse {
	return models.SessionResponse{
		UserID:       s.UserID,
		Email:        s.Email,
		Token:        s.Token,
		ExpiresAt:    s.ExpiresAt,
		MembershipID: membershipID,
	}
}
