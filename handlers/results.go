// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/stem-vote/middleware"
	"github.com/danielhkuo/stem-vote/models"
	"github.com/danielhkuo/stem-vote/roster"
	"github.com/danielhkuo/stem-vote/voting"
)

// TallyLister reads the current per-candidate counts.
type TallyLister interface {
	ListTallies(ctx context.Context) ([]models.CandidateTally, error)
}

type ResultsHandler struct {
	roster  roster.Roster
	tallies TallyLister
}

func NewResultsHandler(r roster.Roster, tallies TallyLister) *ResultsHandler {
	return &ResultsHandler{roster: r, tallies: tallies}
}

// Candidates handles GET /candidates
func (h *ResultsHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.CandidatesResponse{
		Candidates: h.roster.ListCandidates(),
	})
}

// Tallies handles GET /tallies
func (h *ResultsHandler) Tallies(w http.ResponseWriter, r *http.Request) {
	tallies, err := h.tallies.ListTallies(r.Context())
	if err != nil {
		slog.Error("failed to list tallies", "error", err)
		writeError(w, errors.Join(voting.ErrStoreUnavailable, err))
		return
	}

	var total int64
	for _, t := range tallies {
		total += t.Count
	}
	if tallies == nil {
		tallies = []models.CandidateTally{}
	}

	middleware.JSONResponse(w, http.StatusOK, models.TalliesResponse{
		Tallies: tallies,
		Total:   total,
	})
}
