// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - RegisterRequest: name, email, password, is_member, membership_id
  - LoginRequest: email, password
  - CastVoteRequest: candidate_id

# Response Types

Types for JSON responses:

  - SessionResponse: user_id, email, token, expires_at, membership_id
  - CastVoteResponse: outcome, candidate_id, has_voted, message
  - MeResponse: the caller's user record
  - CandidatesResponse: the roster
  - TalliesResponse: per-candidate counts and total
  - ErrorResponse: error, message, code

# Domain Types

  - UserRecord: per-identity voting state (has_voted never reverts)
  - CandidateTally: running count for one candidate
  - Candidate: roster entry
  - Account: login credentials, never serialized
  - Session: authenticated identity with expiry

# Constants

Vote outcomes:

	OutcomeRecorded     = "recorded"
	OutcomeAlreadyVoted = "already_voted"

Stores return ErrNotFound for missing documents.
*/
package models
