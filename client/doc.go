// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is a Go client for the stem-vote HTTP API.

A Client holds at most one session. SignUp and SignIn replace it, SignOut
clears it, and every request carries it as a bearer token:

	c := client.New("http://localhost:3318")
	stop := c.OnSessionChange(func(s *models.Session) {
		if s == nil {
			// signed out
		}
	})
	defer stop()

	if _, err := c.SignIn(ctx, "ayesha@stem.test", "secret1"); err != nil {
		return err
	}
	outcome, err := c.CastVote(ctx, "c1")

Errors from the server are *APIError values that unwrap to the auth and
voting sentinels, so callers can test them with errors.Is:

	if errors.Is(err, voting.ErrStoreUnavailable) {
		// retry later
	}
*/
package client
