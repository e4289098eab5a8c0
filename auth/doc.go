// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides accounts, sessions, and token generation utilities.

# Accounts

Service implements sign-up and sign-in over an AccountStore:

	svc := auth.NewService(store, issuer)
	reg, err := svc.SignUp(ctx, auth.SignUpInput{Name: "Ayesha", Email: "a@college.edu", Password: "secret1"})
	session, err := svc.SignIn(ctx, "a@college.edu", "secret1")

SignUp writes the account and a UserRecord with has_voted=false in one
store call. Registrants who are not members get a generated membership ID
(STEM- followed by six digits).

Errors:

  - ErrEmailInUse: the email already has an account
  - ErrWeakPassword: shorter than MinPasswordLength or over bcrypt's 72 bytes
  - ErrInvalidInput: missing name, malformed email, member without an ID
  - ErrInvalidCredentials: unknown email or wrong password

# Passwords

Passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err := auth.CheckPassword(hash, password)

# Sessions

Sessions are HS256 JWTs signed with the configured secret:

	issuer, err := auth.NewTokenIssuer(secret, time.Hour)
	session, err := issuer.Issue(userID, email)
	verified, err := issuer.Verify(session.Token)

The subject claim carries the user ID. Verify rejects expired tokens,
other signing methods, and other issuers with ErrInvalidToken.

# ID Generation

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving request logs:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
