// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs method, path, status and duration_ms once the handler returns.

# Sessions

WithSession reads an "Authorization: Bearer <token>" header, verifies it
and attaches the session to the request context:

	handler := middleware.WithSession(authService, mux)

	sess := middleware.SessionFromContext(r.Context()) // nil when signed out

It never rejects a request. Handlers pass the (possibly nil) session to the
vote coordinator, which reports unauthenticated callers itself.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(cfg.CORSOrigins, mux),
	}

Listed origins are echoed back with Access-Control-Allow-Credentials. An empty
list allows any origin as "*" without credentials. Unlisted origins get no
Access-Control-Allow-Origin header, so browsers refuse the response.

Preflight requests are answered with 204 and never reach the handler.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponseCode(w, http.StatusConflict, "email_in_use", "email already registered")

ParseJSONBody rejects unknown fields, trailing data and bodies over 1 MiB.

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handlers hash the IP before logging it.
*/
package middleware
