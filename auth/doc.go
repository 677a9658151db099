// Package auth guards the detailed health report endpoints and mints the
// tokens used to read protected downstream reports.
//
// The full report tree exposes dependency names, versions and failure
// text, so deployments that publish it beyond the cluster put it behind
// Middleware. Liveness and readiness stay open.
//
// Two credential kinds are understood: HMAC-signed JWT bearer tokens and
// static API keys stored as SHA-256 hashes. TokenIssuer produces tokens
// that a peer's JWTAuthenticator accepts.
package auth
