package auth

import (
	"context"
	"net/http"
)

// Authenticator validates the credentials of a report request.
//
// Authenticate returns (nil, error) for internal errors and
// (AuthResult, nil) for accepted or rejected credentials.
type Authenticator interface {
	// Name returns a unique identifier for this authenticator.
	Name() string

	// Supports returns true if the request carries credentials this
	// authenticator understands.
	Supports(ctx context.Context, req *AuthRequest) bool

	// Authenticate validates credentials and returns a result.
	Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error)
}

// AuthRequest contains the information needed for authentication.
type AuthRequest struct {
	// Headers contains the request headers.
	Headers http.Header

	// Resource is the requested path.
	Resource string
}

// RequestFromHTTP builds an AuthRequest from an incoming request.
func RequestFromHTTP(r *http.Request) *AuthRequest {
	return &AuthRequest{
		Headers:  r.Header,
		Resource: r.URL.Path,
	}
}

// GetHeader returns the first value for a header, or empty string.
func (r *AuthRequest) GetHeader(key string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(key)
}

// AuthResult is the result of an authentication attempt.
type AuthResult struct {
	// Authenticated is true if authentication succeeded.
	Authenticated bool

	// Identity is the authenticated identity (only if Authenticated=true).
	Identity *Identity

	// Error is the authentication error (only if Authenticated=false).
	Error error

	// Method indicates which authenticator method was used.
	Method string
}

// AuthSuccess creates a successful authentication result.
func AuthSuccess(identity *Identity) *AuthResult {
	return &AuthResult{
		Authenticated: true,
		Identity:      identity,
		Method:        string(identity.Method),
	}
}

// AuthFailure creates a failed authentication result.
func AuthFailure(err error, method string) *AuthResult {
	return &AuthResult{
		Authenticated: false,
		Error:         err,
		Method:        method,
	}
}

// Chain tries each authenticator that supports the request and returns
// the first success. With no supporting authenticator the result is a
// failure with ErrMissingCredentials; otherwise the last failure is kept.
func Chain(ctx context.Context, req *AuthRequest, authenticators ...Authenticator) (*AuthResult, error) {
	var last *AuthResult
	for _, a := range authenticators {
		if !a.Supports(ctx, req) {
			continue
		}
		result, err := a.Authenticate(ctx, req)
		if err != nil {
			return nil, err
		}
		if result.Authenticated {
			return result, nil
		}
		last = result
	}
	if last != nil {
		return last, nil
	}
	return AuthFailure(ErrMissingCredentials, ""), nil
}
