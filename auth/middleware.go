package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	logger zerolog.Logger
	role   string
}

// WithMiddlewareLogger sets the logger for rejected and failed requests.
func WithMiddlewareLogger(logger zerolog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.logger = logger
	}
}

// WithRequiredRole admits only identities holding role. Anonymous callers
// get 401, authenticated callers without the role get 403.
func WithRequiredRole(role string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.role = role
	}
}

// Middleware authenticates requests before they reach next. The first
// authenticator that accepts the request wins and its identity is
// attached to the request context. Rejected requests get 401 with a JSON
// error body, as do identities whose credentials have expired. With no
// authenticators every request passes as anonymous.
func Middleware(authenticators []Authenticator, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if len(authenticators) == 0 {
				cfg.admit(w, r, next, AnonymousIdentity())
				return
			}

			result, err := Chain(ctx, RequestFromHTTP(r), authenticators...)
			if err != nil {
				cfg.logger.Error().Err(err).Str("path", r.URL.Path).Msg("authentication error")
				writeError(w, http.StatusInternalServerError, "authentication unavailable")
				return
			}
			if !result.Authenticated {
				cfg.logger.Debug().Err(result.Error).Str("method", result.Method).Str("path", r.URL.Path).Msg("request rejected")
				unauthorized(w, result.Error)
				return
			}

			cfg.admit(w, r, next, result.Identity)
		})
	}
}

func (c middlewareConfig) admit(w http.ResponseWriter, r *http.Request, next http.Handler, id *Identity) {
	switch {
	case id.IsExpired():
		c.logger.Debug().Str("principal", id.Principal).Msg("credentials expired")
		unauthorized(w, ErrTokenExpired)
	case c.role != "" && id.IsAnonymous():
		unauthorized(w, ErrMissingCredentials)
	case c.role != "" && !id.HasRole(c.role):
		c.logger.Debug().Str("principal", id.Principal).Str("role", c.role).Msg("request forbidden")
		writeError(w, http.StatusForbidden, ErrForbidden.Error())
	default:
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="health"`)
	writeError(w, http.StatusUnauthorized, err.Error())
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
