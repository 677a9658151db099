package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/multierr"

	"github.com/jonwraymond/healthz/health"
	"github.com/jonwraymond/healthz/observe"
)

// Validate reports every problem at once. Each one wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if strings.TrimSpace(c.Service.Name) == "" {
		fail("service.name is required")
	}
	if c.HTTP.Addr == "" {
		fail("http.addr is required")
	}
	if c.HTTP.ReadHeaderTimeout < 0 || c.HTTP.ShutdownTimeout < 0 {
		fail("http timeouts must not be negative")
	}
	if c.Runner.Timeout <= 0 {
		fail("runner.timeout must be positive")
	}
	if c.Runner.MaxConcurrency < 0 {
		fail("runner.max_concurrency must not be negative")
	}

	seen := make(map[string]struct{}, len(c.Downstreams))
	for i, d := range c.Downstreams {
		label := d.Name
		if label == "" {
			label = fmt.Sprint(i)
		}
		switch {
		case strings.TrimSpace(d.Name) == "":
			fail("downstreams[%d].name is required", i)
		case d.Name == health.VersionKey:
			fail("downstreams[%s].name %q is reserved", label, d.Name)
		}
		if _, dup := seen[d.Name]; dup && d.Name != "" {
			fail("downstreams[%s] is declared twice", label)
		}
		seen[d.Name] = struct{}{}

		if u, err := url.Parse(d.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			fail("downstreams[%s].url %q is not an http(s) URL", label, d.URL)
		}
		if d.MinVersion != "" {
			if _, err := semver.NewVersion(d.MinVersion); err != nil {
				fail("downstreams[%s].min_version %q: %v", label, d.MinVersion, err)
			}
		}
		if d.Timeout < 0 || d.ResetTimeout < 0 || d.MaxFailures < 0 {
			fail("downstreams[%s] timeouts and max_failures must not be negative", label)
		}
		if d.SignedToken && c.Auth.JWTSecret == "" {
			fail("downstreams[%s].signed_token requires auth.jwt_secret", label)
		}
	}

	switch c.Auth.Mode {
	case AuthNone, "":
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			fail("auth.jwt_secret is required for mode %q", c.Auth.Mode)
		}
	case AuthAPIKey:
		if len(c.Auth.APIKeys) == 0 {
			fail("auth.api_keys is required for mode %q", c.Auth.Mode)
		}
	case AuthAny:
		if c.Auth.JWTSecret == "" && len(c.Auth.APIKeys) == 0 {
			fail("auth mode %q needs auth.jwt_secret or auth.api_keys", c.Auth.Mode)
		}
	default:
		fail("auth.mode %q is not one of none, jwt, apikey, any", c.Auth.Mode)
	}
	if c.Auth.RequiredRole != "" && c.Auth.Mode != AuthJWT && c.Auth.Mode != AuthAny {
		fail("auth.required_role needs mode %q or %q", AuthJWT, AuthAny)
	}

	o := c.Observe
	if !slices.Contains(observe.ValidTracingExporters, o.Tracing.Exporter) {
		fail("observe.tracing.exporter %q", o.Tracing.Exporter)
	}
	if o.Tracing.SamplePct < observe.MinSamplePct || o.Tracing.SamplePct > observe.MaxSamplePct {
		fail("observe.tracing.sample_pct %v is not in [0, 1]", o.Tracing.SamplePct)
	}
	if !slices.Contains(observe.ValidMetricsExporters, o.Metrics.Exporter) {
		fail("observe.metrics.exporter %q", o.Metrics.Exporter)
	}
	if !slices.Contains(observe.ValidLogLevels, o.Logging.Level) {
		fail("observe.logging.level %q", o.Logging.Level)
	}

	return errs
}
