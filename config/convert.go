package config

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/healthz/auth"
	"github.com/jonwraymond/healthz/downstream"
	"github.com/jonwraymond/healthz/health"
	"github.com/jonwraymond/healthz/observe"
)

// ServiceVersion is the configured version, else the build version.
func (c *Config) ServiceVersion() string {
	if c.Service.Version != "" {
		return c.Service.Version
	}
	return health.BuildVersion()
}

// ObserveConfig converts to the telemetry configuration. Logging is
// always on; the level decides how much is written.
func (c *Config) ObserveConfig() observe.Config {
	o := c.Observe
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.ServiceVersion(),
		Tracing: observe.TracingConfig{
			Enabled:   o.Tracing.Enabled,
			Exporter:  o.Tracing.Exporter,
			SamplePct: o.Tracing.SamplePct,
			Endpoint:  o.Tracing.Endpoint,
			Insecure:  o.Tracing.Insecure,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Metrics.Enabled,
			Exporter: o.Metrics.Exporter,
			Endpoint: o.Metrics.Endpoint,
			Insecure: o.Metrics.Insecure,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   o.Logging.Level,
		},
	}
}

// RunnerConfig converts to the runner configuration. The middleware is
// left for the caller.
func (c *Config) RunnerConfig() health.RunnerConfig {
	return health.RunnerConfig{
		Timeout:        c.Runner.Timeout,
		Parallel:       c.Runner.Parallel,
		MaxConcurrency: c.Runner.MaxConcurrency,
	}
}

// Builder creates the report builder for the local service.
func (c *Config) Builder(logger zerolog.Logger) *health.ReportBuilder {
	return health.NewReportBuilder(c.Service.Name, c.Service.Description,
		health.WithVersion(c.ServiceVersion()),
		health.WithBuilderLogger(logger),
	)
}

// DownstreamConfigs converts every declared downstream into a client
// configuration. Signed-token downstreams get their own TokenIssuer.
func (c *Config) DownstreamConfigs(logger *zerolog.Logger) ([]downstream.Config, error) {
	out := make([]downstream.Config, 0, len(c.Downstreams))
	for _, d := range c.Downstreams {
		dc := downstream.Config{
			Name:        d.Name,
			URL:         d.URL,
			Timeout:     d.Timeout,
			BearerToken: d.BearerToken,
			MinVersion:  d.MinVersion,
			Breaker: downstream.BreakerConfig{
				MaxFailures:  d.MaxFailures,
				ResetTimeout: d.ResetTimeout,
			},
			Logger: logger,
		}
		if d.SignedToken {
			audience := d.Audience
			if audience == "" {
				audience = d.Name
			}
			issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
				Secret:   []byte(c.Auth.JWTSecret),
				Issuer:   c.Service.Name,
				Audience: audience,
				Subject:  c.Service.Name,
			})
			if err != nil {
				return nil, fmt.Errorf("downstream %s: %w", d.Name, err)
			}
			dc.TokenSource = issuer
		}
		out = append(out, dc)
	}
	return out, nil
}

// Authenticators builds the authenticators for the configured mode.
// Mode none yields none, which leaves the endpoints open.
func (c *Config) Authenticators() ([]auth.Authenticator, error) {
	var out []auth.Authenticator

	useJWT := c.Auth.Mode == AuthJWT || (c.Auth.Mode == AuthAny && c.Auth.JWTSecret != "")
	useKeys := c.Auth.Mode == AuthAPIKey || (c.Auth.Mode == AuthAny && len(c.Auth.APIKeys) > 0)

	if useJWT {
		a, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:   []byte(c.Auth.JWTSecret),
			Issuer:   c.Auth.Issuer,
			Audience: c.Auth.Audience,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if useKeys {
		out = append(out, auth.NewAPIKeyAuthenticator(auth.APIKeyConfig{}, auth.NewStaticAPIKeyStore(c.Auth.APIKeys...)))
	}
	return out, nil
}
