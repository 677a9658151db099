package config

import (
	"time"
)

// Auth modes.
const (
	AuthNone   = "none"
	AuthJWT    = "jwt"
	AuthAPIKey = "apikey"
	AuthAny    = "any"
)

// Config is the daemon configuration.
type Config struct {
	Service     ServiceConfig      `yaml:"service"`
	HTTP        HTTPConfig         `yaml:"http"`
	Runner      RunnerConfig       `yaml:"runner"`
	Downstreams []DownstreamConfig `yaml:"downstreams" ignored:"true"`
	Auth        AuthConfig         `yaml:"auth"`
	Observe     ObserveConfig      `yaml:"observe"`
}

// ServiceConfig names the local service, the root of every report.
type ServiceConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Version defaults to the binary's build version.
	Version string `yaml:"version"`
}

// HTTPConfig configures the report server.
type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	Indent            bool          `yaml:"indent"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" split_words:"true"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" split_words:"true"`

	// Attributes renders probe diagnostics such as memory statistics into
	// reports. Consumers read them back as missing values.
	Attributes bool `yaml:"attributes"`
}

// RunnerConfig configures probe execution.
type RunnerConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	Parallel       bool          `yaml:"parallel"`
	MaxConcurrency int           `yaml:"max_concurrency" split_words:"true"`
	// Memory registers the process memory probe.
	Memory bool `yaml:"memory"`
	// BuildInfo registers the version and commit probes.
	BuildInfo bool `yaml:"build_info" split_words:"true"`
}

// DownstreamConfig declares a remote report grafted into the local one.
type DownstreamConfig struct {
	Name         string        `yaml:"name"`
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	BearerToken  string        `yaml:"bearer_token"`
	MinVersion   string        `yaml:"min_version"`
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`

	// SignedToken sends a short-lived JWT signed with auth.jwt_secret
	// instead of BearerToken.
	SignedToken bool `yaml:"signed_token"`
	// Audience is the aud claim of signed tokens. Default: Name.
	Audience string `yaml:"audience"`
}

// AuthConfig protects the detailed report endpoints.
type AuthConfig struct {
	// Mode is none, jwt, apikey or any.
	Mode      string   `yaml:"mode"`
	JWTSecret string   `yaml:"jwt_secret" split_words:"true"`
	Issuer    string   `yaml:"issuer"`
	Audience  string   `yaml:"audience"`
	APIKeys   []string `yaml:"api_keys" split_words:"true"`

	// RequiredRole, when set, admits only JWT callers carrying the role.
	RequiredRole string `yaml:"required_role" split_words:"true"`
}

// ObserveConfig configures telemetry and logging.
type ObserveConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// TracingConfig configures span export.
type TracingConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Exporter  string  `yaml:"exporter"`
	SamplePct float64 `yaml:"sample_pct" split_words:"true"`
	Endpoint  string  `yaml:"endpoint"`
	Insecure  bool    `yaml:"insecure"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Service: ServiceConfig{Name: "service"},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Runner: RunnerConfig{
			Timeout:   10 * time.Second,
			Parallel:  true,
			Memory:    true,
			BuildInfo: true,
		},
		Auth: AuthConfig{Mode: AuthNone},
		Observe: ObserveConfig{
			Tracing: TracingConfig{Exporter: "none", SamplePct: 1.0},
			Metrics: MetricsConfig{Exporter: "none"},
			Logging: LoggingConfig{Level: "info"},
		},
	}
}
