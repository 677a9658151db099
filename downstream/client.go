package downstream

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/jonwraymond/healthz/health"
)

// maxReportBytes bounds how much of a remote body is read.
const maxReportBytes = 4 << 20

// TokenSource supplies bearer tokens for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Config configures a downstream client.
type Config struct {
	// Name is the key the remote report is grafted under.
	Name string

	// URL is the remote report endpoint.
	URL string

	// Timeout bounds one fetch.
	// Default: 5 seconds
	Timeout time.Duration

	// BearerToken is sent as a static Authorization header.
	BearerToken string

	// TokenSource mints a token per request; it takes precedence over BearerToken.
	TokenSource TokenSource

	// MinVersion is the lowest acceptable remote version. A remote
	// reporting an older version is at least Degraded.
	MinVersion string

	// Breaker configures the circuit breaker.
	Breaker BreakerConfig

	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client

	// Logger receives fetch diagnostics. Default: disabled.
	Logger *zerolog.Logger
}

// Client fetches another service's health report.
type Client struct {
	name       string
	url        string
	timeout    time.Duration
	token      string
	source     TokenSource
	minVersion *semver.Version
	breaker    *Breaker
	http       *http.Client
	logger     zerolog.Logger
}

// NewClient validates cfg and creates a client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an http(s) URL", ErrInvalidConfig, cfg.URL)
	}

	c := &Client{
		name:    cfg.Name,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		token:   cfg.BearerToken,
		source:  cfg.TokenSource,
		http:    cfg.HTTPClient,
		logger:  zerolog.Nop(),
	}
	if c.timeout <= 0 {
		c.timeout = 5 * time.Second
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if cfg.Logger != nil {
		c.logger = cfg.Logger.With().Str("downstream", cfg.Name).Logger()
	}
	if cfg.MinVersion != "" {
		v, err := semver.NewVersion(cfg.MinVersion)
		if err != nil {
			return nil, fmt.Errorf("%w: min version %q: %v", ErrInvalidConfig, cfg.MinVersion, err)
		}
		c.minVersion = v
	}

	breaker := cfg.Breaker
	userHook := breaker.OnStateChange
	breaker.OnStateChange = func(from, to State) {
		c.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit state changed")
		if userHook != nil {
			userHook(from, to)
		}
	}
	c.breaker = NewBreaker(breaker)

	return c, nil
}

// Name returns the key the remote report is grafted under.
func (c *Client) Name() string {
	return c.name
}

// URL returns the remote endpoint.
func (c *Client) URL() string {
	return c.url
}

// Breaker returns the client's circuit breaker.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// Fetch retrieves and parses the remote report. Any HTTP status is
// accepted as long as the body is a report, since unhealthy services
// answer 503. Unrecognized statuses below the remote root degrade to the
// missing sentinel.
func (c *Client) Fetch(ctx context.Context) (*health.Node, error) {
	var report *health.Node
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		report, err = c.fetch(ctx)
		return err
	})
	if err != nil {
		c.logger.Debug().Err(err).Msg("fetch failed")
		return nil, err
	}
	return report, nil
}

func (c *Client) fetch(ctx context.Context) (*health.Node, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	token := c.token
	if c.source != nil {
		token, err = c.source.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: token: %w", ErrFetchFailed, err)
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || !strings.HasSuffix(mediaType, "json") {
			return nil, fmt.Errorf("%w: %q (HTTP %d)", ErrUnexpectedContentType, ct, resp.StatusCode)
		}
	}

	report, err := health.ReadReport(io.LimitReader(resp.Body, maxReportBytes),
		health.Lenient(),
		health.WithRootKey(c.name),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: HTTP %d: %w", ErrFetchFailed, resp.StatusCode, err)
	}
	return report, nil
}
