package downstream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/jonwraymond/healthz/health"
)

// Checker returns a probe that grafts the remote report under the client's name.
func (c *Client) Checker() health.Checker {
	return &checker{client: c}
}

type checker struct {
	client *Client
}

func (ch *checker) Name() string {
	return ch.client.name
}

func (ch *checker) Check(ctx context.Context) health.Result {
	start := time.Now()
	c := ch.client

	report, err := c.Fetch(ctx)
	if err != nil {
		desc := err.Error()
		if errors.Is(err, ErrCircuitOpen) {
			desc = "circuit open"
		}
		c.logger.Debug().Err(err).Str("circuit", c.breaker.State().String()).Msg("downstream check failed")
		return health.Unhealthy(desc, err).WithDuration(time.Since(start))
	}

	// The payload carries only the remote tree.
	return Graft(report, c.url, c.minVersion).WithDuration(time.Since(start))
}

// Graft turns a remote report into a probe result whose payload is the
// remote payload, so that building a report nests the remote tree.
//
// The status is the remote's effective status. The description is the
// remote description, else fallback. A remote older than minVersion is at
// least Degraded; a version that does not parse is left alone.
func Graft(report *health.Node, fallback string, minVersion *semver.Version) health.Result {
	status := health.EffectiveStatus(report)
	desc := report.Description
	if desc == "" {
		desc = fallback
	}

	if minVersion != nil && report.Version != "" {
		if v, err := semver.NewVersion(report.Version); err == nil && v.LessThan(minVersion) {
			status = health.Worst(status, health.StatusDegraded)
			desc = fmt.Sprintf("version %s is below minimum %s", report.Version, minVersion.Original())
		}
	}

	return health.Result{
		Status:      status,
		Description: desc,
		Data:        report.Payload(),
		Timestamp:   time.Now(),
	}
}
