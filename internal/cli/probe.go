package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthz/health"
)

// ErrUnhealthy is returned by the probe command for an Unhealthy report,
// after the report has been printed.
var ErrUnhealthy = errors.New("report is Unhealthy")

type probeOptions struct {
	json    bool
	indent  bool
	lenient bool
	token   string
	timeout time.Duration
}

func newProbeCommand() *cobra.Command {
	var opts probeOptions

	cmd := &cobra.Command{
		Use:   "probe URL",
		Short: "Fetch a health report and print it",
		Long: "Fetch a health report and print it as a tree, or as JSON with --json.\n" +
			"Exits with status 1 when the report is Unhealthy.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&opts.indent, "indent", false, "Indent JSON output (implies --json)")
	cmd.Flags().BoolVar(&opts.lenient, "lenient", false, "Degrade unrecognized nested statuses instead of failing")
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token for protected reports")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	return cmd
}

func runProbe(ctx context.Context, out io.Writer, url string, opts probeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusNotFound {
		return errors.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	var parseOpts []health.ParseOption
	if opts.lenient {
		parseOpts = append(parseOpts, health.Lenient())
	}
	report, err := health.ReadReport(resp.Body, parseOpts...)
	if err != nil {
		return errors.Wrapf(err, "read report from %s", url)
	}

	if opts.json || opts.indent {
		var renderOpts []health.RenderOption
		if opts.indent {
			renderOpts = append(renderOpts, health.Indent("", "  "))
		}
		if err := health.WriteReport(out, report, renderOpts...); err != nil {
			return errors.Wrap(err, "write report")
		}
		fmt.Fprintln(out)
	} else {
		writeTree(out, report)
	}

	if health.EffectiveStatus(report) == health.StatusUnhealthy {
		return ErrUnhealthy
	}
	return nil
}
