package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/jonwraymond/healthz/auth"
	"github.com/jonwraymond/healthz/config"
	"github.com/jonwraymond/healthz/downstream"
	"github.com/jonwraymond/healthz/health"
	"github.com/jonwraymond/healthz/observe"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the health report of this service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(ctx, configPath)
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			return serve(ctx, cfg, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config file")
	return cmd
}

// server is the assembled daemon, ready to be mounted on a listener.
type server struct {
	handler http.Handler
	runner  *health.Runner
	logger  zerolog.Logger
	obs     observe.Observer
}

func newServer(ctx context.Context, cfg config.Config, logOut io.Writer) (*server, error) {
	oc := cfg.ObserveConfig()
	oc.Logging.Output = logOut
	obs, err := observe.NewObserver(ctx, oc)
	if err != nil {
		return nil, errors.Wrap(err, "start telemetry")
	}

	logger := observe.NewZerolog(cfg.Observe.Logging.Level, logOut).
		With().Str("service", cfg.Service.Name).Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, errors.Wrap(err, "probe middleware")
	}
	rc := cfg.RunnerConfig()
	rc.Middleware = mw.WrapChecker
	runner := health.NewRunner(rc)

	if cfg.Runner.Memory {
		runner.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))
	}
	if cfg.Runner.BuildInfo {
		version := health.NewVersionChecker(cfg.ServiceVersion())
		commit := health.NewCommitChecker("")
		runner.Register(version.Name(), version)
		runner.Register(commit.Name(), commit)
	}

	dcs, err := cfg.DownstreamConfigs(&logger)
	if err != nil {
		return nil, errors.Wrap(err, "downstreams")
	}
	for _, dc := range dcs {
		client, err := downstream.NewClient(dc)
		if err != nil {
			return nil, errors.Wrapf(err, "downstream %s", dc.Name)
		}
		runner.Register(client.Name(), client.Checker())
	}

	recorder, err := observe.NewReportRecorder(obs.Meter(), obs.Logger())
	if err != nil {
		return nil, errors.Wrap(err, "report recorder")
	}

	authenticators, err := cfg.Authenticators()
	if err != nil {
		return nil, errors.Wrap(err, "authenticators")
	}
	authOpts := []auth.MiddlewareOption{auth.WithMiddlewareLogger(logger)}
	if cfg.Auth.RequiredRole != "" {
		authOpts = append(authOpts, auth.WithRequiredRole(cfg.Auth.RequiredRole))
	}
	protect := auth.Middleware(authenticators, authOpts...)

	reports := http.NewServeMux()
	health.RegisterHandlers(reports, runner, cfg.Builder(logger),
		health.WithIndent(cfg.HTTP.Indent),
		health.WithAttributeRendering(cfg.HTTP.Attributes),
		health.WithReportObserver(recorder.Observer()),
		health.WithReportObserver(logEvaluation(logger)),
		health.WithHandlerLogger(logger),
	)

	mux := http.NewServeMux()
	mux.Handle("GET /livez", reports)
	mux.Handle("GET /readyz", reports)
	mux.Handle("GET /healthz", protect(reports))
	mux.Handle("GET /healthz/{name}", protect(reports))
	if cfg.Observe.Metrics.Enabled && cfg.Observe.Metrics.Exporter == "prometheus" {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	logger.Info().
		Strs("probes", runner.CheckerNames()).
		Int("authenticators", len(authenticators)).
		Msg("server assembled")

	return &server{handler: mux, runner: runner, logger: logger, obs: obs}, nil
}

// logEvaluation records each report evaluation with the caller that
// triggered it.
func logEvaluation(logger zerolog.Logger) health.ReportObserver {
	return func(ctx context.Context, id string, report *health.Node) {
		logger.Debug().
			Str("report_id", id).
			Stringer("status", report.Status).
			Str("principal", auth.PrincipalFromContext(ctx)).
			Msg("health report evaluated")
	}
}

// close flushes telemetry.
func (s *server) close(ctx context.Context) error {
	return s.obs.Shutdown(ctx)
}

func serve(ctx context.Context, cfg config.Config, logOut io.Writer) error {
	s, err := newServer(ctx, cfg, logOut)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return multierr.Append(errors.Wrap(err, "listen"), s.close(context.Background()))
	}
	return s.run(ctx, ln, cfg)
}

// run serves on ln until ctx is done, then shuts down gracefully.
func (s *server) run(ctx context.Context, ln net.Listener, cfg config.Config) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = errors.Wrap(err, "serve")
		}
	}

	s.logger.Info().Msg("shutting down")
	timeout := cfg.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	return multierr.Combine(
		serveErr,
		errors.Wrap(srv.Shutdown(shutdownCtx), "http shutdown"),
		errors.Wrap(s.close(shutdownCtx), "telemetry shutdown"),
	)
}
