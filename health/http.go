package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ReportIDHeader carries the identifier of the evaluation that produced a report.
const ReportIDHeader = "X-Health-Report-Id"

// ReportObserver is notified once per report evaluation.
type ReportObserver func(ctx context.Context, id string, report *Node)

// HandlerOption configures the report handlers.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	indent     bool
	attributes bool
	observers  []ReportObserver
	logger     zerolog.Logger
}

// WithIndent renders indented JSON.
func WithIndent(indent bool) HandlerOption {
	return func(c *handlerConfig) {
		c.indent = indent
	}
}

// WithAttributeRendering includes probe attributes in served reports.
func WithAttributeRendering(on bool) HandlerOption {
	return func(c *handlerConfig) {
		c.attributes = on
	}
}

// WithReportObserver registers a callback invoked after each evaluation.
func WithReportObserver(fn ReportObserver) HandlerOption {
	return func(c *handlerConfig) {
		if fn != nil {
			c.observers = append(c.observers, fn)
		}
	}
}

// WithHandlerLogger sets the logger used for render failures.
func WithHandlerLogger(logger zerolog.Logger) HandlerOption {
	return func(c *handlerConfig) {
		c.logger = logger
	}
}

func newHandlerConfig(opts []HandlerOption) handlerConfig {
	cfg := handlerConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (c handlerConfig) renderOptions() []RenderOption {
	var opts []RenderOption
	if c.indent {
		opts = append(opts, Indent("", "  "))
	}
	if c.attributes {
		opts = append(opts, WithAttributes())
	}
	return opts
}

// LivenessHandler returns an HTTP handler for liveness probes.
// This is a simple check that the service is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes.
// This runs all health checks and answers with a single word.
func ReadinessHandler(runner *Runner, builder *ReportBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := runner.Report(r.Context(), builder)

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(httpStatus(report.Status))

		switch report.Status {
		case StatusHealthy:
			_, _ = w.Write([]byte("OK"))
		case StatusDegraded:
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			_, _ = w.Write([]byte("UNHEALTHY"))
		}
	}
}

type evaluation struct {
	id     string
	report *Node
	body   []byte
}

// ReportHandler serves the full report tree as JSON.
//
// Requests that arrive while an evaluation is in flight share its result;
// nothing is kept once it completes. Unhealthy reports are served with 503
// so that load balancers can act on the status code alone.
func ReportHandler(runner *Runner, builder *ReportBuilder, opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)
	var group singleflight.Group

	return func(w http.ResponseWriter, r *http.Request) {
		// The shared evaluation must not die with whichever caller started it.
		ctx := context.WithoutCancel(r.Context())

		v, err, _ := group.Do("report", func() (any, error) {
			id := ulid.Make().String()
			report := runner.Report(ctx, builder)
			for _, observe := range cfg.observers {
				observe(ctx, id, report)
			}
			body, err := Render(report, cfg.renderOptions()...)
			if err != nil {
				return nil, err
			}
			return &evaluation{id: id, report: report, body: body}, nil
		})
		if err != nil {
			cfg.logger.Error().Err(err).Msg("failed to render health report")
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		ev := v.(*evaluation)
		w.Header().Set("Content-Type", ContentType)
		w.Header().Set(ReportIDHeader, ev.id)
		w.WriteHeader(httpStatus(ev.report.Status))
		_, _ = w.Write(ev.body)
	}
}

// ProbeHandler serves a single probe as a one-entry report. The probe name
// is taken from the {name} path wildcard.
func ProbeHandler(runner *Runner, builder *ReportBuilder, opts ...HandlerOption) http.HandlerFunc {
	cfg := newHandlerConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")

		result, err := runner.Check(r.Context(), name)
		if err != nil {
			writeJSONError(w, http.StatusNotFound, err)
			return
		}

		report := builder.Build([]ProbeResult{result.Probe(name)})
		body, err := Render(report, cfg.renderOptions()...)
		if err != nil {
			cfg.logger.Error().Err(err).Str("probe", name).Msg("failed to render probe report")
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		w.Header().Set("Content-Type", ContentType)
		w.WriteHeader(httpStatus(report.Status))
		_, _ = w.Write(body)
	}
}

// RegisterHandlers registers all health handlers on the given mux.
func RegisterHandlers(mux *http.ServeMux, runner *Runner, builder *ReportBuilder, opts ...HandlerOption) {
	mux.HandleFunc("GET /livez", LivenessHandler())
	mux.HandleFunc("GET /readyz", ReadinessHandler(runner, builder))
	mux.HandleFunc("GET /healthz", ReportHandler(runner, builder, opts...))
	mux.HandleFunc("GET /healthz/{name}", ProbeHandler(runner, builder, opts...))
}

func httpStatus(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func writeJSONError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	})
}
