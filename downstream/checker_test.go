package downstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/healthz/health"
)

func TestChecker_GraftsRemoteTree(t *testing.T) {
	srv := serveReport(t, http.StatusOK,
		`{"status":"Healthy","description":"billing api","results":{"db":{"status":"Healthy"},"queue":{"status":"Degraded","description":"backlog"},"Version":"2.1.0"}}`)

	c, err := NewClient(Config{Name: "billing", URL: srv.URL})
	require.NoError(t, err)

	runner := health.NewRunner()
	runner.Register(c.Name(), c.Checker())
	runner.Register("cache", health.StaticChecker("cache", health.Healthy("")))

	report := runner.Report(context.Background(), health.NewReportBuilder("orders", "", health.WithVersion("1.0.0")))

	billing, ok := report.Entry("billing")
	require.True(t, ok)
	require.Equal(t, health.StatusDegraded, billing.Status)
	require.Equal(t, "billing api", billing.Description)
	require.Equal(t, "2.1.0", billing.Version)
	require.Equal(t, []string{"db", "queue"}, billing.Keys())

	require.Empty(t, billing.Attributes)

	require.Equal(t, health.StatusDegraded, report.Status)

	queue, ok := report.Find("billing", "queue")
	require.True(t, ok)
	require.Equal(t, "backlog", queue.Description)
}

func TestChecker_FetchFailure(t *testing.T) {
	c, err := NewClient(Config{
		Name:    "gone",
		URL:     "http://127.0.0.1:1/healthz",
		Timeout: 100 * time.Millisecond,
		Breaker: BreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour},
	})
	require.NoError(t, err)

	result := c.Checker().Check(context.Background())
	require.Equal(t, health.StatusUnhealthy, result.Status)
	require.ErrorIs(t, result.Error, ErrFetchFailed)

	result = c.Checker().Check(context.Background())
	require.Equal(t, health.StatusUnhealthy, result.Status)
	require.Equal(t, "circuit open", result.Description)
	require.ErrorIs(t, result.Error, ErrCircuitOpen)
	require.Empty(t, result.Data)
	require.Equal(t, StateOpen, c.Breaker().State())
}

// serveService exposes a runner's report the way the daemon does.
func serveService(t *testing.T, key string, runner *health.Runner) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, runner, health.NewReportBuilder(key, "", health.WithVersion("1.0.0")))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestChecker_HealthyChainStaysHealthy(t *testing.T) {
	// c <- b <- a, each hop over HTTP.
	runnerC := health.NewRunner()
	runnerC.Register("db", health.StaticChecker("db", health.Healthy("")))
	srvC := serveService(t, "c", runnerC)

	clientC, err := NewClient(Config{Name: "c", URL: srvC.URL + "/healthz"})
	require.NoError(t, err)
	runnerB := health.NewRunner()
	runnerB.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{MaxAlloc: 1 << 40}))
	runnerB.Register(clientC.Name(), clientC.Checker())
	srvB := serveService(t, "b", runnerB)

	clientB, err := NewClient(Config{Name: "b", URL: srvB.URL + "/healthz"})
	require.NoError(t, err)
	runnerA := health.NewRunner()
	runnerA.Register(clientB.Name(), clientB.Checker())

	report := runnerA.Report(context.Background(), health.NewReportBuilder("a", ""))

	b, ok := report.Entry("b")
	require.True(t, ok)
	require.Equal(t, health.StatusHealthy, b.Status)
	require.Equal(t, []string{"memory", "c"}, b.Keys())

	db, ok := report.Find("b", "c", "db")
	require.True(t, ok)
	require.Equal(t, health.StatusHealthy, db.Status)

	for node := range report.All() {
		require.False(t, node.IsMissing(), "unexpected missing value %q", node.Key)
	}
	require.Equal(t, health.StatusHealthy, health.EffectiveStatus(report))
}

func TestChecker_RemoteSubsystemNamedCircuit(t *testing.T) {
	srv := serveReport(t, http.StatusOK,
		`{"status":"Unhealthy","results":{"circuit":{"status":"Unhealthy","description":"tripped"}}}`)

	c, err := NewClient(Config{Name: "power", URL: srv.URL})
	require.NoError(t, err)

	result := c.Checker().Check(context.Background())
	v, ok := result.Data.Get("circuit")
	require.True(t, ok)
	node, ok := v.(*health.Node)
	require.True(t, ok, "circuit should stay a report node, got %T", v)
	require.Equal(t, "tripped", node.Description)
}

func TestGraft_MinVersion(t *testing.T) {
	min := semver.MustParse("2.0.0")

	tests := []struct {
		name       string
		status     health.Status
		version    string
		wantStatus health.Status
		wantDesc   string
	}{
		{"newer", health.StatusHealthy, "2.1.0", health.StatusHealthy, "remote"},
		{"equal", health.StatusHealthy, "2.0.0", health.StatusHealthy, "remote"},
		{"older", health.StatusHealthy, "1.9.9", health.StatusDegraded, "version 1.9.9 is below minimum 2.0.0"},
		{"older but unhealthy", health.StatusUnhealthy, "1.0.0", health.StatusUnhealthy, "version 1.0.0 is below minimum 2.0.0"},
		{"v prefix", health.StatusHealthy, "v1.2.0", health.StatusDegraded, "version v1.2.0 is below minimum 2.0.0"},
		{"unparseable", health.StatusHealthy, "nightly", health.StatusHealthy, "remote"},
		{"absent", health.StatusHealthy, "", health.StatusHealthy, "remote"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := health.MustNode("billing", tt.status, "remote", tt.version)
			result := Graft(report, "http://billing", min)
			require.Equal(t, tt.wantStatus, result.Status)
			require.Equal(t, tt.wantDesc, result.Description)
		})
	}
}

func TestGraft_EffectiveStatusAndFallback(t *testing.T) {
	report := health.MustNode("billing", health.StatusHealthy, "", "",
		health.MustNode("db", health.StatusUnhealthy, "", ""))

	result := Graft(report, "http://billing/healthz", nil)
	require.Equal(t, health.StatusUnhealthy, result.Status)
	require.Equal(t, "http://billing/healthz", result.Description)
	require.Equal(t, []string{"db"}, result.Data.Keys())
}
