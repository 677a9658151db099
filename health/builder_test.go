package health

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestReportBuilder_Build(t *testing.T) {
	b := NewReportBuilder("service", "", WithVersion("1.2.3"))

	report := b.Build([]ProbeResult{
		{Name: "db", Status: StatusUnhealthy, Description: "timeout"},
		{Name: "cache", Status: StatusHealthy},
	})

	if report.Key != "service" {
		t.Errorf("Key = %q, want service", report.Key)
	}
	if report.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want Unhealthy", report.Status)
	}
	if report.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", report.Version)
	}
	if got := report.Keys(); !slices.Equal(got, []string{"db", "cache"}) {
		t.Errorf("Keys() = %v, want [db cache]", got)
	}
	if v, _ := report.Payload().Get(VersionKey); v != "1.2.3" {
		t.Errorf("payload Version = %v, want 1.2.3", v)
	}
}

func TestReportBuilder_Empty(t *testing.T) {
	report := NewReportBuilder("svc", "").Build(nil)

	if report.Status != StatusHealthy {
		t.Errorf("Status = %v, want Healthy", report.Status)
	}
	if report.Entries != nil {
		t.Errorf("Entries = %v, want nil", report.Entries)
	}
}

func TestNewReportBuilder_DefaultKey(t *testing.T) {
	b := NewReportBuilder("  ", "")
	if b.Key() != "service" {
		t.Errorf("Key() = %q, want service", b.Key())
	}
	if b.Version() != "" {
		t.Errorf("Version() = %q, want empty", b.Version())
	}
}

func TestReportBuilder_DuplicateReplacesInPlace(t *testing.T) {
	var buf bytes.Buffer
	b := NewReportBuilder("svc", "", WithBuilderLogger(zerolog.New(&buf)))

	report := b.Build([]ProbeResult{
		{Name: "db", Status: StatusUnhealthy},
		{Name: "cache", Status: StatusHealthy},
		{Name: "db", Status: StatusHealthy, Description: "recovered"},
	})

	if got := report.Keys(); !slices.Equal(got, []string{"db", "cache"}) {
		t.Errorf("Keys() = %v, want [db cache]", got)
	}
	db, _ := report.Entry("db")
	if db.Description != "recovered" {
		t.Errorf("db.Description = %q, want recovered", db.Description)
	}
	if report.Status != StatusHealthy {
		t.Errorf("Status = %v, want Healthy", report.Status)
	}
	if !strings.Contains(buf.String(), "duplicate probe result") {
		t.Errorf("expected a duplicate warning, got %q", buf.String())
	}
}

func TestReportBuilder_MalformedResults(t *testing.T) {
	report := NewReportBuilder("svc", "").Build([]ProbeResult{
		{Name: "", Status: StatusHealthy},
		{Name: "weird", Status: Status(42)},
	})

	for _, key := range []string{"missing", "weird"} {
		n, ok := report.Entry(key)
		if !ok {
			t.Fatalf("entry %q not found", key)
		}
		if !n.IsMissing() {
			t.Errorf("entry %q should be the missing sentinel", key)
		}
	}
	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want Degraded", report.Status)
	}
}

func TestReportBuilder_NestedData(t *testing.T) {
	downstream := MustNode("remote", StatusHealthy, "", "",
		MustNode("db", StatusUnhealthy, "down", ""))

	report := NewReportBuilder("svc", "").Build([]ProbeResult{
		{
			Name:   "orders",
			Status: StatusHealthy,
			Data: Data{
				{Key: "upstream", Value: downstream},
				{Key: VersionKey, Value: "2.0.0"},
				{Key: "latency_ms", Value: 12},
				{Key: "gone", Value: nil},
				{Key: "latency_ms", Value: 99},
			},
		},
	})

	orders, _ := report.Entry("orders")
	if orders.Version != "2.0.0" {
		t.Errorf("Version = %q, want 2.0.0", orders.Version)
	}
	if got := orders.Keys(); !slices.Equal(got, []string{"upstream", "gone"}) {
		t.Errorf("Keys() = %v, want [upstream gone]", got)
	}
	if orders.Status != StatusUnhealthy {
		t.Errorf("orders = %v, want Unhealthy from nested db", orders.Status)
	}
	if report.Status != StatusUnhealthy {
		t.Errorf("root = %v, want Unhealthy", report.Status)
	}
	if gone, _ := orders.Entry("gone"); !gone.IsMissing() {
		t.Error("nil data value should become the missing sentinel")
	}
	if v, ok := orders.Attributes.Get("latency_ms"); !ok || v != 12 {
		t.Errorf("Attributes[latency_ms] = %v, want first value 12", v)
	}
	if downstream.Status != StatusHealthy {
		t.Error("building must not modify nested input nodes")
	}
}

func TestReportBuilder_SplitsPayload(t *testing.T) {
	data := Data{
		{Key: "db", Value: MustNode("x", StatusDegraded, "slow", "")},
		{Key: "cache", Value: *MustNode("cache", StatusHealthy, "", "7.2")},
		{Key: "gone", Value: nil},
		{Key: VersionKey, Value: 3},
	}

	report := NewReportBuilder("svc", "").Build([]ProbeResult{
		{Name: "deps", Status: StatusHealthy, Data: append(data, Field{Key: "pool", Value: 4})},
	})
	deps, _ := report.Entry("deps")

	version, entries := SplitPayload(data)
	want := &Node{Key: "deps", Status: StatusDegraded, Version: version, Entries: entries}
	if !Equal(deps, want) {
		t.Errorf("entry = %s, want %s", deps.Summary(), want.Summary())
	}
	if deps.Version != "3" {
		t.Errorf("Version = %q, want 3", deps.Version)
	}
	if got := deps.Attributes.Keys(); !slices.Equal(got, []string{"pool"}) {
		t.Errorf("Attributes = %v, want [pool]", got)
	}
}

func TestReportBuilder_VersionProbeShadowsVersion(t *testing.T) {
	report := NewReportBuilder("svc", "", WithVersion("1.0")).Build([]ProbeResult{
		{Name: VersionKey, Status: StatusHealthy},
	})

	if report.Version != "" {
		t.Errorf("Version = %q, want empty", report.Version)
	}
	if _, ok := report.Entry(VersionKey); !ok {
		t.Error("probe named Version should be kept")
	}
}

func TestBuildFromResults(t *testing.T) {
	report := BuildFromResults(NewReportBuilder("svc", ""), map[string]Result{
		"zeta":  Healthy(""),
		"alpha": Degraded("slow"),
	})

	if got := report.Keys(); !slices.Equal(got, []string{"alpha", "zeta"}) {
		t.Errorf("Keys() = %v, want sorted", got)
	}
	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want Degraded", report.Status)
	}
}
