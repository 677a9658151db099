package health

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestRender_Example(t *testing.T) {
	report := NewReportBuilder("service", "", WithVersion("1.2.3")).Build([]ProbeResult{
		{Name: "db", Status: StatusUnhealthy, Description: "timeout"},
		{Name: "cache", Status: StatusHealthy},
	})

	got, err := Render(report)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := `{"status":"Unhealthy","key":"service","results":{` +
		`"db":{"status":"Unhealthy","description":"timeout"},` +
		`"cache":{"status":"Healthy"},` +
		`"Version":"1.2.3"}}`
	if string(got) != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}

	var doc struct {
		Results map[string]json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(got, &doc); err != nil {
		t.Fatalf("rendered report is not valid JSON: %v", err)
	}
	if string(doc.Results[VersionKey]) != `"1.2.3"` {
		t.Errorf("results.Version = %s", doc.Results[VersionKey])
	}
}

func TestRender_OmitsEmpty(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{
			"bare leaf",
			MustNode("svc", StatusHealthy, "", ""),
			`{"status":"Healthy","key":"svc"}`,
		},
		{
			"missing sentinel child",
			MustNode("svc", StatusHealthy, "", "", Missing("x")),
			`{"status":"Healthy","key":"svc","results":{"x":{"status":"Degraded","description":"Missing value"}}}`,
		},
		{
			"version only",
			MustNode("svc", StatusDegraded, "d", "0.1"),
			`{"status":"Degraded","key":"svc","description":"d","results":{"Version":"0.1"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.node)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Render() = %s, want %s", got, tt.want)
			}
			for _, bad := range []string{"{}", "null", `"Version":""`} {
				if bytes.Contains(got, []byte(bad)) {
					t.Errorf("Render() contains %s: %s", bad, got)
				}
			}
		})
	}
}

func TestRender_Attributes(t *testing.T) {
	report := NewReportBuilder("svc", "").Build([]ProbeResult{{
		Name:   "memory",
		Status: StatusHealthy,
		Data: Data{
			{Key: "alloc_bytes", Value: 1024},
			{Key: "bad", Value: make(chan int)},
			{Key: VersionKey, Value: "go1.25"},
		},
	}})

	tests := []struct {
		name string
		opts []RenderOption
		want string
	}{
		{
			name: "default",
			want: `{"status":"Healthy","key":"svc","results":{"memory":{"status":"Healthy","data":{"Version":"go1.25"}}}}`,
		},
		{
			name: "with attributes",
			opts: []RenderOption{WithAttributes()},
			want: `{"status":"Healthy","key":"svc","results":{"memory":{"status":"Healthy","data":{` +
				`"alloc_bytes":1024,` +
				`"bad":{"status":"Degraded","description":"Missing value"},` +
				`"Version":"go1.25"}}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(report, tt.opts...)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Render() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestRender_AttributesDoNotDegradeConsumers(t *testing.T) {
	report := NewReportBuilder("svc", "").Build([]ProbeResult{
		NewMemoryChecker(MemoryCheckerConfig{MaxAlloc: 1 << 40}).Check(context.Background()).Probe("memory"),
	})
	if report.Status != StatusHealthy {
		t.Fatalf("local status = %v, want Healthy", report.Status)
	}

	data, err := Render(report)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := EffectiveStatus(parsed); got != StatusHealthy {
		t.Errorf("consumer sees %v, want Healthy; document: %s", got, data)
	}
}

func TestRender_InvalidStatus(t *testing.T) {
	tree := &Node{Key: "svc", Status: StatusHealthy, Entries: []*Node{
		{Key: "db", Status: Status(9)},
	}}

	_, err := Render(tree)

	var mre *MalformedReportError
	if !errors.As(err, &mre) {
		t.Fatalf("Render() error = %v, want MalformedReportError", err)
	}
	if mre.Path != "db" {
		t.Errorf("Path = %q, want db", mre.Path)
	}
	if _, err := Render(nil); !errors.Is(err, ErrMalformedReport) {
		t.Errorf("Render(nil) error = %v", err)
	}
}

func TestRender_Indent(t *testing.T) {
	got, err := Render(sampleTree(), Indent("", "  "))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(string(got), "\n  \"status\": \"Healthy\"") {
		t.Errorf("Render() not indented:\n%s", got)
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, MustNode("svc", StatusHealthy, "", "")); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if buf.String() != `{"status":"Healthy","key":"svc"}` {
		t.Errorf("WriteReport() = %s", buf.String())
	}
}

func TestNode_MarshalJSON(t *testing.T) {
	n := MustNode("db", StatusDegraded, "slow", "", MustNode("replica", StatusHealthy, "", ""))

	got, err := json.Marshal(map[string]*Node{"db": n})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"db":{"status":"Degraded","description":"slow","data":{"replica":{"status":"Healthy"}}}}`
	if string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}
