package health

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var treeOpts = cmp.Options{
	cmpopts.IgnoreUnexported(Node{}),
	cmpopts.IgnoreFields(Node{}, "Attributes"),
	cmpopts.EquateEmpty(),
}

func TestParse_RoundTrip(t *testing.T) {
	trees := map[string]*Node{
		"sample":     sampleTree(),
		"aggregated": Aggregate(sampleTree()),
		"leaf":       MustNode("svc", StatusDegraded, "warming up", ""),
		"missing":    MustNode("svc", StatusHealthy, "", "", Missing("x")),
		"deep": MustNode("a", StatusHealthy, "", "1",
			MustNode("b", StatusHealthy, "", "2",
				MustNode("c", StatusHealthy, "", "3",
					MustNode("d", StatusUnhealthy, "bottom", "4")))),
		"unversioned Version child": MustNode("svc", StatusHealthy, "", "",
			MustNode(VersionKey, StatusHealthy, "", "")),
	}

	for name, tree := range trees {
		t.Run(name, func(t *testing.T) {
			data, err := Render(tree)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			got, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tree, got, treeOpts); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if !Equal(tree, got) {
				t.Error("Equal() = false after round trip")
			}
		})
	}
}

func TestParse_Example(t *testing.T) {
	doc := `{"status":"Unhealthy","key":"service","results":{
		"db":{"status":"Unhealthy","description":"timeout"},
		"cache":{"status":"Healthy"},
		"Version":"1.2.3"}}`

	got, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := MustNode("service", StatusUnhealthy, "", "1.2.3",
		MustNode("db", StatusUnhealthy, "timeout", ""),
		MustNode("cache", StatusHealthy, "", ""),
	)
	if diff := cmp.Diff(want, got, treeOpts); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ScalarDataBecomesMissing(t *testing.T) {
	doc := `{"status":"Healthy","results":{"db":{"status":"Healthy","data":{"count":3,"tags":["a"],"conn":{"open":2}}}}}`

	got, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	for _, key := range []string{"count", "tags", "conn"} {
		n, ok := got.Find("db", key)
		if !ok {
			t.Fatalf("db/%s not found", key)
		}
		if n.Status != StatusDegraded || n.Description != MissingDescription {
			t.Errorf("db/%s = %v %q, want Degraded %q", key, n.Status, n.Description, MissingDescription)
		}
		if !n.IsMissing() {
			t.Errorf("db/%s should be the missing sentinel", key)
		}
	}
}

func TestParse_BogusStatus(t *testing.T) {
	doc := `{"status":"Healthy","results":{"db":{"status":"Healthy","data":{"cache":{"status":"Bogus"}}}}}`

	_, err := Parse([]byte(doc))

	var mre *MalformedReportError
	if !errors.As(err, &mre) {
		t.Fatalf("Parse() error = %v, want MalformedReportError", err)
	}
	if mre.Path != "results.db.data.cache" {
		t.Errorf("Path = %q, want results.db.data.cache", mre.Path)
	}
	if mre.Token != "Bogus" {
		t.Errorf("Token = %q, want Bogus", mre.Token)
	}
	if !errors.Is(err, ErrMalformedReport) {
		t.Error("errors.Is(err, ErrMalformedReport) = false")
	}
}

func TestParse_Lenient(t *testing.T) {
	doc := `{"status":"Healthy","results":{"db":{"status":"Healthy","data":{"cache":{"status":"Bogus"}}}}}`

	got, err := Parse([]byte(doc), Lenient())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cache, ok := got.Find("db", "cache")
	if !ok || !cache.IsMissing() {
		t.Errorf("db/cache = %+v, want missing sentinel", cache)
	}

	_, err = Parse([]byte(`{"status":"Bogus"}`), Lenient())
	var mre *MalformedReportError
	if !errors.As(err, &mre) || mre.Path != "" {
		t.Errorf("root status error = %v, want MalformedReportError at root", err)
	}
}

func TestParse_NumericStatus(t *testing.T) {
	numeric, err := Parse([]byte(`{"status":2,"key":"svc","results":{"db":{"status":1},"cache":{"status":0}}}`))
	if err != nil {
		t.Fatalf("Parse(numeric) error = %v", err)
	}
	symbolic, err := Parse([]byte(`{"status":"Unhealthy","key":"svc","results":{"db":{"status":"Degraded"},"cache":{"status":"Healthy"}}}`))
	if err != nil {
		t.Fatalf("Parse(symbolic) error = %v", err)
	}
	if diff := cmp.Diff(symbolic, numeric, treeOpts); diff != "" {
		t.Errorf("numeric and symbolic differ (-symbolic +numeric):\n%s", diff)
	}

	if _, err := Parse([]byte(`{"status":7}`)); !errors.Is(err, ErrMalformedReport) {
		t.Errorf("out-of-range ordinal error = %v, want ErrMalformedReport", err)
	}
}

func TestParse_RootKey(t *testing.T) {
	doc := []byte(`{"status":"Healthy"}`)

	got, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Key != DefaultRootKey {
		t.Errorf("Key = %q, want %q", got.Key, DefaultRootKey)
	}

	got, err = Parse(doc, WithRootKey("orders"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Key != "orders" {
		t.Errorf("Key = %q, want orders", got.Key)
	}

	got, err = Parse([]byte(`{"status":"Healthy","key":"inline"}`), WithRootKey("orders"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.Key != "inline" {
		t.Errorf("Key = %q, the document key should win", got.Key)
	}
}

func TestParse_Version(t *testing.T) {
	tests := []struct {
		doc  string
		want string
	}{
		{`{"status":"Healthy","results":{"Version":"1.2.3"}}`, "1.2.3"},
		{`{"status":"Healthy","results":{"Version":1.5}}`, "1.5"},
		{`{"status":"Healthy","results":{"Version":null}}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			got, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got.Version != tt.want {
				t.Errorf("Version = %q, want %q", got.Version, tt.want)
			}
			if len(got.Entries) != 0 {
				t.Errorf("Entries = %v, want none", got.Entries)
			}
		})
	}
}

func TestParse_DuplicateMembers(t *testing.T) {
	got, err := Parse([]byte(`{"status":"Healthy","results":{"db":{"status":"Healthy"},"db":{"status":"Unhealthy"}}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0].Status != StatusHealthy {
		t.Errorf("Entries = %+v, want first db only", got.Entries)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{"status":`},
		{"array", `[]`},
		{"scalar", `"Healthy"`},
		{"no status", `{"key":"svc"}`},
		{"object status", `{"status":{"name":"Healthy"}}`},
		{"trailing data", `{"status":"Healthy"} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrMalformedReport) {
				t.Errorf("Parse() error = %v, want ErrMalformedReport", err)
			}
		})
	}
}

func TestParse_NestingDepth(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"arrays", []byte(strings.Repeat("[", 4<<20))},
		{"objects", []byte(`{"status":"Healthy","results":` + strings.Repeat(`{"a":`, maxNestingDepth+1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, ErrMalformedReport) {
				t.Fatalf("Parse() error = %v, want ErrMalformedReport", err)
			}
			if !errors.Is(err, errNestingTooDeep) {
				t.Errorf("Parse() error = %v, want nesting depth error", err)
			}
		})
	}
}

func TestParse_NestingWithinLimit(t *testing.T) {
	nested := strings.Repeat("[", 100) + strings.Repeat("]", 100)
	data := `{"status":"Healthy","results":{"blob":` + nested + `}}`

	got, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if blob, ok := got.Find("blob"); !ok || !blob.IsMissing() {
		t.Errorf("Find(blob) = %v, %v; want missing sentinel", blob, ok)
	}
}

func TestReadReport(t *testing.T) {
	got, err := ReadReport(strings.NewReader(`{"status":"Degraded","key":"svc","description":"slow"}`))
	if err != nil {
		t.Fatalf("ReadReport() error = %v", err)
	}
	if got.Status != StatusDegraded || got.Description != "slow" {
		t.Errorf("ReadReport() = %+v", got)
	}
}

func TestNode_UnmarshalJSON(t *testing.T) {
	n := Node{Key: "db"}
	err := json.Unmarshal([]byte(`{"status":"Degraded","description":"slow","data":{"replica":{"status":"Healthy"},"Version":"15"}}`), &n)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := MustNode("db", StatusDegraded, "slow", "15", MustNode("replica", StatusHealthy, "", ""))
	if diff := cmp.Diff(want, &n, treeOpts); diff != "" {
		t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`{"count":1}`), &n); !errors.Is(err, ErrMalformedReport) {
		t.Errorf("Unmarshal(non-report) error = %v, want ErrMalformedReport", err)
	}
}
