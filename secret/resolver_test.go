package secret

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	name    string
	values  map[string]string
	resolve func(ref string) (string, error)
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Resolve(_ context.Context, ref string) (string, error) {
	if s.resolve != nil {
		return s.resolve(ref)
	}
	if s.values == nil {
		return "", nil
	}
	return s.values[ref], nil
}

func TestParseSecretRef(t *testing.T) {
	provider, ref, ok := ParseSecretRef("secretref:stub:alpha")
	if !ok {
		t.Fatalf("expected secretref to parse")
	}
	if provider != "stub" || ref != "alpha" {
		t.Fatalf("unexpected values: %q %q", provider, ref)
	}

	_, _, ok = ParseSecretRef("not-a-secretref")
	if ok {
		t.Fatalf("expected non-secretref to fail")
	}
}

func TestResolver_ResolvesFullSecretRef(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	got, err := r.ResolveValue(context.Background(), "secretref:stub:alpha")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "one" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "one")
	}
}

func TestResolver_ResolvesInlineSecretRef(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"beta": "two"}})

	got, err := r.ResolveValue(context.Background(), "Bearer secretref:stub:beta")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "Bearer two" {
		t.Fatalf("ResolveValue() = %q, want %q", got, "Bearer two")
	}
}

func TestResolver_StrictEmptyProviderValueErrors(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"empty": ""}})

	_, err := r.ResolveValue(context.Background(), "secretref:stub:empty")
	if !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("ResolveValue() error = %v, want ErrEmptySecret", err)
	}
}

func TestResolver_ResolveSlice(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", values: map[string]string{"alpha": "one"}})

	slice, err := r.ResolveSlice(context.Background(), []string{"a", "secretref:stub:alpha", "Bearer secretref:stub:alpha"})
	if err != nil {
		t.Fatalf("ResolveSlice() error = %v", err)
	}
	if slice[0] != "a" || slice[1] != "one" || slice[2] != "Bearer one" {
		t.Fatalf("unexpected slice: %#v", slice)
	}

	if _, err := r.ResolveSlice(context.Background(), []string{"secretref:nope:x"}); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("ResolveSlice() error = %v, want ErrUnknownProvider", err)
	}
}

func TestDefaultResolver(t *testing.T) {
	t.Setenv("HEALTHZ_TEST_SECRET", "from-env")
	t.Setenv("HEALTHZ_TEST_NAME", "HEALTHZ_TEST_SECRET")

	r := DefaultResolver(t.TempDir())
	got, err := r.ResolveValue(context.Background(), "secretref:env:${HEALTHZ_TEST_NAME}")
	if err != nil {
		t.Fatalf("ResolveValue() error = %v", err)
	}
	if got != "from-env" {
		t.Fatalf("ResolveValue() = %q, want from-env", got)
	}
}

func TestResolver_NilOnlyExpands(t *testing.T) {
	t.Setenv("HEALTHZ_TEST_X", "x")

	var r *Resolver
	got, err := r.ResolveValue(context.Background(), "${HEALTHZ_TEST_X} secretref:env:Y")
	if err != nil {
		t.Fatal(err)
	}
	if got != "x secretref:env:Y" {
		t.Fatalf("ResolveValue() = %q", got)
	}
}

func TestResolver_ProviderResolveErrorPropagates(t *testing.T) {
	r := NewResolver(true, &stubProvider{name: "stub", resolve: func(ref string) (string, error) {
		if ref == "boom" {
			return "", errors.New("explode")
		}
		return "ok", nil
	}})

	_, err := r.ResolveValue(context.Background(), "secretref:stub:boom")
	if err == nil {
		t.Fatalf("expected error")
	}
}
