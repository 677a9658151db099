package health

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ProbeResult is one named probe outcome as handed over by a check runner.
type ProbeResult struct {
	Name        string
	Status      Status
	Description string
	Data        Data
}

// BuilderOption configures a ReportBuilder.
type BuilderOption func(*ReportBuilder)

// WithVersion attaches the running process's version to built reports.
// An empty version leaves reports unversioned.
func WithVersion(version string) BuilderOption {
	return func(b *ReportBuilder) {
		b.version = version
	}
}

// WithBuilderLogger sets the logger used for build warnings.
func WithBuilderLogger(logger zerolog.Logger) BuilderOption {
	return func(b *ReportBuilder) {
		b.logger = logger
	}
}

// ReportBuilder turns a flat set of probe results into a report tree.
// It holds no per-report state and is safe for concurrent use.
type ReportBuilder struct {
	key         string
	description string
	version     string
	logger      zerolog.Logger
}

// NewReportBuilder creates a builder for reports rooted at key.
func NewReportBuilder(key, description string, opts ...BuilderOption) *ReportBuilder {
	b := &ReportBuilder{
		key:         key,
		description: description,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if strings.TrimSpace(b.key) == "" {
		b.key = "service"
	}
	return b
}

// Key returns the root key of built reports.
func (b *ReportBuilder) Key() string {
	return b.key
}

// Version returns the version attached to built reports.
func (b *ReportBuilder) Version() string {
	return b.version
}

// Build assembles a report. It never fails: a malformed result is recorded
// as the missing sentinel under its name.
//
// The root status is the worst effective status among the entries, or
// Healthy when there are none.
func (b *ReportBuilder) Build(results []ProbeResult) *Node {
	var entries []*Node
	index := make(map[string]int, len(results))

	for _, r := range results {
		child := b.buildEntry(r)
		if i, dup := index[child.Key]; dup {
			b.logger.Warn().Str("probe", child.Key).Msg("duplicate probe result replaces earlier one")
			entries[i] = child
			continue
		}
		index[child.Key] = len(entries)
		entries = append(entries, child)
	}

	version := b.version
	if _, clash := index[VersionKey]; clash && version != "" {
		b.logger.Warn().Str("version", version).Msg("probe named Version shadows the process version")
		version = ""
	}

	root := &Node{
		Key:         b.key,
		Status:      StatusHealthy,
		Description: b.description,
		Version:     version,
	}
	if len(entries) > 0 {
		root.Entries = entries
	}
	return Aggregate(root)
}

func (b *ReportBuilder) buildEntry(r ProbeResult) *Node {
	if strings.TrimSpace(r.Name) == "" {
		b.logger.Warn().Msg("probe result without a name")
		return Missing("missing")
	}
	if !r.Status.Valid() {
		b.logger.Warn().Str("probe", r.Name).Int("status", int(r.Status)).Msg("probe result with invalid status")
		return Missing(r.Name)
	}

	n := &Node{
		Key:         r.Name,
		Status:      r.Status,
		Description: r.Description,
	}

	var payload Data
	seen := make(map[string]struct{})
	for _, f := range r.Data {
		if _, dup := seen[f.Key]; dup {
			continue
		}
		seen[f.Key] = struct{}{}

		if isAttribute(f) {
			n.Attributes = append(n.Attributes, f)
			continue
		}
		payload = append(payload, f)
	}
	n.Version, n.Entries = SplitPayload(payload)
	return n
}

// isAttribute reports whether f is opaque probe data rather than part of
// the payload view: not a node, not nil, and not the version.
func isAttribute(f Field) bool {
	if _, ok := asNode(f.Value); ok {
		return false
	}
	return f.Value != nil && !isNilNode(f.Value) && f.Key != VersionKey
}

// BuildFromResults builds a report from a map of results keyed by probe
// name, ordering entries by name.
func BuildFromResults(b *ReportBuilder, results map[string]Result) *Node {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	probes := make([]ProbeResult, 0, len(names))
	for _, name := range names {
		probes = append(probes, results[name].Probe(name))
	}
	return b.Build(probes)
}

// Probe converts a checker result into the runner's hand-over format.
func (r Result) Probe(name string) ProbeResult {
	return ProbeResult{
		Name:        name,
		Status:      r.Status,
		Description: r.Description,
		Data:        r.Data,
	}
}
