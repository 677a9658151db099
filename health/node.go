package health

import (
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"
)

// MissingDescription is the description carried by the missing sentinel.
const MissingDescription = "Missing value"

// Node is one node of a health report tree: a service or one of its
// subsystems.
//
// A Node is never mutated after construction, so a tree may be shared
// between goroutines (rendered while also being logged, for example).
type Node struct {
	// Key identifies the node among its siblings.
	Key string

	// Status is the node's status. Trees produced by ReportBuilder and
	// Aggregate carry effective (worst-of-subtree) statuses.
	Status Status

	// Description is human-readable detail; empty when there is none.
	Description string

	// Version is the component version or build identifier; empty when absent.
	Version string

	// Entries are the child subsystems in insertion order; nil for a leaf.
	Entries []*Node

	// Attributes holds probe data values that are not themselves reports.
	// They are rendered but never read back.
	Attributes Data

	missing bool
}

// NewNode creates a validated node. An empty entries list is normalized
// to nil.
func NewNode(key string, status Status, description, version string, entries ...*Node) (*Node, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrInvalidKey
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %d for %q", ErrMalformedReport, int(status), key)
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e == nil || strings.TrimSpace(e.Key) == "" {
			return nil, fmt.Errorf("%w: child of %q", ErrInvalidKey, key)
		}
		if _, dup := seen[e.Key]; dup {
			return nil, fmt.Errorf("%w: %q under %q", ErrDuplicateKey, e.Key, key)
		}
		if e.Key == VersionKey && version != "" {
			return nil, fmt.Errorf("%w: %q under versioned node %q", ErrReservedKey, e.Key, key)
		}
		seen[e.Key] = struct{}{}
	}

	n := &Node{
		Key:         key,
		Status:      status,
		Description: description,
		Version:     version,
	}
	if len(entries) > 0 {
		n.Entries = append([]*Node(nil), entries...)
	}
	return n, nil
}

// MustNode is like NewNode but panics on invalid input. Intended for tests
// and static trees.
func MustNode(key string, status Status, description, version string, entries ...*Node) *Node {
	n, err := NewNode(key, status, description, version, entries...)
	if err != nil {
		panic(err)
	}
	return n
}

// Missing returns the placeholder used for an entry that is not a valid
// report: Degraded, "Missing value", no entries.
func Missing(key string) *Node {
	return &Node{
		Key:         key,
		Status:      StatusDegraded,
		Description: MissingDescription,
		missing:     true,
	}
}

// IsMissing reports whether n is the missing sentinel.
//
// The flag does not survive a render/parse round trip: a rendered sentinel
// reads back as an ordinary Degraded node.
func (n *Node) IsMissing() bool {
	return n != nil && n.missing
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Entries) == 0
}

// Keys returns the child keys in order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.Entries))
	for _, e := range n.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Entry returns the direct child with the given key.
func (n *Node) Entry(key string) (*Node, bool) {
	for _, e := range n.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return nil, false
}

// Find follows a path of child keys from n.
func (n *Node) Find(path ...string) (*Node, bool) {
	cur := n
	for _, key := range path {
		next, ok := cur.Entry(key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// All yields n and every descendant, depth first, parents before children.
func (n *Node) All() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.visit(yield)
	}
}

func (n *Node) visit(yield func(*Node) bool) bool {
	if !yield(n) {
		return false
	}
	for _, e := range n.Entries {
		if !e.visit(yield) {
			return false
		}
	}
	return true
}

// Walk yields every node with its slash-joined path from n.
func (n *Node) Walk() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		n.walk(n.Key, yield)
	}
}

func (n *Node) walk(path string, yield func(string, *Node) bool) bool {
	if !yield(path, n) {
		return false
	}
	for _, e := range n.Entries {
		if !e.walk(path+"/"+e.Key, yield) {
			return false
		}
	}
	return true
}

// withKey returns n re-keyed, sharing everything else.
func (n *Node) withKey(key string) *Node {
	if n.Key == key {
		return n
	}
	cp := *n
	cp.Key = key
	return &cp
}

// Summary returns a one-line description such as "svc=Unhealthy (db=Unhealthy, cache=Healthy)".
func (n *Node) Summary() string {
	var b strings.Builder
	b.WriteString(n.Key)
	b.WriteByte('=')
	b.WriteString(n.Status.String())
	if len(n.Entries) > 0 {
		b.WriteString(" (")
		for i, e := range n.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.Key)
			b.WriteByte('=')
			b.WriteString(e.Status.String())
		}
		b.WriteByte(')')
	}
	return b.String()
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (n *Node) MarshalZerologObject(e *zerolog.Event) {
	e.Str("key", n.Key).Str("status", n.Status.String())
	if n.Version != "" {
		e.Str("version", n.Version)
	}
	if len(n.Entries) > 0 {
		children := zerolog.Dict()
		for _, c := range n.Entries {
			children.Str(c.Key, c.Status.String())
		}
		e.Dict("entries", children)
	}
}

// Equal reports whether two trees are structurally equal: same keys,
// statuses, descriptions, versions and child sets in the same order.
// Attributes and the missing flag are not compared.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Key != b.Key || a.Status != b.Status || a.Description != b.Description || a.Version != b.Version {
		return false
	}
	if len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Entries {
		if !Equal(a.Entries[i], b.Entries[i]) {
			return false
		}
	}
	return true
}
