package health

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxNestingDepth bounds how deeply arrays and objects may nest in a parsed
// document.
const maxNestingDepth = 10000

// DefaultRootKey names a parsed report whose document carries no key.
const DefaultRootKey = "report"

// ParseOption configures parsing.
type ParseOption func(*parseConfig)

type parseConfig struct {
	lenient bool
	rootKey string
}

// Lenient makes an unrecognized status below the root degrade to the
// missing sentinel instead of failing the whole document. The root status
// must always be recognized.
func Lenient() ParseOption {
	return func(c *parseConfig) {
		c.lenient = true
	}
}

// WithRootKey sets the key of the parsed root when the document has none.
func WithRootKey(key string) ParseOption {
	return func(c *parseConfig) {
		c.rootKey = key
	}
}

// Parse reads a document produced by Render back into a tree.
//
// Status tokens may be symbolic names or integer ordinals. Inside "results"
// and "data", a "Version" scalar becomes the node's version, an object with
// a "status" member becomes a nested node, and anything else becomes the
// missing sentinel.
//
// Parsing is strict by default: an unrecognized status anywhere in the tree
// fails with a MalformedReportError naming its path. With Lenient only an
// unrecognized root status fails, and nested ones become the missing
// sentinel. Arrays and objects nested deeper than 10000 levels are rejected.
func Parse(data []byte, opts ...ParseOption) (*Node, error) {
	cfg := parseConfig{rootKey: DefaultRootKey}
	for _, opt := range opts {
		opt(&cfg)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return nil, &MalformedReportError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &MalformedReportError{Err: errors.New("trailing data after report")}
	}

	obj, ok := v.(object)
	if !ok {
		return nil, &MalformedReportError{Err: errors.New("report is not a JSON object")}
	}

	p := parser{cfg: cfg}
	return p.root(obj)
}

// ReadReport parses a report from r.
func ReadReport(r io.Reader, opts ...ParseOption) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, opts...)
}

// UnmarshalJSON parses the nested (child) shape. The key is left unchanged
// because it lives in the enclosing object.
func (n *Node) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return &MalformedReportError{Path: n.Key, Err: err}
	}
	obj, ok := v.(object)
	if !ok || !obj.reportShaped() {
		return &MalformedReportError{Path: n.Key, Err: errors.New("not a report object")}
	}

	p := parser{}
	parsed, err := p.node(n.Key, n.Key, obj)
	if err != nil {
		return err
	}
	*n = *parsed
	return nil
}

type parser struct {
	cfg parseConfig
}

func (p *parser) root(obj object) (*Node, error) {
	if !obj.reportShaped() {
		return nil, &MalformedReportError{Err: errors.New("missing status")}
	}
	status, err := p.status("", obj)
	if err != nil {
		return nil, err
	}

	key := p.cfg.rootKey
	if k, ok := obj.str("key"); ok && k != "" {
		key = k
	}
	desc, _ := obj.str("description")

	n := &Node{Key: key, Status: status, Description: desc}
	if results, ok := obj.get("results"); ok {
		if err := p.payload(n, "results", results); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (p *parser) node(path, key string, obj object) (*Node, error) {
	status, err := p.status(path, obj)
	if err != nil {
		return nil, err
	}
	desc, _ := obj.str("description")

	n := &Node{Key: key, Status: status, Description: desc}
	payload, ok := obj.get("data")
	if !ok {
		payload, ok = obj.get("results")
	}
	if ok {
		if err := p.payload(n, join(path, "data"), payload); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (p *parser) payload(n *Node, path string, v any) error {
	members, ok := v.(object)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m.key]; dup {
			continue
		}
		seen[m.key] = struct{}{}

		childPath := join(path, m.key)
		if obj, ok := m.value.(object); ok && obj.reportShaped() {
			child, err := p.node(childPath, m.key, obj)
			if err != nil {
				if !p.cfg.lenient {
					return err
				}
				child = Missing(m.key)
			}
			n.Entries = append(n.Entries, child)
			continue
		}

		if m.key == VersionKey {
			switch v := m.value.(type) {
			case nil:
				continue
			case string:
				n.Version = v
				continue
			case json.Number:
				n.Version = v.String()
				continue
			case bool:
				n.Version = fmt.Sprint(v)
				continue
			}
		}
		n.Entries = append(n.Entries, Missing(m.key))
	}
	return nil
}

func (p *parser) status(path string, obj object) (Status, error) {
	v, _ := obj.get("status")
	var token string
	switch t := v.(type) {
	case string:
		token = t
	case json.Number:
		token = t.String()
	}
	s, err := ParseStatus(token)
	if err != nil {
		return 0, &MalformedReportError{Path: path, Token: token}
	}
	return s, nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// object is a decoded JSON object that remembers member order.
type object []member

type member struct {
	key   string
	value any
}

func (o object) get(key string) (any, bool) {
	for _, m := range o {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

func (o object) str(key string) (string, bool) {
	v, ok := o.get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// reportShaped reports whether o has a scalar "status" member.
func (o object) reportShaped() bool {
	v, ok := o.get("status")
	if !ok {
		return false
	}
	switch v.(type) {
	case string, json.Number:
		return true
	default:
		return false
	}
}

func decodeValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	if depth >= maxNestingDepth {
		return nil, errNestingTooDeep
	}

	switch delim {
	case '{':
		var obj object
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			val, err := decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			obj = append(obj, member{key: key, value: val})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		if obj == nil {
			obj = object{}
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %v", delim)
	}
}
