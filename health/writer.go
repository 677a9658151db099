package health

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ContentType is the media type of a rendered report.
const ContentType = "application/json; charset=utf-8"

// RenderOption configures rendering.
type RenderOption func(*renderConfig)

type renderConfig struct {
	prefix     string
	indent     string
	attributes bool
}

// Indent renders with the given prefix and indentation instead of compact output.
func Indent(prefix, indent string) RenderOption {
	return func(c *renderConfig) {
		c.prefix = prefix
		c.indent = indent
	}
}

// WithAttributes also renders probe attributes inside "data". Parse reads
// each of them back as the missing sentinel.
func WithAttributes() RenderOption {
	return func(c *renderConfig) {
		c.attributes = true
	}
}

// Render serializes a report tree:
//
//	{"status": "...", "key": "...", "description": "...",
//	 "results": {"<child>": {"status": "...", "description": "...", "data": {...}}, "Version": "..."}}
//
// Empty values are omitted rather than rendered as null, and object members
// keep the order of the tree. Attributes are left out unless WithAttributes
// is given.
func Render(n *Node, opts ...RenderOption) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil report", ErrMalformedReport)
	}
	cfg := renderConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var buf bytes.Buffer
	if err := cfg.writeRoot(&buf, n); err != nil {
		return nil, err
	}
	if cfg.indent == "" && cfg.prefix == "" {
		return buf.Bytes(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), cfg.prefix, cfg.indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// WriteReport renders n to w.
func WriteReport(w io.Writer, n *Node, opts ...RenderOption) error {
	data, err := Render(n, opts...)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// MarshalJSON renders the node in the nested (child) shape.
func (n Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := (renderConfig{}).writeChild(&buf, &n); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c renderConfig) writeRoot(buf *bytes.Buffer, n *Node) error {
	buf.WriteByte('{')
	if err := writeStatus(buf, n); err != nil {
		return err
	}
	if n.Key != "" {
		buf.WriteString(`,"key":`)
		writeString(buf, n.Key)
	}
	if n.Description != "" {
		buf.WriteString(`,"description":`)
		writeString(buf, n.Description)
	}
	if err := c.writePayload(buf, "results", n); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func (c renderConfig) writeChild(buf *bytes.Buffer, n *Node) error {
	buf.WriteByte('{')
	if err := writeStatus(buf, n); err != nil {
		return err
	}
	if n.Description != "" {
		buf.WriteString(`,"description":`)
		writeString(buf, n.Description)
	}
	if err := c.writePayload(buf, "data", n); err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func writeStatus(buf *bytes.Buffer, n *Node) error {
	if !n.Status.Valid() {
		return &MalformedReportError{Path: n.Key, Token: n.Status.String()}
	}
	buf.WriteString(`"status":`)
	writeString(buf, n.Status.String())
	return nil
}

// writePayload emits entries, then attributes when enabled, then the
// version. Nothing is written when the payload is empty.
func (c renderConfig) writePayload(buf *bytes.Buffer, name string, n *Node) error {
	written := 0
	member := func(key string) {
		if written == 0 {
			buf.WriteString(`,"` + name + `":{`)
		} else {
			buf.WriteByte(',')
		}
		writeString(buf, key)
		buf.WriteByte(':')
		written++
	}

	for _, e := range n.Entries {
		if e == nil {
			continue
		}
		member(e.Key)
		if err := c.writeChild(buf, e); err != nil {
			return err
		}
	}

	if c.attributes {
		for _, f := range n.Attributes {
			if f.Value == nil || isNilNode(f.Value) || (f.Key == VersionKey && n.Version != "") {
				continue
			}
			member(f.Key)
			if err := c.writeValue(buf, f); err != nil {
				return err
			}
		}
	}

	if n.Version != "" {
		member(VersionKey)
		writeString(buf, n.Version)
	}

	if written > 0 {
		buf.WriteByte('}')
	}
	return nil
}

func (c renderConfig) writeValue(buf *bytes.Buffer, f Field) error {
	if child, ok := asNode(f.Value); ok {
		return c.writeChild(buf, child.withKey(f.Key))
	}
	raw, err := json.Marshal(f.Value)
	if err != nil {
		return c.writeChild(buf, Missing(f.Key))
	}
	buf.Write(raw)
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	raw, _ := json.Marshal(s)
	buf.Write(raw)
}
