package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonwraymond/healthz/health"
)

// writeTree prints a report as an indented outline:
//
//	orders Unhealthy v1.2.3
//	├─ db Unhealthy: timeout
//	└─ cache Healthy
func writeTree(w io.Writer, n *health.Node) {
	fmt.Fprintln(w, nodeLine(n))
	writeChildren(w, n, "")
}

func writeChildren(w io.Writer, n *health.Node, prefix string) {
	for i, e := range n.Entries {
		branch, next := "├─ ", "│  "
		if i == len(n.Entries)-1 {
			branch, next = "└─ ", "   "
		}
		fmt.Fprintln(w, prefix+branch+nodeLine(e))
		writeChildren(w, e, prefix+next)
	}
}

func nodeLine(n *health.Node) string {
	var b strings.Builder
	b.WriteString(n.Key)
	b.WriteByte(' ')
	b.WriteString(n.Status.String())
	if n.Version != "" {
		b.WriteString(" v")
		b.WriteString(strings.TrimPrefix(n.Version, "v"))
	}
	if n.Description != "" {
		b.WriteString(": ")
		b.WriteString(n.Description)
	}
	return b.String()
}
