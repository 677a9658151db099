// Package cli implements the healthz command line.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd wires the cobra root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "healthz",
		Short: "Serve and inspect tree-shaped health reports",
		Long: "healthz runs a service's probes, grafts the reports of its downstream services\n" +
			"and serves the aggregated tree over HTTP. It can also fetch and print any report.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newProbeCommand())
	root.AddCommand(newVersionCommand())
	return root
}
