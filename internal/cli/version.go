package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthz/health"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writeVersion(cmd.OutOrStdout())
			return nil
		},
	}
}

func writeVersion(out io.Writer) {
	version := health.BuildVersion()
	if version == "" {
		version = "devel"
	}
	fmt.Fprintf(out, "healthz version %s\n", version)
	if commit := health.BuildCommit(); commit != "" {
		fmt.Fprintf(out, "Commit: %s\n", commit)
	}
	fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
}
