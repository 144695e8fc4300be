package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/saworbit/iotrace/internal/version"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "iotrace",
		Short:   "iotrace - I/O call telemetry collector and tooling",
		Version: version.Version,
	}

	root.AddCommand(newListenCmd(), newReportCmd(), newExportCmd(), newSelftestCmd())
	return root
}
