package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newSelftestCmd() *cobra.Command {
	var dir string
	var facility string
	var mqPath string

	cmd := &cobra.Command{
		Use:   "selftest [dir]",
		Short: "Emit a known sequence of instrumented calls to a running collector",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				dir = args[0]
			}
			if dir == "" {
				dir = os.TempDir()
			}
			return runSelftest(dir, facility, mqPath)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Parent directory for the scratch workspace (default: system temp)")
	cmd.Flags().StringVar(&facility, "facility", "self", "Facility tag stamped on emitted records")
	cmd.Flags().StringVar(&mqPath, "mq-path", "", "Send over the message queue keyed by this path instead of the socket")
	return cmd
}
