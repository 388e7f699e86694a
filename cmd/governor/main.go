package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// #region root

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "governor",
		Short: "Primacy Attractor governance layer",
		Long: "governor scores every conversational turn against a Primacy Attractor,\n" +
			"tracks per-session drift, and records every decision on a tamper-evident\n" +
			"hash-chained audit log.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(newReportCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion root
