package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/primacy-governor/internal/report"
	"github.com/danielpatrickdp/primacy-governor/internal/trace"
)

// #region report-cmd

func newReportCmd() *cobra.Command {
	var (
		dbPath     string
		sessionID  string
		exportPath string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate governance report over recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(dbPath, sessionID, exportPath)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the event store (required)")
	cmd.Flags().StringVar(&sessionID, "session", "", "report on a single session only")
	cmd.Flags().StringVar(&exportPath, "export", "", "also export the chains as JSONL to this file")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// #endregion report-cmd

// #region report-impl

func runReport(dbPath, sessionID, exportPath string) error {
	store, err := trace.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var ids []string
	if sessionID != "" {
		ids = []string{sessionID}
	} else {
		ids, err = store.ListSessions()
		if err != nil {
			return err
		}
	}

	chains := make([][]trace.GovernanceEvent, 0, len(ids))
	for _, id := range ids {
		chain, err := store.LoadChain(id)
		if err != nil {
			return err
		}
		if err := trace.Verify(chain); err != nil {
			return fmt.Errorf("session %s: %w", id, err)
		}
		chains = append(chains, chain)
	}

	r := report.Build(chains, nil)
	r.WriteText(os.Stdout)

	if exportPath != "" {
		f, err := os.Create(exportPath)
		if err != nil {
			return fmt.Errorf("create export: %w", err)
		}
		defer f.Close()
		for _, chain := range chains {
			if err := trace.ExportJSONL(f, chain, trace.PrivacyFull); err != nil {
				return err
			}
		}
		fmt.Printf("exported %d chains to %s\n", len(chains), exportPath)
	}
	return nil
}

// #endregion report-impl
