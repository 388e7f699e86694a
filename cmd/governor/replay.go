package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/primacy-governor/internal/replay"
	"github.com/danielpatrickdp/primacy-governor/internal/trace"
)

// #region replay-cmd

func newReplayCmd() *cobra.Command {
	var (
		dbPath    string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild session state from its event chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(dbPath, sessionID)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the event store (required)")
	cmd.Flags().StringVar(&sessionID, "session", "", "replay a single session only")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

// #endregion replay-cmd

// #region replay-impl

func runReplay(dbPath, sessionID string) error {
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

	for _, id := range ids {
		chain, err := store.LoadChain(id)
		if err != nil {
			return err
		}
		st, err := replay.Rebuild(chain)
		if err != nil {
			return fmt.Errorf("session %s: %w", id, err)
		}
		printState(st)
	}
	return nil
}

func printState(st replay.SessionState) {
	fmt.Printf("session %s (pa=%s)\n", st.SessionID, st.PAName)
	fmt.Printf("  turns=%d zone=%s blocked=%v closed=%v\n", st.Turns, st.DriftZone, st.Blocked, st.Closed)
	if st.Baseline != nil {
		fmt.Printf("  baseline: mean=%.4f stddev=%.4f over %d turns\n",
			st.Baseline.Mean, st.Baseline.StdDev, st.Baseline.Turns)
	} else {
		fmt.Printf("  baseline: window still open\n")
	}
	fmt.Printf("  interventions=%d reviews=%d tail=%s\n", st.Interventions, st.Reviews, st.TailHash)
}

// #endregion replay-impl
