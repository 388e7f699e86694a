package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/primacy-governor/internal/trace"
)

// #region verify-cmd

func newVerifyCmd() *cobra.Command {
	var (
		dbPath    string
		tracePath string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify hash-chain integrity of recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (dbPath == "") == (tracePath == "") {
				return fmt.Errorf("exactly one of --db or --trace is required")
			}
			if tracePath != "" {
				return verifyTraceFile(tracePath)
			}
			return verifyStore(dbPath, sessionID)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the event store")
	cmd.Flags().StringVar(&tracePath, "trace", "", "path to a JSONL trace export")
	cmd.Flags().StringVar(&sessionID, "session", "", "verify a single session only")
	return cmd
}

// #endregion verify-cmd

// #region verify-impl

func verifyStore(dbPath, sessionID string) error {
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
	if len(ids) == 0 {
		fmt.Println("no sessions recorded.")
		return nil
	}

	tampered := false
	for _, id := range ids {
		chain, err := store.LoadChain(id)
		if err != nil {
			return err
		}
		if err := reportChain(id, chain); err != nil {
			tampered = true
		}
	}
	if tampered {
		return fmt.Errorf("chain verification failed")
	}
	return nil
}

func verifyTraceFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	chain, err := trace.ReadJSONL(f)
	if err != nil {
		return err
	}
	id := ""
	if len(chain) > 0 {
		id = chain[0].SessionID
	}
	if err := reportChain(id, chain); err != nil {
		return fmt.Errorf("chain verification failed")
	}
	return nil
}

func reportChain(id string, chain []trace.GovernanceEvent) error {
	err := trace.Verify(chain)
	if err == nil {
		fmt.Printf("OK       %s (%d events)\n", id, len(chain))
		return nil
	}
	var tamper *trace.TamperError
	if errors.As(err, &tamper) {
		fmt.Printf("TAMPERED %s at index %d: %s\n", id, tamper.Index, tamper.Reason)
	} else {
		fmt.Printf("TAMPERED %s: %v\n", id, err)
	}
	return err
}

// #endregion verify-impl
