package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/primacy-governor/internal/attractor"
	"github.com/danielpatrickdp/primacy-governor/internal/embedder"
	"github.com/danielpatrickdp/primacy-governor/internal/logging"
	"github.com/danielpatrickdp/primacy-governor/internal/session"
	"github.com/danielpatrickdp/primacy-governor/internal/trace"
)

// #region run-cmd

func newRunCmd() *cobra.Command {
	var (
		paPath      string
		dbPath      string
		embedAddr   string
		embedModel  string
		privacyMode string
		sessionID   string
		debug       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Govern an interactive session on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(paPath, dbPath, embedAddr, embedModel, privacyMode, sessionID, debug)
		},
	}
	cmd.Flags().StringVar(&paPath, "pa", "", "path to PA template YAML (required)")
	cmd.Flags().StringVar(&dbPath, "db", "governance_events.db", "path to the event store")
	cmd.Flags().StringVar(&embedAddr, "embedder", "localhost:50051", "embedding service address")
	cmd.Flags().StringVar(&embedModel, "model", "nomic-embed-text", "embedding model name")
	cmd.Flags().StringVar(&privacyMode, "privacy", "full", "privacy mode: full|anonymized|minimal|disabled")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (generated when empty)")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = cmd.MarkFlagRequired("pa")
	return cmd
}

// #endregion run-cmd

// #region run-loop

func runLoop(paPath, dbPath, embedAddr, embedModel, privacyMode, sessionID string, debug bool) error {
	logger, err := logging.New(debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	mode, err := parsePrivacy(privacyMode)
	if err != nil {
		return err
	}

	tmpl, err := attractor.LoadTemplate(paPath)
	if err != nil {
		return err
	}

	client, err := embedder.NewClient(embedAddr, embedModel)
	if err != nil {
		return err
	}
	defer client.Close()

	// Resolve the PA vector: inline vector wins, otherwise embed the anchor.
	paVec := tmpl.Vector
	if paVec == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		paVec, err = client.Embed(ctx, tmpl.AnchorText)
		cancel()
		if err != nil {
			return fmt.Errorf("embed anchor: %w", err)
		}
	}

	store, err := trace.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	collector := trace.NewCollector(mode, store)
	manager := session.NewManager(collector, logger)

	id, err := manager.StartSession(sessionID, session.PAConfig{
		Name:       tmpl.Name,
		Purpose:    tmpl.Purpose,
		Domain:     tmpl.Domain,
		Vector:     paVec,
		Thresholds: tmpl.Thresholds,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Primacy Governor ready.\n")
	fmt.Printf("  PA: %s | DB: %s | Privacy: %s | Session: %s\n", tmpl.Name, dbPath, mode, id)
	fmt.Println("Type a turn ('/ack' to acknowledge a block, '/end' or 'quit' to finish):")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "quit" || line == "/end":
			if err := manager.EndSession(id); err != nil {
				return err
			}
			fmt.Println("session closed.")
			return nil
		case line == "/ack":
			if err := manager.Acknowledge(id); err != nil {
				fmt.Printf("  ack failed: %v\n", err)
				continue
			}
			fmt.Println("  block acknowledged, zone is now WARNING.")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		vec, err := client.Embed(ctx, line)
		cancel()
		if err != nil {
			fmt.Printf("  embedding failed: %v\n", err)
			continue
		}

		verdict, err := manager.ProcessTurn(session.TurnInput{
			SessionID: id,
			Embedding: vec,
			UserText:  line,
		})
		if err != nil {
			fmt.Printf("  turn rejected: %v\n", err)
			continue
		}
		printVerdict(verdict)
	}

	return manager.EndSession(id)
}

func printVerdict(v session.Verdict) {
	served := "REFUSED"
	if v.Served() {
		served = "SERVED"
	}
	fmt.Printf("  [turn %d] %s | tier %d | fidelity %.4f (raw %.4f) | strength %.2f | %s/%s\n",
		v.Turn, served, v.Tier, v.NormalizedFidelity, v.RawSimilarity, v.Strength, v.FidelityZone, v.DriftZone)
	if v.Rationale != "" {
		fmt.Printf("           %s → %s\n", v.Action, v.Rationale)
	}
}

func parsePrivacy(s string) (trace.PrivacyMode, error) {
	switch strings.ToLower(s) {
	case "full":
		return trace.PrivacyFull, nil
	case "anonymized":
		return trace.PrivacyAnonymized, nil
	case "minimal":
		return trace.PrivacyMinimal, nil
	case "disabled":
		return trace.PrivacyDisabled, nil
	default:
		return "", fmt.Errorf("unknown privacy mode %q", s)
	}
}

// #endregion run-loop
