package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haritha1313/smartnotes/internal/config"
	"github.com/haritha1313/smartnotes/internal/localstore"
	"github.com/haritha1313/smartnotes/internal/note"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service reachability and local store state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("SmartNotes Status")
	fmt.Println("=================")

	api, err := newAPIClient()
	if err != nil {
		return err
	}
	if err := api.Health(cmd.Context()); err != nil {
		fmt.Printf("Service:  unreachable (%s): %v\n", cfg.Client.APIBaseURL, err)
	} else {
		fmt.Printf("Service:  healthy (%s)\n", cfg.Client.APIBaseURL)
	}

	local := localstore.New(cfg.Client.DataDir)
	notes, err := local.List()
	if err != nil {
		return fmt.Errorf("failed to read local store: %w", err)
	}
	pending := 0
	for _, n := range notes {
		if n.SyncStatus == note.SyncPending || n.SyncStatus == note.SyncFailed {
			pending++
		}
	}
	fmt.Printf("Local:    %d notes (%d awaiting sync) in %s\n", len(notes), pending, cfg.Client.DataDir)

	token, err := local.Token()
	if err != nil {
		return fmt.Errorf("failed to read auth token: %w", err)
	}
	if token == "" {
		fmt.Println("Auth:     no token stored (smartnotes login <token>)")
	} else {
		fmt.Println("Auth:     token stored")
	}
	return nil
}
