package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haritha1313/smartnotes/internal/config"
	"github.com/haritha1313/smartnotes/internal/localstore"
)

var loginCmd = &cobra.Command{
	Use:   "login [token]",
	Short: "Store the service bearer token",
	Long: `Store the bearer token sent on service requests.

An empty token logs out:
  smartnotes login ""`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	local := localstore.New(cfg.Client.DataDir)
	if err := local.SetToken(args[0]); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	if args[0] == "" {
		fmt.Println("Logged out")
	} else {
		fmt.Println("Token stored")
	}
	return nil
}
