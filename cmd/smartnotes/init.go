package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haritha1313/smartnotes/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the smartnotes home directory",
	Long: `Initialize the smartnotes home directory.

Creates ~/.smartnotes/ (or $SMARTNOTES_HOME) with a commented default
config.yaml. An existing config is kept unless --force is given.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := config.DataDir()
	if dir == "" {
		return fmt.Errorf("cannot determine home directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := config.ConfigPath()
	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Printf("Config already exists at %s (use --force to overwrite)\n", path)
		return nil
	}

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Initialized %s\n", dir)
	fmt.Println("")
	fmt.Println("Created:")
	fmt.Printf("  %s\n", path)
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the config or export ANTHROPIC_API_KEY / NOTION_TOKEN / NOTION_DATABASE_ID")
	fmt.Println("  2. Start the service: smartnotes serve")
	fmt.Println("  3. Capture a note:    smartnotes capture --text \"...\" --url ... --title ...")
	return nil
}
