package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haritha1313/smartnotes/internal/apiclient"
	"github.com/haritha1313/smartnotes/internal/config"
	"github.com/haritha1313/smartnotes/internal/localstore"
)

var categorizeComment string

var categorizeCmd = &cobra.Command{
	Use:   "categorize [content]",
	Short: "Ask the service to categorize a piece of content",
	Long: `Ask the service for an AI category suggestion.

The content comes from the argument or stdin.

Examples:
  smartnotes categorize "transformer architectures for long contexts"
  pbpaste | smartnotes categorize`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCategorize,
}

var warmCacheCmd = &cobra.Command{
	Use:   "warm-cache",
	Short: "Pre-fetch the service's Notion category cache",
	RunE:  runWarmCache,
}

func init() {
	categorizeCmd.Flags().StringVar(&categorizeComment, "comment", "", "optional comment to weigh in")
}

func newAPIClient() (*apiclient.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	token, err := localstore.New(cfg.Client.DataDir).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read auth token: %w", err)
	}

	return apiclient.New(cfg.Client.APIBaseURL, apiclient.Options{
		AuthToken:        token,
		NotionToken:      cfg.Notion.Token,
		NotionDatabaseID: cfg.Notion.DatabaseID,
	}), nil
}

func runCategorize(cmd *cobra.Command, args []string) error {
	content := ""
	if len(args) > 0 {
		content = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		content = strings.TrimSpace(string(data))
	}
	if content == "" {
		return fmt.Errorf("nothing to categorize")
	}

	api, err := newAPIClient()
	if err != nil {
		return err
	}

	suggestion, err := api.Categorize(cmd.Context(), content, categorizeComment, nil)
	if err != nil {
		return fmt.Errorf("categorization failed: %w", err)
	}

	fmt.Printf("Title:      %s\n", suggestion.Title)
	fmt.Printf("Category:   %s", suggestion.Category)
	if suggestion.IsNew {
		fmt.Print(" (new)")
	}
	fmt.Printf("\nConfidence: %.2f\n", suggestion.Confidence)
	return nil
}

func runWarmCache(cmd *cobra.Command, args []string) error {
	api, err := newAPIClient()
	if err != nil {
		return err
	}

	if err := api.WarmCache(cmd.Context()); err != nil {
		return fmt.Errorf("warm cache failed: %w", err)
	}
	fmt.Println("Cache warming started")
	return nil
}
