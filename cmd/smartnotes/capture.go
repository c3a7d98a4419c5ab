package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/haritha1313/smartnotes/internal/apiclient"
	"github.com/haritha1313/smartnotes/internal/background"
	"github.com/haritha1313/smartnotes/internal/capture"
	"github.com/haritha1313/smartnotes/internal/config"
	"github.com/haritha1313/smartnotes/internal/localstore"
	"github.com/haritha1313/smartnotes/internal/pipeline"
	"github.com/haritha1313/smartnotes/internal/relay"
)

var (
	captureText    string
	captureURL     string
	captureTitle   string
	captureComment string
	captureUseAI   bool
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a note",
	Long: `Capture a snippet of text as a note.

The text comes from --text or stdin. The note is saved through the
service when it is reachable, and kept locally with a pending sync
status otherwise.

Examples:
  smartnotes capture --text "worth keeping" --url https://example.com --title "Example"
  pbpaste | smartnotes capture --url https://github.com/golang/go --title "golang/go"`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().StringVar(&captureText, "text", "", "selected text (stdin when omitted)")
	captureCmd.Flags().StringVar(&captureURL, "url", "", "source page URL")
	captureCmd.Flags().StringVar(&captureTitle, "title", "", "source page title")
	captureCmd.Flags().StringVar(&captureComment, "comment", "", "optional comment")
	captureCmd.Flags().BoolVar(&captureUseAI, "use-ai", false, "defer the category to AI categorization")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	text := captureText
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimSpace(string(data))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	local := localstore.New(cfg.Client.DataDir)
	token, err := local.Token()
	if err != nil {
		return fmt.Errorf("failed to read auth token: %w", err)
	}

	api := apiclient.New(cfg.Client.APIBaseURL, apiclient.Options{
		AuthToken:        token,
		NotionToken:      cfg.Notion.Token,
		NotionDatabaseID: cfg.Notion.DatabaseID,
	})

	tracker := capture.NewSelectionTracker()
	tracker.Update(capture.Trigger{Text: text, URL: captureURL, Title: captureTitle})

	bus := relay.NewBus()
	defer bus.Close()

	worker := background.New(bus, background.Config{
		Saver:   pipeline.New(api, local, logger),
		Backend: api,
		Tracker: tracker,
		Logger:  logger,
	})
	defer worker.Wait()

	useAI := captureUseAI || cfg.Client.UseAI
	session, err := capture.NewSession(tracker.Current(nil),
		relay.NewClient(bus, relay.DefaultRetryPolicy()), capture.SessionConfig{
		UseAI:  useAI,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	n, results, err := session.Save(ctx, captureComment)
	if err != nil {
		return err
	}

	fmt.Printf("Capturing %s\n", n.ID)

	res := <-results
	if res == nil {
		return fmt.Errorf("save produced no result")
	}
	if !res.Success {
		return fmt.Errorf("save failed: %s", res.Message)
	}

	fmt.Printf("Saved via %s (%s)\n", res.Method, res.SyncStatus)
	if res.NotionPageID != "" {
		fmt.Printf("Notion page: %s\n", res.NotionPageID)
	}
	return nil
}
