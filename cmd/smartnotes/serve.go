package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haritha1313/smartnotes/internal/ai"
	"github.com/haritha1313/smartnotes/internal/config"
	"github.com/haritha1313/smartnotes/internal/store"
	"github.com/haritha1313/smartnotes/internal/web"
)

var (
	serveAddr string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the note service",
	Long: `Start the note service HTTP API.

Notes live in memory unless --db points at a sqlite file. Notion and
Claude credentials come from the config file or the environment
(NOTION_TOKEN, NOTION_DATABASE_ID, ANTHROPIC_API_KEY).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8000)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "sqlite database path (empty for in-memory)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	dbPath := cfg.Server.DBPath
	if serveDB != "" {
		dbPath = serveDB
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	var llm ai.TextGenerator
	if cfg.Claude.APIKey != "" {
		llm = ai.NewClaudeClient(cfg.Claude.APIKey, cfg.Claude.Model)
	} else {
		logger.Warn("no claude api key configured, using keyword categorization only")
	}

	server := web.NewServer(web.Config{
		Store:            st,
		Categorizer:      ai.NewCategorizer(llm, logger),
		Categories:       ai.NewCategoryCache(logger),
		NotionToken:      cfg.Notion.Token,
		NotionDatabaseID: cfg.Notion.DatabaseID,
		Version:          Version,
		Logger:           logger,
	})
	defer server.Close()

	logger.Info("note service listening", "addr", addr, "store", storeKind(dbPath))
	return server.Run(addr)
}

func storeKind(dbPath string) string {
	if dbPath == "" {
		return "memory"
	}
	return "sqlite:" + dbPath
}
