// Package web is the note service HTTP surface.
package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/haritha1313/smartnotes/internal/ai"
	"github.com/haritha1313/smartnotes/internal/notion"
	"github.com/haritha1313/smartnotes/internal/store"
)

// Categorizer produces an AI suggestion for captured content.
type Categorizer interface {
	Suggest(ctx context.Context, content, comment string, existing []string) ai.Suggestion
}

// Syncer is the slice of the Notion client the handlers need. It also
// satisfies ai.CategorySource.
type Syncer interface {
	CreatePage(ctx context.Context, databaseID string, input notion.PageInput) (string, error)
	ListCategories(ctx context.Context, databaseID string) ([]string, error)
	ListDatabases(ctx context.Context) ([]notion.Database, error)
	Me(ctx context.Context) error
}

// Config assembles a Server.
type Config struct {
	Store       store.Store
	Categorizer Categorizer
	Categories  *ai.CategoryCache

	// NewSyncer builds a Notion client from a per-request token. The
	// default wraps notion.NewClient.
	NewSyncer func(token string) (Syncer, error)

	// Configured fallback credentials, used when a request carries no
	// sync headers of its own.
	NotionToken      string
	NotionDatabaseID string

	Version string

	// SyncGrace is how long a create waits for Notion before answering
	// notion_pending and finishing in the background.
	SyncGrace time.Duration

	Logger *slog.Logger
}

// Server is the note service web server
type Server struct {
	store       store.Store
	categorizer Categorizer
	categories  *ai.CategoryCache
	newSyncer   func(token string) (Syncer, error)

	notionToken      string
	notionDatabaseID string

	version   string
	syncGrace time.Duration
	logger    *slog.Logger
	router    *gin.Engine

	// background tracks deferred Notion syncs so Close can drain them.
	background sync.WaitGroup
}

// NewServer creates a new web server
func NewServer(cfg Config) *Server {
	router := gin.Default()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	newSyncer := cfg.NewSyncer
	if newSyncer == nil {
		newSyncer = func(token string) (Syncer, error) {
			return notion.NewClient(token)
		}
	}

	grace := cfg.SyncGrace
	if grace <= 0 {
		grace = time.Second
	}

	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}

	s := &Server{
		store:            cfg.Store,
		categorizer:      cfg.Categorizer,
		categories:       cfg.Categories,
		newSyncer:        newSyncer,
		notionToken:      cfg.NotionToken,
		notionDatabaseID: cfg.NotionDatabaseID,
		version:          version,
		syncGrace:        grace,
		logger:           logger,
		router:           router,
	}
	s.registerRoutes(router)

	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	api := router.Group("/api/notes")
	{
		api.POST("/", s.handleCreate)
		api.GET("/", s.handleList)
		api.GET("/stats/summary", s.handleStats)
		api.POST("/categorize", s.handleCategorize)
		api.POST("/warm-cache", s.handleWarmCache)
		api.DELETE("/clear-cache", s.handleClearCache)
		api.GET("/:id", s.handleGet)
		api.PUT("/:id", s.handleUpdate)
		api.DELETE("/:id", s.handleDelete)
	}

	nt := router.Group("/api/notion")
	{
		nt.GET("/test-connection", s.handleTestConnection)
		nt.GET("/databases", s.handleListDatabases)
	}
}

// Run starts the web server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close waits for background Notion syncs to finish and releases the store.
func (s *Server) Close() error {
	s.background.Wait()
	return s.store.Close()
}
