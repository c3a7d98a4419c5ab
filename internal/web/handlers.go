package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/haritha1313/smartnotes/internal/note"
	"github.com/haritha1313/smartnotes/internal/notion"
	"github.com/haritha1313/smartnotes/internal/store"
)

// Sync header names carried by clients that want Notion mirroring.
const (
	headerNotionToken    = "X-Notion-Token"
	headerNotionDatabase = "X-Notion-Database-Id"
)

type createRequest struct {
	Text      string     `json:"text"`
	Comment   string     `json:"comment"`
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Timestamp *time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   s.version,
	})
}

func (s *Server) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	text := note.SanitizeText(req.Text, note.MaxTextLength)
	title := note.SanitizeText(req.Title, note.MaxTitleLength)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "text must not be empty",
		})
		return
	}
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "title must not be empty",
		})
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "url must be http or https",
		})
		return
	}

	now := time.Now().UTC()
	timestamp := now
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		timestamp = req.Timestamp.UTC()
	}

	rec := &store.Record{
		ID:         uuid.NewString(),
		Text:       text,
		Comment:    note.SanitizeText(req.Comment, note.MaxCommentLength),
		URL:        req.URL,
		Title:      title,
		Category:   note.SanitizeCategory(req.Category),
		Timestamp:  timestamp,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: note.BackendSyncLocal,
	}

	if err := s.store.Create(rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	data := gin.H{
		"note_id":     rec.ID,
		"created_at":  rec.CreatedAt.Format(time.RFC3339),
		"sync_status": rec.SyncStatus,
	}

	token := c.GetHeader(headerNotionToken)
	databaseID := c.GetHeader(headerNotionDatabase)
	if token != "" && databaseID != "" {
		status, pageID := s.syncToNotion(rec, token, databaseID)
		data["sync_status"] = status
		if pageID != "" {
			data["notion_page_id"] = pageID
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Note created",
		"data":    data,
	})
}

// syncToNotion attempts the mirror within the grace window. A sync that
// outlives the window keeps running in the background and lands its result
// in the store, while the request answers notion_pending.
func (s *Server) syncToNotion(rec *store.Record, token, databaseID string) (status, pageID string) {
	syncer, err := s.newSyncer(token)
	if err != nil {
		s.logger.Warn("notion client setup failed", "note", rec.ID, "error", err)
		s.setSyncStatus(rec.ID, note.BackendSyncFailed, "")
		return note.BackendSyncFailed, ""
	}

	type outcome struct {
		pageID string
		err    error
	}
	done := make(chan outcome, 1)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		id, err := syncer.CreatePage(context.Background(), databaseID, notion.PageInput{
			Text:      rec.Text,
			Comment:   rec.Comment,
			URL:       rec.URL,
			Title:     rec.Title,
			Category:  rec.Category,
			Timestamp: rec.Timestamp,
		})
		done <- outcome{pageID: id, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			s.logger.Warn("notion sync failed", "note", rec.ID, "error", out.err)
			s.setSyncStatus(rec.ID, note.BackendSyncFailed, "")
			return note.BackendSyncFailed, ""
		}
		s.setSyncStatus(rec.ID, note.BackendSyncSynced, out.pageID)
		return note.BackendSyncSynced, out.pageID

	case <-time.After(s.syncGrace):
		s.setSyncStatus(rec.ID, note.BackendSyncPending, "")
		s.background.Add(1)
		go func() {
			defer s.background.Done()
			out := <-done
			if out.err != nil {
				s.logger.Warn("deferred notion sync failed", "note", rec.ID, "error", out.err)
				s.setSyncStatus(rec.ID, note.BackendSyncFailed, "")
				return
			}
			s.setSyncStatus(rec.ID, note.BackendSyncSynced, out.pageID)
		}()
		return note.BackendSyncPending, ""
	}
}

func (s *Server) setSyncStatus(id, status, pageID string) {
	if err := s.store.SetSyncStatus(id, status, pageID); err != nil {
		s.logger.Error("failed to record sync status", "note", id, "status", status, "error", err)
	}
}

func (s *Server) handleList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = store.ClampPaging(page, pageSize)

	filter := store.Filter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	result, err := s.store.List(filter, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	notes := make([]gin.H, 0, len(result.Notes))
	for _, rec := range result.Notes {
		notes = append(notes, recordJSON(rec))
	}

	c.JSON(http.StatusOK, gin.H{
		"notes":     notes,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
		"has_next":  result.HasNext,
	})
}

// recordJSON renders a record with its derived Notion URL.
func recordJSON(rec *store.Record) gin.H {
	h := gin.H{
		"id":          rec.ID,
		"text":        rec.Text,
		"comment":     rec.Comment,
		"url":         rec.URL,
		"title":       rec.Title,
		"category":    rec.Category,
		"timestamp":   rec.Timestamp.Format(time.RFC3339),
		"created_at":  rec.CreatedAt.Format(time.RFC3339),
		"updated_at":  rec.UpdatedAt.Format(time.RFC3339),
		"sync_status": rec.SyncStatus,
	}
	if rec.NotionPageID != "" {
		h["notion_page_id"] = rec.NotionPageID
		h["notion_page_url"] = notion.PageURL(rec.NotionPageID)
	}
	return h
}

func (s *Server) handleGet(c *gin.Context) {
	id, ok := s.noteID(c)
	if !ok {
		return
	}

	rec, err := s.store.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "note not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    recordJSON(rec),
	})
}

type updateRequest struct {
	Comment  *string `json:"comment"`
	Category *string `json:"category"`
}

func (s *Server) handleUpdate(c *gin.Context) {
	id, ok := s.noteID(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	var patch store.Patch
	if req.Category != nil {
		cleaned := note.SanitizeCategory(*req.Category)
		patch.Category = &cleaned
	}
	if req.Comment != nil {
		cleaned := note.SanitizeText(*req.Comment, note.MaxCommentLength)
		patch.Comment = &cleaned
	}

	rec, err := s.store.Update(id, patch)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "note not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Note updated",
		"data":    recordJSON(rec),
	})
}

func (s *Server) handleDelete(c *gin.Context) {
	id, ok := s.noteID(c)
	if !ok {
		return
	}

	if err := s.store.Delete(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   "note not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Note deleted",
	})
}

// noteID validates the path id. Backend ids are always UUIDs.
func (s *Server) noteID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid note id",
		})
		return "", false
	}
	return id, true
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.store.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

type categorizeRequest struct {
	Content            string   `json:"content"`
	Comment            string   `json:"comment"`
	ExistingCategories []string `json:"existing_categories"`
}

func (s *Server) handleCategorize(c *gin.Context) {
	var req categorizeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "content must not be empty",
		})
		return
	}

	categories := req.ExistingCategories
	if len(categories) == 0 {
		categories = s.resolveCategories(c)
	}

	suggestion := s.categorizer.Suggest(c.Request.Context(), req.Content, req.Comment, categories)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Categorization complete",
		"data": gin.H{
			"title":               suggestion.Title,
			"category":            suggestion.Category,
			"confidence":          suggestion.Confidence,
			"is_new":              suggestion.IsNew,
			"reasoning":           suggestion.Reasoning,
			"existing_categories": categories,
		},
	})
}

// resolveCategories finds the live category list: request sync headers
// first, then configured credentials, then the builtin defaults.
func (s *Server) resolveCategories(c *gin.Context) []string {
	token := c.GetHeader(headerNotionToken)
	databaseID := c.GetHeader(headerNotionDatabase)
	if token == "" || databaseID == "" {
		token, databaseID = s.notionToken, s.notionDatabaseID
	}
	if token == "" || databaseID == "" || s.categories == nil {
		return note.DefaultCategories
	}

	syncer, err := s.newSyncer(token)
	if err != nil {
		s.logger.Warn("notion client setup failed for categories", "error", err)
		return note.DefaultCategories
	}

	categories, err := s.categories.Fetch(c.Request.Context(), syncer, databaseID)
	if err != nil || len(categories) == 0 {
		return note.DefaultCategories
	}
	return categories
}

func (s *Server) handleWarmCache(c *gin.Context) {
	token := c.GetHeader(headerNotionToken)
	databaseID := c.GetHeader(headerNotionDatabase)
	if token == "" || databaseID == "" {
		token, databaseID = s.notionToken, s.notionDatabaseID
	}
	if token == "" || databaseID == "" || s.categories == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "no notion credentials available",
		})
		return
	}

	syncer, err := s.newSyncer(token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if err := s.categories.Warm(context.Background(), syncer, databaseID); err != nil {
			s.logger.Warn("cache warm failed", "database", databaseID, "error", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cache warming started",
	})
}

// requestSyncer builds a Notion client from the request token, falling
// back to the configured one. ok == false means the error response has
// already been written.
func (s *Server) requestSyncer(c *gin.Context) (Syncer, bool) {
	token := c.GetHeader(headerNotionToken)
	if token == "" {
		token = s.notionToken
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "no notion token available",
		})
		return nil, false
	}

	syncer, err := s.newSyncer(token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return nil, false
	}
	return syncer, true
}

func (s *Server) handleTestConnection(c *gin.Context) {
	syncer, ok := s.requestSyncer(c)
	if !ok {
		return
	}

	if err := syncer.Me(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notion connection OK",
	})
}

func (s *Server) handleListDatabases(c *gin.Context) {
	syncer, ok := s.requestSyncer(c)
	if !ok {
		return
	}

	databases, err := syncer.ListDatabases(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"databases": databases,
			"count":     len(databases),
		},
	})
}

func (s *Server) handleClearCache(c *gin.Context) {
	databaseID := c.GetHeader(headerNotionDatabase)
	if databaseID == "" {
		databaseID = s.notionDatabaseID
	}
	if s.categories != nil {
		s.categories.Clear(databaseID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cache cleared",
	})
}
