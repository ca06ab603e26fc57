package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"dailyquote/pkg/db"
	"dailyquote/pkg/importexport"
	"dailyquote/pkg/logger"
	"dailyquote/pkg/queue"

	"github.com/gin-gonic/gin"
)

type quoteRow struct {
	db.Quote
	SentThisCycle bool `json:"sent_this_cycle"`
}

func (s *Server) handleListQuotes(c *gin.Context) {
	var rows []quoteRow
	err := s.gdb.Table("quotes").
		Select("quotes.*, COALESCE(rotation_entries.sent, ?) AS sent_this_cycle", false).
		Joins("LEFT JOIN rotation_entries ON rotation_entries.quote_id = quotes.id").
		Order("quotes.added_at DESC, quotes.id DESC").
		Scan(&rows).Error
	if err != nil {
		logger.Error("failed to list quotes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quotes"})
		return
	}
	if rows == nil {
		rows = []quoteRow{}
	}
	c.JSON(http.StatusOK, rows)
}

type createQuoteRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

func (s *Server) handleCreateQuote(c *gin.Context) {
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quote text is required"})
		return
	}
	if utf8.RuneCountInString(text) > db.MaxQuoteLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("quote text exceeds %d characters", db.MaxQuoteLength),
		})
		return
	}

	quote, err := s.queue.CreateQuote(text, strings.TrimSpace(req.Author))
	if err != nil {
		logger.Error("failed to create quote", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":      quote.ID,
		"text":    quote.Text,
		"author":  quote.Author,
		"message": "quote added successfully",
	})
}

func (s *Server) handleDeleteQuote(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quote id"})
		return
	}

	if err := s.queue.Remove(uint(id)); err != nil {
		if errors.Is(err, queue.ErrQuoteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quote not found"})
			return
		}
		logger.Error("failed to delete quote", "quote_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete quote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "quote deleted successfully"})
}

type uploadCSVRequest struct {
	CSV string `json:"csv"`
}

func (s *Server) handleUploadCSV(c *gin.Context) {
	var req uploadCSVRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.CSV) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "csv data is required"})
		return
	}

	quotes, skipped, err := importexport.ParseQuotesCSV([]byte(req.CSV))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse CSV"})
		return
	}

	imported, err := importexport.ImportQuotes(s.queue, quotes)
	if err != nil {
		logger.Error("failed to import quotes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to import quotes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("imported %d quotes", imported),
		"imported": imported,
		"errors":   skipped,
	})
}

func (s *Server) handleBackup(c *gin.Context) {
	backup, err := importexport.BuildBackup(s.gdb, time.Now().UTC())
	if err != nil {
		logger.Error("failed to build backup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build backup"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=quotes-backup.json")
	c.JSON(http.StatusOK, backup)
}

type restoreRequest struct {
	Quotes []importexport.BackupQuote `json:"quotes"`
}

func (s *Server) handleRestore(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quotes == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid backup format"})
		return
	}

	imported, err := importexport.RestoreQuotes(s.gdb, req.Quotes)
	if err != nil {
		logger.Error("failed to restore quotes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to restore quotes"})
		return
	}

	// Restored quotes enter the rotation via a full rebuild.
	if err := s.queue.Rebuild(); err != nil {
		logger.Error("failed to rebuild queue after restore", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restored quotes but failed to rebuild queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  fmt.Sprintf("successfully imported %d quotes", imported),
		"imported": imported,
		"total":    len(req.Quotes),
	})
}
