package server

import (
	"net/http"
	"time"

	"dailyquote/pkg/logger"

	"github.com/gin-gonic/gin"
)

// handleNextQuote serves the once-daily external caller (a scheduled script
// doing its own delivery). At most one quote is handed out per calendar day,
// guarded by the day-claim table, independent of the hourly trigger.
func (s *Server) handleNextQuote(c *gin.Context) {
	if c.Query("token") != s.dailyToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	quote, err := s.queue.ClaimToday(time.Now())
	if err != nil {
		logger.Error("failed to claim today's quote", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	if quote == nil {
		c.JSON(http.StatusOK, gin.H{"quote": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": gin.H{"id": quote.ID, "text": quote.Text}})
}

type confirmSendRequest struct {
	ID    uint   `json:"id"`
	Token string `json:"token"`
}

func (s *Server) handleConfirmSend(c *gin.Context) {
	var req confirmSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Token != s.dailyToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := s.queue.ConfirmSend(req.ID); err != nil {
		logger.Error("failed to confirm send", "quote_id", req.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
