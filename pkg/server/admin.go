package server

import (
	"net/http"
	"strings"
	"time"

	"dailyquote/pkg/db"
	"dailyquote/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) handleQueueStatus(c *gin.Context) {
	status, err := s.queue.Status()
	if err != nil {
		logger.Error("failed to read queue status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read queue status"})
		return
	}

	lastSent, err := db.GetSetting(s.gdb, db.SettingLastSentDate, "")
	if err != nil {
		logger.Error("failed to read last sent date", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read settings"})
		return
	}
	if lastSent == "" {
		lastSent = "Never"
	}

	c.JSON(http.StatusOK, gin.H{
		"totalQuotes":        status.TotalQuotes,
		"sentThisCycle":      status.SentThisCycle,
		"remainingThisCycle": status.RemainingThisCycle,
		"lastSentDate":       lastSent,
	})
}

func (s *Server) handleQueueRebuild(c *gin.Context) {
	if err := s.queue.Rebuild(); err != nil {
		logger.Error("failed to rebuild queue", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rebuild queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "queue rebuilt successfully"})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := db.AllSettings(s.gdb)
	if err != nil {
		logger.Error("failed to read settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

type setSettingRequest struct {
	Key   string  `json:"key"`
	Value *string `json:"value"`
}

// handleSetSetting stores any key the operator sends; the scheduler defends
// itself against unknown or malformed window values.
func (s *Server) handleSetSetting(c *gin.Context) {
	var req setSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Key) == "" || req.Value == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and value are required"})
		return
	}

	if err := db.SetSetting(s.gdb, req.Key, *req.Value); err != nil {
		logger.Error("failed to update setting", "key", req.Key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update setting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "setting updated successfully"})
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

func (s *Server) handleRegisterPushToken(c *gin.Context) {
	var req pushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	token := db.PushToken{Token: strings.TrimSpace(req.Token)}
	err := s.gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoNothing: true,
	}).Create(&token).Error
	if err != nil {
		logger.Error("failed to register push token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register push token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "push token registered successfully"})
}

func (s *Server) handleDeliveryStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"channel":    s.gateway.Name(),
		"configured": s.gateway.IsConfigured(),
	})
}

func (s *Server) handleTestNotification(c *gin.Context) {
	message, err := s.sched.SendTest(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}
