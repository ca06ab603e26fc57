// Package server exposes the operator HTTP API and the once-daily
// integration endpoints over the core queue/scheduler contract.
package server

import (
	"fmt"

	"dailyquote/pkg/delivery"
	"dailyquote/pkg/queue"
	"dailyquote/pkg/scheduler"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	engine     *gin.Engine
	gdb        *gorm.DB
	queue      *queue.Service
	sched      *scheduler.Scheduler
	gateway    delivery.Gateway
	dailyToken string
}

func New(gdb *gorm.DB, q *queue.Service, sched *scheduler.Scheduler, gateway delivery.Gateway, dailyToken string) *Server {
	s := &Server{
		engine:     gin.Default(),
		gdb:        gdb,
		queue:      q,
		sched:      sched,
		gateway:    gateway,
		dailyToken: dailyToken,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.GET("/health", s.handleHealth)

	// Once-daily external caller, authenticated by the shared token.
	r.GET("/next-quote", s.handleNextQuote)
	r.POST("/confirm-send", s.handleConfirmSend)

	api := r.Group("/api")
	{
		api.GET("/quotes", s.handleListQuotes)
		api.POST("/quotes", s.handleCreateQuote)
		api.DELETE("/quotes/:id", s.handleDeleteQuote)
		api.POST("/quotes/upload", s.handleUploadCSV)

		api.GET("/queue/status", s.handleQueueStatus)
		api.POST("/queue/rebuild", s.handleQueueRebuild)

		api.GET("/settings", s.handleGetSettings)
		api.POST("/settings", s.handleSetSetting)

		api.POST("/push-token", s.handleRegisterPushToken)
		api.GET("/delivery/status", s.handleDeliveryStatus)
		api.POST("/test-notification", s.handleTestNotification)

		api.GET("/backup", s.handleBackup)
		api.POST("/restore", s.handleRestore)
	}
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Run(port int) error {
	return s.engine.Run(fmt.Sprintf(":%d", port))
}
