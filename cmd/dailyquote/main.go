// cmd/dailyquote/main.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"dailyquote/pkg/config"
	"dailyquote/pkg/db"
	"dailyquote/pkg/delivery"
	"dailyquote/pkg/logger"
	"dailyquote/pkg/queue"
	"dailyquote/pkg/scheduler"
	"dailyquote/pkg/server"
)

const defaultPort = 3000

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(config.AppConfig.Database); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	dailyToken := config.AppConfig.Server.DailyToken
	if dailyToken == "" {
		dailyToken = generateToken()
		logger.Info("no DAILY_TOKEN set, generated one for this run", "token", dailyToken)
	}

	q := queue.New(db.DB)
	gateway := delivery.NewFromConfig(config.AppConfig.Delivery, db.DB)
	sched := scheduler.New(db.DB, q, gateway)

	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	port := config.AppConfig.Server.Port
	if port == 0 {
		port = defaultPort
	}

	srv := server.New(db.DB, q, sched, gateway, dailyToken)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(port)
	}()

	logger.Info("server running", "port", port)

	select {
	case err := <-errCh:
		logger.Error("http server stopped", "error", err)
		os.Exit(1)
	case <-ctx.Done():
		logger.Info("shutting down")
	}
}

func generateToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		logger.Error("failed to generate daily token", "error", err)
		os.Exit(1)
	}
	return hex.EncodeToString(buf)
}
