package main

import (
	"context"
	"flag"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ioa2205/email-support-agent/config"
	"github.com/ioa2205/email-support-agent/internal/bootstrap"
	"github.com/ioa2205/email-support-agent/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "support-agent",
	})

	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using environment variables")
	}

	mode := flag.String("mode", "all", "Run mode: web, agent, all")
	flag.Parse()

	if *mode != "web" && *mode != "agent" && *mode != "all" {
		logger.Fatal("Unknown mode: %s", *mode)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	deps, cleanup, err := bootstrap.NewDependencies(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	if *mode == "agent" || *mode == "all" {
		dispatcher := bootstrap.NewAgent(deps)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dispatcher.Run(ctx); err != nil && err != context.Canceled {
				logger.Error("Dispatcher stopped: %v", err)
			}
		}()
	}

	if *mode == "web" || *mode == "all" {
		app := bootstrap.NewWeb(deps)

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()

			logger.Info("Shutting down API server (timeout: %v)...", shutdownTimeout)
			if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
				logger.Error("Error shutting down: %v", err)
			}
		}()

		addr := ":" + cfg.Port
		logger.Info("Starting API server on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server: %v", err)
		}
	} else {
		<-ctx.Done()
	}

	wg.Wait()
	logger.Info("Shutdown complete")
}
