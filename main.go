package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	service "github.com/edgeblocks/edgesite/internal"
	"github.com/edgeblocks/edgesite/internal/config"
)

func main() {
	logger := log.New(os.Stdout, "edgesite ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// Local development convenience; deployed environments set real vars.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	app := service.NewApp(cfg, logger)

	if err := app.Run(ctx); err != nil {
		logger.Fatalf("service exited with error: %v", err)
	}
}
