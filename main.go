package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/1rvyn/story-builder/cli"
	"github.com/1rvyn/story-builder/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	code := cli.Run(ctx, app, os.Args[1:])
	if err := app.Close(context.Background()); err != nil {
		log.Printf("Warning: %v", err)
	}
	stop()
	os.Exit(code)
}
