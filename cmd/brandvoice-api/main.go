package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brandvoice/internal/adapters/csvstore"
	"brandvoice/internal/adapters/jsonlstore"
	"brandvoice/internal/adapters/opus"
	"brandvoice/internal/adapters/suggest"
	"brandvoice/internal/api"
	"brandvoice/internal/config"
	"brandvoice/internal/core/ports"
	"brandvoice/internal/logger"
	"brandvoice/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel)

	client, err := opus.NewClient(cfg.OpusAPIKey, log,
		opus.WithBaseURL(cfg.OpusBaseURL),
		opus.WithPollInterval(cfg.PollInterval()),
		opus.WithTimeout(cfg.AcquireTimeout()),
	)
	if err != nil {
		log.Fatalf("Failed to initialize transcript client: %v", err)
	}

	var suggestions ports.SuggestionClient
	if cfg.SuggestAPIKey != "" {
		suggestions, err = suggest.NewClient(cfg.SuggestAPIKey, log)
		if err != nil {
			log.Fatalf("Failed to initialize suggestion client: %v", err)
		}
	} else {
		log.Warn("GEMINI_API_KEY not set, parameter suggestion disabled")
	}

	records := csvstore.NewStore(cfg.OutputDir, log)
	pipeline := service.NewPipeline(
		client,
		records,
		jsonlstore.NewStore(cfg.TrainingDir, log),
		suggestions,
		log,
	)

	server := api.NewServer(cfg, pipeline, records, log)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Listen()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalf("Server stopped: %v", err)
	case sig := <-sigChan:
		log.Infof("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Errorf("Shutdown failed: %v", err)
		}
	}
}
