package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"brandvoice/internal/adapters/csvstore"
	"brandvoice/internal/adapters/jsonlstore"
	"brandvoice/internal/adapters/opus"
	"brandvoice/internal/adapters/suggest"
	"brandvoice/internal/adapters/tiktok"
	"brandvoice/internal/config"
	"brandvoice/internal/core/domain"
	"brandvoice/internal/core/ports"
	"brandvoice/internal/logger"
	"brandvoice/internal/service"
)

func main() {
	jsonPath := flag.String("json", "", "Path to the TikTok channel export JSON file")
	count := flag.Int("count", 0, "Process only the top N videos by view count (0 = all)")
	concurrency := flag.Int("concurrency", 0, "Number of videos processed in parallel (0 = configured default)")
	language := flag.String("language", "", "Output language for training examples")
	maxChar := flag.Int("max-char", 0, "Description character limit for training examples")
	style := flag.String("style", "", "Extra style instructions injected into the system message")
	auto := flag.Bool("auto", false, "Derive language/max-char from sample transcripts")
	outputDir := flag.String("output-dir", "", "Directory for CSV output (overrides OUTPUT_DIR)")
	trainingDir := flag.String("training-dir", "", "Directory for JSONL output (overrides TRAINING_DIR)")
	flag.Parse()

	if *jsonPath == "" {
		fmt.Println("Usage: brandvoice-cli -json <export.json> [-count N] [-auto] [-language L] [-max-char N] [-style S]")
		fmt.Println("\nExample:")
		fmt.Println("  brandvoice-cli -json input/reidhoffman.json -count 25 -auto")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *trainingDir != "" {
		cfg.TrainingDir = *trainingDir
	}

	log := logger.New(cfg.LogLevel)

	data, err := os.ReadFile(*jsonPath)
	if err != nil {
		log.Fatalf("Failed to read export file: %v", err)
	}
	report, err := tiktok.ParseExport(data)
	if err != nil {
		log.Fatalf("Failed to parse export: %v", err)
	}
	channel := tiktok.ChannelFromPath(*jsonPath)

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
	}

	pipeline := service.NewPipeline(
		client,
		csvstore.NewStore(cfg.OutputDir, log),
		jsonlstore.NewStore(cfg.TrainingDir, log),
		suggestions,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received interrupt signal, cancelling...")
		cancel()
	}()

	conc := *concurrency
	if conc == 0 {
		conc = cfg.Concurrency
	}

	result, err := pipeline.Run(ctx, service.RunOptions{
		Channel:     channel,
		Records:     report.Records,
		Malformed:   report.Malformed,
		Count:       *count,
		Concurrency: conc,
		AutoParams:  *auto,
		Generation: domain.GenerationConfig{
			Language: *language,
			MaxChar:  *maxChar,
			Style:    *style,
		},
		OnPhase: func(phase string) {
			log.Info(phase)
		},
	})
	if err != nil {
		log.Errorf("Run failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("\n=== Run Summary ===")
	fmt.Printf("Channel:        %s\n", channel)
	fmt.Printf("Already done:   %d\n", result.Summary.AlreadyDone)
	fmt.Printf("Succeeded:      %d\n", result.Summary.Succeeded)
	fmt.Printf("Failed:         %d\n", result.Summary.Failed)
	fmt.Printf("Timed out:      %d\n", result.Summary.TimedOut)
	fmt.Printf("Malformed:      %d\n", result.Summary.Malformed)
	fmt.Printf("Store total:    %d\n", result.TotalPersisted)
	if result.NothingToDo {
		fmt.Println("Nothing to do: every video already has a persisted outcome")
		return
	}
	fmt.Printf("CSV:            %s\n", result.CSVPath)
	if result.JSONLPath != "" {
		fmt.Printf("Training data:  %s\n", result.JSONLPath)
		fmt.Printf("Language:       %s\n", result.Generation.Language)
		fmt.Printf("Max chars:      %d\n", result.Generation.MaxChar)
	}
}
