package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"brandvoice/internal/core/domain"
	"brandvoice/internal/core/ports"
)

// suggestionSampleSize limits how many transcripts are sent to the
// parameter-suggestion service.
const suggestionSampleSize = 3

// RunOptions configures one pipeline run.
type RunOptions struct {
	// Channel names the creator whose export is processed; it keys the
	// persisted store.
	Channel string
	// Records is the parsed, deduplicated input batch (view-sorted).
	Records []domain.VideoRecord
	// Malformed is the count of input items dropped during parsing.
	Malformed int
	// Count limits processing to the top N records (0 = all).
	Count int
	// Generation is the converter configuration; zero-value fields fall
	// back to defaults or, with AutoParams, to the suggestion service.
	Generation domain.GenerationConfig
	// AutoParams asks the suggestion service for language/max-char. The
	// service being absent or failing never blocks the run.
	AutoParams bool
	// Concurrency overrides the acquisition window size (0 = default).
	Concurrency int
	// OnPhase, when set, receives coarse progress updates.
	OnPhase func(phase string)
}

// RunResult is what one pipeline run produced.
type RunResult struct {
	Summary    domain.RunSummary
	Generation domain.GenerationConfig
	CSVPath    string
	JSONLPath  string
	// TotalPersisted is the size of the channel's logical store after the
	// run: prior rows plus newly acquired ones, duplicate-free by id.
	TotalPersisted int
	NothingToDo    bool
}

// Pipeline wires the full flow: dedup planning, parallel acquisition,
// merge, tabular persistence and training-data conversion.
type Pipeline struct {
	client     ports.TranscriptClient
	aggregator *Aggregator
	records    ports.RecordStore
	examples   ports.ExampleStore
	suggest    ports.SuggestionClient // nil when the service is absent
	log        *logrus.Logger
}

// NewPipeline creates a pipeline. suggest may be nil.
func NewPipeline(
	client ports.TranscriptClient,
	records ports.RecordStore,
	examples ports.ExampleStore,
	suggest ports.SuggestionClient,
	log *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		client:     client,
		aggregator: NewAggregator(log),
		records:    records,
		examples:   examples,
		suggest:    suggest,
		log:        log,
	}
}

// Run executes one complete pass for a channel. When every input video
// already has a persisted outcome it returns early with NothingToDo set
// instead of producing empty output files.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Channel == "" {
		return nil, fmt.Errorf("channel name is required")
	}
	phase := opts.OnPhase
	if phase == nil {
		phase = func(string) {}
	}

	input := opts.Records
	if opts.Count > 0 && opts.Count < len(input) {
		input = input[:opts.Count]
	}

	result := &RunResult{Generation: opts.Generation}
	result.Summary.Malformed = opts.Malformed

	phase("Loading prior outputs")
	prior, err := p.records.LoadChannel(ctx, opts.Channel)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior outputs: %w", err)
	}

	plan := p.aggregator.PlanWork(input, prior)
	result.Summary.AlreadyDone = len(plan.AlreadyDone)

	if plan.NothingToDo() {
		p.log.WithField("channel", opts.Channel).Info("every video already processed, skipping run")
		result.NothingToDo = true
		result.TotalPersisted = len(prior)
		return result, nil
	}

	phase(fmt.Sprintf("Acquiring transcripts for %d videos", len(plan.ToProcess)))
	orchestrator := NewOrchestrator(p.client, opts.Concurrency, p.log)
	outcomes := orchestrator.Run(ctx, plan.ToProcess)
	for _, outcome := range outcomes {
		switch outcome.Status {
		case domain.JobCompleted:
			result.Summary.Succeeded++
		case domain.JobTimedOut:
			result.Summary.TimedOut++
		default:
			result.Summary.Failed++
		}
	}

	acquired := p.aggregator.ApplyOutcomes(plan.ToProcess, outcomes)
	result.TotalPersisted = len(p.aggregator.Merge(prior, acquired))

	phase("Writing tabular output")
	csvPath, err := p.records.WriteRun(ctx, opts.Channel, acquired)
	if err != nil {
		return nil, fmt.Errorf("failed to persist records: %w", err)
	}
	result.CSVPath = csvPath

	result.Generation = p.resolveGeneration(ctx, opts, acquired, phase)

	phase("Generating training data")
	converted := withTranscripts(acquired)
	if len(converted) == 0 {
		p.log.Warn("no transcripts acquired, skipping training data")
		return result, nil
	}

	converter := NewConverter(result.Generation)
	examples, err := converter.Convert(converted)
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
	jsonlPath, err := p.examples.WriteExamples(ctx, stem, examples)
	if err != nil {
		return nil, fmt.Errorf("failed to persist training data: %w", err)
	}
	result.JSONLPath = jsonlPath

	return result, nil
}

// resolveGeneration fills in generation parameters, consulting the
// suggestion service in auto mode. Defaults always win over a missing or
// failing service.
func (p *Pipeline) resolveGeneration(ctx context.Context, opts RunOptions, acquired []domain.VideoRecord, phase func(string)) domain.GenerationConfig {
	cfg := opts.Generation
	if opts.AutoParams && p.suggest != nil {
		phase("Analyzing transcripts for parameters")
		sample := sampleTranscripts(acquired, suggestionSampleSize)
		if suggestion, err := p.suggest.Suggest(ctx, sample); err != nil {
			p.log.WithError(err).Warn("parameter suggestion unavailable, using defaults")
		} else {
			cfg.Language = suggestion.Language
			cfg.MaxChar = suggestion.MaxChar
		}
	}
	if cfg.Language == "" {
		cfg.Language = domain.DefaultLanguage
	}
	if cfg.MaxChar <= 0 {
		cfg.MaxChar = domain.DefaultMaxChar
	}
	return cfg
}

// withTranscripts filters to records that actually carry text. The
// converter would accept empty transcripts; the pipeline chooses not to
// train on them.
func withTranscripts(records []domain.VideoRecord) []domain.VideoRecord {
	out := make([]domain.VideoRecord, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Transcript) != "" {
			out = append(out, r)
		}
	}
	return out
}

func sampleTranscripts(records []domain.VideoRecord, limit int) []string {
	var sample []string
	for _, r := range records {
		if len(sample) >= limit {
			break
		}
		if text := strings.TrimSpace(r.Transcript); text != "" {
			sample = append(sample, text)
		}
	}
	return sample
}
