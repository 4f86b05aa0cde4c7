package service

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"brandvoice/internal/core/domain"
	"brandvoice/internal/core/ports"
)

// DefaultConcurrency is the acquisition window size when none is given.
const DefaultConcurrency = 10

// Orchestrator runs transcript acquisition for many videos over a bounded
// worker pool. The window slides: a new acquisition starts the moment any
// one finishes, keeping exactly N in flight until the queue drains.
type Orchestrator struct {
	client      ports.TranscriptClient
	concurrency int
	log         *logrus.Logger
}

// NewOrchestrator creates an orchestrator with the given window size.
func NewOrchestrator(client ports.TranscriptClient, concurrency int, log *logrus.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{client: client, concurrency: concurrency, log: log}
}

// Run acquires transcripts for every video and returns exactly one
// outcome per input, in completion order. A single video's failure or
// timeout never delays or cancels its siblings; the call returns only
// when all videos have reached a terminal outcome. Cancelling ctx stops
// new submissions cooperatively: queued videos surface as failed outcomes
// and in-flight acquisitions run to their own deadline.
func (o *Orchestrator) Run(ctx context.Context, videos []domain.VideoRecord) []domain.VideoOutcome {
	queue := make(chan domain.VideoRecord)
	results := make(chan domain.VideoOutcome)

	workers := o.concurrency
	if len(videos) < workers {
		workers = len(videos)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for video := range queue {
				results <- o.acquireOne(ctx, video)
			}
		}()
	}

	go func() {
		for _, video := range videos {
			queue <- video
		}
		close(queue)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]domain.VideoOutcome, 0, len(videos))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// acquireOne maps one acquisition attempt to its terminal outcome.
// Service errors and timeouts become typed outcomes here; they never
// propagate as errors across the orchestrator boundary.
func (o *Orchestrator) acquireOne(ctx context.Context, video domain.VideoRecord) domain.VideoOutcome {
	if ctx.Err() != nil {
		return domain.VideoOutcome{
			VideoID: video.ID,
			Status:  domain.JobFailed,
			Source:  domain.SourceNone,
			Reason:  "run cancelled before submission",
		}
	}

	result, err := o.client.Acquire(ctx, video)
	switch {
	case errors.Is(err, domain.ErrAcquisitionTimeout):
		o.log.WithField("video_id", video.ID).Warn("acquisition timed out")
		return domain.VideoOutcome{
			VideoID: video.ID,
			Status:  domain.JobTimedOut,
			Source:  domain.SourceNone,
			Reason:  err.Error(),
		}
	case err != nil:
		o.log.WithError(err).WithField("video_id", video.ID).Warn("acquisition failed")
		return domain.VideoOutcome{
			VideoID: video.ID,
			Status:  domain.JobFailed,
			Source:  domain.SourceNone,
			Reason:  err.Error(),
		}
	}

	o.log.WithFields(logrus.Fields{
		"video_id": video.ID,
		"chars":    len(result.Text),
		"source":   result.Source,
	}).Info("transcript acquired")
	return domain.VideoOutcome{
		VideoID:    video.ID,
		Status:     domain.JobCompleted,
		Transcript: result.Text,
		Source:     result.Source,
	}
}
