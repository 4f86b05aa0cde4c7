package service

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandvoice/internal/core/domain"
)

// clientFunc adapts a function to ports.TranscriptClient for tests.
type clientFunc func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error)

func (f clientFunc) Acquire(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
	return f(ctx, video)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func videos(ids ...string) []domain.VideoRecord {
	out := make([]domain.VideoRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.VideoRecord{ID: id, URL: "https://example.com/" + id})
	}
	return out
}

func TestRun_OneOutcomePerVideo(t *testing.T) {
	client := clientFunc(func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		switch video.ID {
		case "fail":
			return domain.TranscriptResult{}, &domain.ServiceError{Op: "submit", Detail: "rejected"}
		case "slow":
			return domain.TranscriptResult{}, domain.ErrAcquisitionTimeout
		}
		return domain.TranscriptResult{Text: "text for " + video.ID, Source: domain.SourceExternal}, nil
	})

	o := NewOrchestrator(client, 2, testLogger())
	outcomes := o.Run(context.Background(), videos("a", "fail", "slow", "b"))

	require.Len(t, outcomes, 4)

	byID := make(map[string]domain.VideoOutcome)
	for _, out := range outcomes {
		byID[out.VideoID] = out
	}
	assert.Equal(t, domain.JobCompleted, byID["a"].Status)
	assert.Equal(t, "text for a", byID["a"].Transcript)
	assert.Equal(t, domain.JobFailed, byID["fail"].Status)
	assert.NotEmpty(t, byID["fail"].Reason)
	assert.Equal(t, domain.JobTimedOut, byID["slow"].Status)
	assert.Equal(t, domain.JobCompleted, byID["b"].Status)
}

func TestRun_FailureDoesNotCancelSiblings(t *testing.T) {
	client := clientFunc(func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		if video.ID == "bad" {
			return domain.TranscriptResult{}, &domain.ServiceError{Op: "poll", Detail: "project stage FAILED"}
		}
		return domain.TranscriptResult{Text: "ok", Source: domain.SourceExternal}, nil
	})

	o := NewOrchestrator(client, 3, testLogger())
	outcomes := o.Run(context.Background(), videos("bad", "x", "y", "z"))

	completed := 0
	for _, out := range outcomes {
		if out.Status == domain.JobCompleted {
			completed++
		}
	}
	assert.Equal(t, 3, completed)
}

func TestRun_BoundsConcurrency(t *testing.T) {
	const window = 3

	var inFlight, peak int64
	var mu sync.Mutex
	client := clientFunc(func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		n := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return domain.TranscriptResult{Text: "t", Source: domain.SourceExternal}, nil
	})

	o := NewOrchestrator(client, window, testLogger())
	outcomes := o.Run(context.Background(), videos("1", "2", "3", "4", "5", "6", "7", "8"))

	require.Len(t, outcomes, 8)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(window))
	assert.Greater(t, peak, int64(1), "expected parallel acquisition")
}

func TestRun_CancelledContextFailsQueuedVideos(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := clientFunc(func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		t.Fatalf("client must not be called after cancellation")
		return domain.TranscriptResult{}, nil
	})

	o := NewOrchestrator(client, 2, testLogger())
	outcomes := o.Run(ctx, videos("a", "b", "c"))

	require.Len(t, outcomes, 3)
	for _, out := range outcomes {
		assert.Equal(t, domain.JobFailed, out.Status)
		assert.Equal(t, domain.SourceNone, out.Source)
	}
}

func TestRun_CancelMidRunLetsInFlightFinish(t *testing.T) {
	client := clientFunc(func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		time.Sleep(50 * time.Millisecond)
		return domain.TranscriptResult{Text: "done", Source: domain.SourceExternal}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	o := NewOrchestrator(client, 1, testLogger())
	outcomes := o.Run(ctx, videos("a", "b"))

	require.Len(t, outcomes, 2)
	byID := make(map[string]domain.VideoOutcome)
	for _, out := range outcomes {
		byID[out.VideoID] = out
	}
	// The acquisition in flight at cancel time completes; the queued one
	// is failed without being submitted.
	assert.Equal(t, domain.JobCompleted, byID["a"].Status)
	assert.Equal(t, domain.JobFailed, byID["b"].Status)
	assert.Equal(t, "run cancelled before submission", byID["b"].Reason)
}

func TestRun_EmptyInput(t *testing.T) {
	o := NewOrchestrator(clientFunc(func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		return domain.TranscriptResult{}, nil
	}), 4, testLogger())

	outcomes := o.Run(context.Background(), nil)
	assert.Empty(t, outcomes)
}
