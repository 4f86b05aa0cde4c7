package ports

import (
	"context"

	"brandvoice/internal/core/domain"
)

// TranscriptClient wraps the external transcript service's three-phase
// protocol (submit, poll, fetch) into one blocking call.
type TranscriptClient interface {
	// Acquire obtains the transcript for one video. On success the result
	// carries the text and its source; an empty breakdown yields an empty
	// text with SourceNone rather than an error. Failures are
	// *domain.ServiceError or domain.ErrAcquisitionTimeout.
	// Safe for concurrent use across different videos.
	Acquire(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error)
}

// SuggestionClient proposes generation parameters from a sample of
// transcripts. The service is optional: callers must fall back to
// defaults when it is absent or failing.
type SuggestionClient interface {
	Suggest(ctx context.Context, transcripts []string) (*domain.ParameterSuggestion, error)
}

// RecordStore is the persisted tabular store of video records, keyed by
// video id and append-only across runs.
type RecordStore interface {
	// LoadChannel reads every persisted record for the channel, in the
	// order it was originally written. A channel with no output yet
	// returns an empty slice, not an error.
	LoadChannel(ctx context.Context, channel string) ([]domain.VideoRecord, error)

	// WriteRun persists the newly acquired records of one run without
	// touching rows from earlier runs. Returns the path written.
	WriteRun(ctx context.Context, channel string, records []domain.VideoRecord) (string, error)
}

// ExampleStore persists training examples, one self-contained JSON object
// per line.
type ExampleStore interface {
	WriteExamples(ctx context.Context, stem string, examples []domain.TrainingExample) (string, error)
}
