package domain

// TranscriptSource identifies where a record's transcript came from.
type TranscriptSource string

const (
	// SourceNative marks transcripts taken from the platform's own
	// captions. Acquisition here only ever produces SourceExternal or
	// SourceNone; the value exists so persisted rows written by
	// caption-capable tooling round-trip through the store intact.
	SourceNative TranscriptSource = "tiktok_captions"
	// SourceExternal marks transcripts produced by the transcript service.
	SourceExternal TranscriptSource = "opusclip"
	// SourceNone marks records for which no transcript could be obtained.
	SourceNone TranscriptSource = "none"
)

// Stats holds the engagement counters of one video. All counts are
// non-negative; unknown counters stay zero.
type Stats struct {
	Views    int64 `json:"view_count"`
	Likes    int64 `json:"like_count"`
	Comments int64 `json:"comment_count"`
	Shares   int64 `json:"share_count"`
}

// VideoRecord is the canonical representation of one video. ID is the
// stable identity key used for deduplication and never changes after
// creation. Transcript and Source are the only fields mutated after
// acquisition; a record with Source == SourceNone carries an empty
// transcript.
type VideoRecord struct {
	ID              string           `json:"video_id"`
	URL             string           `json:"video_url"`
	Caption         string           `json:"description"`
	Hashtags        []string         `json:"hashtags"`
	Stats           Stats            `json:"stats"`
	DurationSeconds int              `json:"duration"`
	Transcript      string           `json:"transcript"`
	Source          TranscriptSource `json:"transcript_source"`
}

// SetTranscript applies an acquisition result to the record, keeping the
// invariant that SourceNone records have no transcript text.
func (r *VideoRecord) SetTranscript(text string, source TranscriptSource) {
	if source == SourceNone {
		text = ""
	}
	r.Transcript = text
	r.Source = source
}

// Validate reports whether the record is structurally sound enough for
// conversion. Identity is the only hard requirement.
func (r *VideoRecord) Validate() error {
	if r.ID == "" {
		return &RecordError{VideoID: "(unknown)", Reason: "missing video id"}
	}
	return nil
}

// TranscriptResult is the successful outcome of one acquisition.
type TranscriptResult struct {
	Text   string
	Source TranscriptSource
}

// VideoOutcome pairs a video id with the terminal result of its
// acquisition attempt.
type VideoOutcome struct {
	VideoID    string
	Status     JobState
	Transcript string
	Source     TranscriptSource
	Reason     string
}

// RunSummary reports what a pipeline run did, per video.
type RunSummary struct {
	AlreadyDone int `json:"already_done"`
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
	TimedOut    int `json:"timed_out"`
	Malformed   int `json:"malformed"`
}
