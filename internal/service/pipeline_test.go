package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandvoice/internal/adapters/csvstore"
	"brandvoice/internal/adapters/jsonlstore"
	"brandvoice/internal/core/domain"
	"brandvoice/internal/core/ports"
)

type suggestFunc func(ctx context.Context, transcripts []string) (*domain.ParameterSuggestion, error)

func (f suggestFunc) Suggest(ctx context.Context, transcripts []string) (*domain.ParameterSuggestion, error) {
	return f(ctx, transcripts)
}

// recordingClient tracks which videos were submitted.
type recordingClient struct {
	mu       sync.Mutex
	acquired []string
	fn       clientFunc
}

func (c *recordingClient) Acquire(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
	c.mu.Lock()
	c.acquired = append(c.acquired, video.ID)
	c.mu.Unlock()
	return c.fn(ctx, video)
}

func newTestPipeline(t *testing.T, client *recordingClient, suggest suggestFunc) (*Pipeline, string, string) {
	t.Helper()
	log := testLogger()
	outputDir := t.TempDir()
	trainingDir := t.TempDir()
	var suggestions ports.SuggestionClient
	if suggest != nil {
		suggestions = suggest
	}
	p := NewPipeline(
		client,
		csvstore.NewStore(outputDir, log),
		jsonlstore.NewStore(trainingDir, log),
		suggestions,
		log,
	)
	return p, outputDir, trainingDir
}

func happyClient() *recordingClient {
	return &recordingClient{fn: func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		return domain.TranscriptResult{Text: "transcript of " + video.ID, Source: domain.SourceExternal}, nil
	}}
}

func TestPipelineRun_EndToEnd(t *testing.T) {
	client := &recordingClient{fn: func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		if video.ID == "broken" {
			return domain.TranscriptResult{}, &domain.ServiceError{Op: "submit", Detail: "rejected"}
		}
		return domain.TranscriptResult{Text: "transcript of " + video.ID, Source: domain.SourceExternal}, nil
	}}
	p, outputDir, trainingDir := newTestPipeline(t, client, nil)

	var phases []string
	result, err := p.Run(context.Background(), RunOptions{
		Channel:   "creator",
		Records:   videos("a", "broken", "b"),
		Malformed: 1,
		OnPhase:   func(phase string) { phases = append(phases, phase) },
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.Succeeded)
	assert.Equal(t, 1, result.Summary.Failed)
	assert.Equal(t, 1, result.Summary.Malformed)
	assert.Equal(t, 0, result.Summary.AlreadyDone)
	assert.False(t, result.NothingToDo)
	assert.NotEmpty(t, phases)

	require.NotEmpty(t, result.CSVPath)
	assert.Equal(t, outputDir, filepath.Dir(result.CSVPath))
	require.NotEmpty(t, result.JSONLPath)
	assert.Equal(t, trainingDir, filepath.Dir(result.JSONLPath))

	// JSONL stem mirrors the CSV filename.
	csvStem := filepath.Base(result.CSVPath)
	jsonlStem := filepath.Base(result.JSONLPath)
	assert.Equal(t,
		csvStem[:len(csvStem)-len(".csv")],
		jsonlStem[:len(jsonlStem)-len(".jsonl")])

	// The failed video persists too, so it is never retried.
	loaded, err := csvstore.NewStore(outputDir, testLogger()).LoadChannel(context.Background(), "creator")
	require.NoError(t, err)
	assert.Len(t, loaded, 3)
	assert.Equal(t, 3, result.TotalPersisted)
}

func TestPipelineRun_SecondRunProcessesOnlyNewVideos(t *testing.T) {
	client := happyClient()
	p, _, _ := newTestPipeline(t, client, nil)
	ctx := context.Background()

	_, err := p.Run(ctx, RunOptions{Channel: "creator", Records: videos("a", "b")})
	require.NoError(t, err)

	client.acquired = nil
	result, err := p.Run(ctx, RunOptions{Channel: "creator", Records: videos("a", "b", "c")})
	require.NoError(t, err)

	assert.Equal(t, []string{"c"}, client.acquired)
	assert.Equal(t, 2, result.Summary.AlreadyDone)
	assert.Equal(t, 1, result.Summary.Succeeded)
	assert.Equal(t, 3, result.TotalPersisted)
}

func TestPipelineRun_NothingToDo(t *testing.T) {
	client := happyClient()
	p, outputDir, _ := newTestPipeline(t, client, nil)
	ctx := context.Background()

	_, err := p.Run(ctx, RunOptions{Channel: "creator", Records: videos("a")})
	require.NoError(t, err)
	first, err := filepath.Glob(filepath.Join(outputDir, "*.csv"))
	require.NoError(t, err)

	result, err := p.Run(ctx, RunOptions{Channel: "creator", Records: videos("a")})
	require.NoError(t, err)
	assert.True(t, result.NothingToDo)
	assert.Empty(t, result.CSVPath)
	assert.Equal(t, 1, result.TotalPersisted)

	// No empty output files from the no-op run.
	second, err := filepath.Glob(filepath.Join(outputDir, "*.csv"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPipelineRun_CountLimitsInput(t *testing.T) {
	client := happyClient()
	p, _, _ := newTestPipeline(t, client, nil)

	_, err := p.Run(context.Background(), RunOptions{
		Channel: "creator",
		Records: videos("a", "b", "c", "d"),
		Count:   2,
	})
	require.NoError(t, err)
	assert.Len(t, client.acquired, 2)
}

func TestPipelineRun_AutoParamsUsesSuggestion(t *testing.T) {
	suggest := suggestFunc(func(ctx context.Context, transcripts []string) (*domain.ParameterSuggestion, error) {
		assert.NotEmpty(t, transcripts)
		return &domain.ParameterSuggestion{Language: "German", MaxChar: 200}, nil
	})
	p, _, _ := newTestPipeline(t, happyClient(), suggest)

	result, err := p.Run(context.Background(), RunOptions{
		Channel:    "creator",
		Records:    videos("a"),
		AutoParams: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "German", result.Generation.Language)
	assert.Equal(t, 200, result.Generation.MaxChar)
}

func TestPipelineRun_SuggestionFailureFallsBackToDefaults(t *testing.T) {
	suggest := suggestFunc(func(ctx context.Context, transcripts []string) (*domain.ParameterSuggestion, error) {
		return nil, fmt.Errorf("service down")
	})
	p, _, _ := newTestPipeline(t, happyClient(), suggest)

	result, err := p.Run(context.Background(), RunOptions{
		Channel:    "creator",
		Records:    videos("a"),
		AutoParams: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultLanguage, result.Generation.Language)
	assert.Equal(t, domain.DefaultMaxChar, result.Generation.MaxChar)
}

func TestPipelineRun_RequiresChannel(t *testing.T) {
	p, _, _ := newTestPipeline(t, happyClient(), nil)

	_, err := p.Run(context.Background(), RunOptions{Records: videos("a")})
	require.Error(t, err)
}

func TestPipelineRun_NoTranscriptsSkipsTrainingData(t *testing.T) {
	client := &recordingClient{fn: func(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
		return domain.TranscriptResult{Source: domain.SourceNone}, nil
	}}
	p, _, trainingDir := newTestPipeline(t, client, nil)

	result, err := p.Run(context.Background(), RunOptions{Channel: "creator", Records: videos("a")})
	require.NoError(t, err)
	assert.NotEmpty(t, result.CSVPath)
	assert.Empty(t, result.JSONLPath)

	files, err := filepath.Glob(filepath.Join(trainingDir, "*.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
