package opus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"brandvoice/internal/core/domain"
)

const defaultBaseURL = "https://api.opus.pro/api"

// Client implements ports.TranscriptClient against the OpusClip REST API.
// One Acquire call drives a single clip project through its whole
// lifecycle: submit, poll until terminal, fetch the screenplay.
type Client struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	timeout      time.Duration
	log          *logrus.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithPollInterval overrides the status poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithTimeout overrides the per-video acquisition deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a transcript client. The API key is required.
func NewClient(apiKey string, log *logrus.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPUSCLIP_API_KEY is not set")
	}
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		pollInterval: 10 * time.Second,
		timeout:      10 * time.Minute,
		log:          log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Acquire obtains the transcript for one video. Timeouts surface as
// domain.ErrAcquisitionTimeout, remote rejections and failed projects as
// *domain.ServiceError. An empty screenplay is a success with SourceNone.
func (c *Client) Acquire(ctx context.Context, video domain.VideoRecord) (domain.TranscriptResult, error) {
	job := domain.NewAcquisitionJob(video.ID)

	// The per-video deadline is independent of the run context: cancelling
	// a run stops new submissions, not acquisitions already in flight.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	projectID, err := c.submitProject(ctx, video.URL)
	if err != nil {
		_ = job.Advance(domain.JobFailed)
		return domain.TranscriptResult{}, err
	}
	job.ProjectID = projectID
	_ = job.Advance(domain.JobSubmitted)

	c.log.WithFields(logrus.Fields{
		"video_id":   video.ID,
		"project_id": projectID,
	}).Debug("transcript project submitted")

	_ = job.Advance(domain.JobPolling)
	if err := c.waitForCompletion(ctx, job); err != nil {
		return domain.TranscriptResult{}, err
	}

	result, err := c.fetchTranscript(ctx, projectID)
	if err != nil {
		_ = job.Advance(domain.JobFailed)
		return domain.TranscriptResult{}, err
	}
	_ = job.Advance(domain.JobCompleted)
	return result, nil
}

type submitRequest struct {
	VideoURL     string `json:"videoUrl"`
	CurationPref struct {
		Model string `json:"model"`
	} `json:"curationPref"`
}

// submitProject starts a clip project for the video URL. Rejections fail
// fast; there is no retry at this layer.
func (c *Client) submitProject(ctx context.Context, videoURL string) (string, error) {
	payload := submitRequest{VideoURL: videoURL}
	payload.CurationPref.Model = "ClipAnything"
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/clip-projects", bytes.NewReader(body))
	if err != nil {
		return "", &domain.ServiceError{Op: "submit", Detail: err.Error()}
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &domain.ServiceError{Op: "submit", Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &domain.ServiceError{
			Op:     "submit",
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &domain.ServiceError{Op: "submit", Detail: err.Error()}
	}
	if result.ID == "" {
		return "", &domain.ServiceError{Op: "submit", Detail: "no project id in response"}
	}
	return result.ID, nil
}

// waitForCompletion polls the project at a fixed interval until it reaches
// a terminal stage or the per-video deadline elapses. Transient poll
// errors are logged and polling continues; the deadline is the only thing
// that stops a stuck project.
func (c *Client) waitForCompletion(ctx context.Context, job *domain.AcquisitionJob) error {
	for {
		select {
		case <-ctx.Done():
			_ = job.Advance(domain.JobTimedOut)
			return domain.ErrAcquisitionTimeout
		case <-time.After(c.pollInterval):
		}

		stage, err := c.projectStage(ctx, job.ProjectID)
		if err != nil {
			if ctx.Err() != nil {
				_ = job.Advance(domain.JobTimedOut)
				return domain.ErrAcquisitionTimeout
			}
			c.log.WithError(err).WithField("project_id", job.ProjectID).
				Warn("poll failed, will retry at next interval")
			continue
		}

		switch stage {
		case "COMPLETE":
			return nil
		case "FAILED", "ERROR", "STALLED":
			_ = job.Advance(domain.JobFailed)
			return &domain.ServiceError{Op: "poll", Detail: "project stage " + stage}
		}
		// Still processing.
	}
}

func (c *Client) projectStage(ctx context.Context, projectID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/clip-projects/"+projectID, nil)
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	var status struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return "", err
	}
	return status.Stage, nil
}

// fetchTranscript loads the project's exportable clips and extracts the
// spoken content of the first one. A project with no clips or an empty
// screenplay yields an empty transcript with SourceNone, not an error.
func (c *Client) fetchTranscript(ctx context.Context, projectID string) (domain.TranscriptResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/exportable-clips?projectId="+projectID, nil)
	if err != nil {
		return domain.TranscriptResult{}, &domain.ServiceError{Op: "fetch", Detail: err.Error()}
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.TranscriptResult{}, &domain.ServiceError{Op: "fetch", Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return domain.TranscriptResult{}, &domain.ServiceError{
			Op:     "fetch",
			Detail: fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var result struct {
		Data []struct {
			ID         string     `json:"id"`
			Screenplay Screenplay `json:"screenplay"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.TranscriptResult{}, &domain.ServiceError{Op: "fetch", Detail: err.Error()}
	}

	if len(result.Data) == 0 {
		return domain.TranscriptResult{Source: domain.SourceNone}, nil
	}

	text := VerbalTranscript(result.Data[0].Screenplay.Chapters)
	if text == "" {
		return domain.TranscriptResult{Source: domain.SourceNone}, nil
	}
	return domain.TranscriptResult{Text: text, Source: domain.SourceExternal}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}
