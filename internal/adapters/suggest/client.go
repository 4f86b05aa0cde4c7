package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"brandvoice/internal/core/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const suggestPrompt = `Analyze the following short-video transcripts and recommend
fine-tuning generation parameters. Respond with ONLY a JSON object:
{"language": "<dominant language>", "max_char": <recommended description length 50-300>, "reasoning": "<one sentence>"}

Transcripts:
%s`

// Client implements ports.SuggestionClient against a generative-model
// endpoint. The service is optional end to end: construction fails only
// on a missing credential and callers fall back to defaults.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	log     *logrus.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a suggestion client. The API key is required; callers
// treat a construction error as "service absent" and use defaults.
func NewClient(apiKey string, log *logrus.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   "gemini-1.5-flash",
		client:  &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type promptPart struct {
	Text string `json:"text"`
}

type promptContent struct {
	Parts []promptPart `json:"parts"`
}

type generateRequest struct {
	Contents []promptContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content promptContent `json:"content"`
	} `json:"candidates"`
}

// Suggest asks the model for generation parameters based on a sample of
// transcripts. Transient status codes are retried with exponential
// backoff; anything else fails once and lets the caller fall back.
func (c *Client) Suggest(ctx context.Context, transcripts []string) (*domain.ParameterSuggestion, error) {
	if len(transcripts) == 0 {
		return nil, fmt.Errorf("no transcripts to analyze")
	}

	var sample strings.Builder
	for i, t := range transcripts {
		fmt.Fprintf(&sample, "%d. %s\n", i+1, t)
	}

	payload := generateRequest{Contents: []promptContent{
		{Parts: []promptPart{{Text: fmt.Sprintf(suggestPrompt, sample.String())}}},
	}}
	body, _ := json.Marshal(payload)

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	operation := func() (*generateResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if isRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}

		var result generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, backoff.Permanent(err)
		}
		return &result, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second

	result, err := backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3))
	if err != nil {
		return nil, fmt.Errorf("suggestion request failed: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty suggestion response")
	}

	suggestion, err := parseSuggestion(result.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"language": suggestion.Language,
		"max_char": suggestion.MaxChar,
	}).Info("parameter suggestion received")
	return suggestion, nil
}

// parseSuggestion extracts the JSON object from the model's text, which
// may be wrapped in markdown fences.
func parseSuggestion(text string) (*domain.ParameterSuggestion, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in suggestion response")
	}

	var s domain.ParameterSuggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &s); err != nil {
		return nil, fmt.Errorf("invalid suggestion JSON: %w", err)
	}
	if s.Language == "" {
		s.Language = domain.DefaultLanguage
	}
	if s.MaxChar <= 0 {
		s.MaxChar = domain.DefaultMaxChar
	}
	return &s, nil
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
