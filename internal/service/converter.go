package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"brandvoice/internal/core/domain"
)

// Converter maps canonical records to training examples. Conversion is a
// pure function of (record, config): the same inputs always produce the
// same example, in the same order as the input slice.
type Converter struct {
	cfg    domain.GenerationConfig
	system string
}

// NewConverter builds a converter, rendering the system instruction once.
// Zero-value config fields fall back to the documented defaults.
func NewConverter(cfg domain.GenerationConfig) *Converter {
	if cfg.Language == "" {
		cfg.Language = domain.DefaultLanguage
	}
	if cfg.MaxChar <= 0 {
		cfg.MaxChar = domain.DefaultMaxChar
	}

	system := strings.ReplaceAll(systemMessageTemplate, "{{language}}", cfg.Language)
	system = strings.ReplaceAll(system, "{{max_char}}", strconv.Itoa(cfg.MaxChar))
	system = strings.ReplaceAll(system, "{{style}}", cfg.Style)

	return &Converter{cfg: cfg, system: system}
}

// SystemMessage returns the rendered system instruction.
func (c *Converter) SystemMessage() string {
	return c.system
}

type userPayload struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	MaxChar  int    `json:"max_char"`
}

type modelPayload struct {
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// Convert maps every record to one training example, in input order.
// Records without a transcript still convert (with an empty text field);
// filtering them is the caller's choice. A structurally invalid record
// aborts the whole call with a *domain.RecordError naming the offender;
// skip-and-continue is the caller's policy, not the converter's.
func (c *Converter) Convert(records []domain.VideoRecord) ([]domain.TrainingExample, error) {
	examples := make([]domain.TrainingExample, 0, len(records))
	for _, record := range records {
		example, err := c.convertOne(record)
		if err != nil {
			return nil, err
		}
		examples = append(examples, example)
	}
	return examples, nil
}

func (c *Converter) convertOne(record domain.VideoRecord) (domain.TrainingExample, error) {
	if err := record.Validate(); err != nil {
		return domain.TrainingExample{}, err
	}

	user, err := json.Marshal(userPayload{
		Language: c.cfg.Language,
		Text:     strings.TrimSpace(record.Transcript),
		MaxChar:  c.cfg.MaxChar,
	})
	if err != nil {
		return domain.TrainingExample{}, fmt.Errorf("failed to encode request payload for %s: %w", record.ID, err)
	}

	hashtags := record.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	model, err := json.Marshal(modelPayload{
		Description: Truncate(strings.TrimSpace(record.Caption), c.cfg.MaxChar),
		Hashtags:    hashtags,
	})
	if err != nil {
		return domain.TrainingExample{}, fmt.Errorf("failed to encode response payload for %s: %w", record.ID, err)
	}

	return domain.TrainingExample{
		Contents: []domain.Message{
			{Role: "user", Parts: []domain.MessagePart{{Text: string(user)}}},
			{Role: "model", Parts: []domain.MessagePart{{Text: string(model)}}},
		},
		SystemInstruction: domain.Message{
			Role:  "system",
			Parts: []domain.MessagePart{{Text: c.system}},
		},
	}, nil
}

// Truncate cuts s to exactly max characters. No word-boundary snapping:
// the rule is deliberately simple and reproducible.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
