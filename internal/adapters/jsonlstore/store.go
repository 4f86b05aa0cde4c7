package jsonlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"brandvoice/internal/core/domain"
)

// Store implements ports.ExampleStore: one self-contained JSON object per
// line, named after the tabular file it was derived from.
type Store struct {
	TrainingDir string
	log         *logrus.Logger
}

// NewStore creates a store rooted at trainingDir.
func NewStore(trainingDir string, log *logrus.Logger) *Store {
	return &Store{TrainingDir: trainingDir, log: log}
}

// WriteExamples writes the examples to {stem}.jsonl in canonical order.
func (s *Store) WriteExamples(ctx context.Context, stem string, examples []domain.TrainingExample) (string, error) {
	if err := os.MkdirAll(s.TrainingDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create training dir: %w", err)
	}

	path := filepath.Join(s.TrainingDir, stem+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, example := range examples {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := enc.Encode(example); err != nil {
			return "", fmt.Errorf("failed to encode example: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{"file": path, "examples": len(examples)}).Info("wrote training data")
	return path, nil
}
