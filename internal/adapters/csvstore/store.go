package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"brandvoice/internal/core/domain"
)

var columns = []string{
	"video_id",
	"video_url",
	"transcript",
	"description",
	"hashtags",
	"view_count",
	"like_count",
	"comment_count",
	"share_count",
	"duration",
	"transcript_source",
}

// Store implements ports.RecordStore on flat CSV files. Each run writes
// one immutable {channel}_{timestamp}.csv; the logical store for a
// channel is the filename-ordered concatenation of all its files, which
// keeps the history append-only and rows from earlier runs untouched.
type Store struct {
	OutputDir string
	log       *logrus.Logger
}

// NewStore creates a store rooted at outputDir.
func NewStore(outputDir string, log *logrus.Logger) *Store {
	return &Store{OutputDir: outputDir, log: log}
}

// LoadChannel reads every persisted record for the channel in original
// write order. A channel with no prior output returns an empty slice.
func (s *Store) LoadChannel(ctx context.Context, channel string) ([]domain.VideoRecord, error) {
	pattern := filepath.Join(s.OutputDir, channel+"_*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
	}

	var records []domain.VideoRecord
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileRecords, err := readFile(file)
		if err != nil {
			s.log.WithError(err).WithField("file", file).Warn("skipping unreadable output file")
			continue
		}
		records = append(records, fileRecords...)
	}
	return records, nil
}

// WriteRun persists the newly acquired records of one run into a fresh
// timestamped file. Earlier files are never rewritten.
func (s *Store) WriteRun(ctx context.Context, channel string, records []domain.VideoRecord) (string, error) {
	if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(s.OutputDir, fmt.Sprintf("%s_%s.csv", channel, time.Now().UTC().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(toRow(r)); err != nil {
			return "", fmt.Errorf("failed to write row for %s: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush %s: %w", path, err)
	}

	s.log.WithFields(logrus.Fields{"file": path, "rows": len(records)}).Info("wrote tabular output")
	return path, nil
}

func toRow(r domain.VideoRecord) []string {
	return []string{
		r.ID,
		r.URL,
		r.Transcript,
		r.Caption,
		strings.Join(r.Hashtags, ", "),
		strconv.FormatInt(r.Stats.Views, 10),
		strconv.FormatInt(r.Stats.Likes, 10),
		strconv.FormatInt(r.Stats.Comments, 10),
		strconv.FormatInt(r.Stats.Shares, 10),
		strconv.Itoa(r.DurationSeconds),
		string(r.Source),
	}
}

func readFile(path string) ([]domain.VideoRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[name] = i
	}
	if _, ok := index["video_id"]; !ok {
		return nil, fmt.Errorf("no video_id column in %s", path)
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []domain.VideoRecord
	for _, row := range rows[1:] {
		id := strings.TrimSpace(cell(row, "video_id"))
		if id == "" {
			continue
		}
		r := domain.VideoRecord{
			ID:              id,
			URL:             cell(row, "video_url"),
			Transcript:      cell(row, "transcript"),
			Caption:         cell(row, "description"),
			Hashtags:        splitHashtags(cell(row, "hashtags")),
			DurationSeconds: atoi(cell(row, "duration")),
			Source:          domain.TranscriptSource(cell(row, "transcript_source")),
		}
		r.Stats = domain.Stats{
			Views:    atoi64(cell(row, "view_count")),
			Likes:    atoi64(cell(row, "like_count")),
			Comments: atoi64(cell(row, "comment_count")),
			Shares:   atoi64(cell(row, "share_count")),
		}
		if r.Source == "" {
			r.Source = domain.SourceNone
		}
		records = append(records, r)
	}
	return records, nil
}

func splitHashtags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func atoi64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}
