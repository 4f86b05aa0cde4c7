package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"brandvoice/internal/adapters/tiktok"
	"brandvoice/internal/core/domain"
	"brandvoice/internal/service"
)

const (
	csvPreviewRows    = 10
	jsonlPreviewRows  = 5
	recentCreatorsMax = 10
)

func (s *Server) handleRoot(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "BrandVoice API is running"})
}

// handleUpload accepts a channel-export JSON file, parses it and reports
// how many of its videos already have persisted outcomes.
func (s *Server) handleUpload(c fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing file field")
	}

	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	report, err := tiktok.ParseExport(data)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fileID := uuid.New().String()
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}
	stored := filepath.Join(s.cfg.UploadDir, fileID+"_"+filepath.Base(fh.Filename))
	if err := os.WriteFile(stored, data, 0o644); err != nil {
		return fmt.Errorf("failed to store upload: %w", err)
	}

	channel := tiktok.ChannelFromPath(fh.Filename)
	prior, err := s.records.LoadChannel(c.Context(), channel)
	if err != nil {
		return fmt.Errorf("failed to load prior outputs: %w", err)
	}
	done := make(map[string]bool, len(prior))
	for _, r := range prior {
		done[r.ID] = true
	}
	existing := 0
	for _, r := range report.Records {
		if done[r.ID] {
			existing++
		}
	}

	s.uploads.put(&upload{
		FileID:   fileID,
		Filename: fh.Filename,
		Channel:  channel,
		Report:   report,
	})

	s.log.WithFields(logrus.Fields{
		"filename": fh.Filename,
		"total":    report.Total,
		"existing": existing,
	}).Info("export uploaded")

	return c.JSON(fiber.Map{
		"fileId":          fileID,
		"filename":        fh.Filename,
		"totalVideos":     len(report.Records),
		"existingVideos":  existing,
		"newVideos":       len(report.Records) - existing,
		"malformedVideos": report.Malformed,
	})
}

type processRequest struct {
	Filename        string `json:"filename" validate:"required"`
	VideosToProcess int    `json:"videosToProcess" validate:"min=0"`
	BatchSize       int    `json:"batchSize" validate:"min=0,max=50"`
	ParameterMode   string `json:"parameterMode" validate:"omitempty,oneof=auto manual"`
	Language        string `json:"language"`
	MaxChar         int    `json:"maxChar" validate:"min=0"`
	Style           string `json:"style"`
}

// handleProcess starts a pipeline run in the background and returns a
// job id for progress polling.
func (s *Server) handleProcess(c fiber.Ctx) error {
	var req processRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	up, ok := s.uploads.byFilename(req.Filename)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "file not found, upload it first")
	}

	job := s.jobs.create(up.Channel)
	opts := service.RunOptions{
		Channel:     up.Channel,
		Records:     up.Report.Records,
		Malformed:   up.Report.Malformed,
		Count:       req.VideosToProcess,
		Concurrency: req.BatchSize,
		AutoParams:  req.ParameterMode != "manual",
		Generation: domain.GenerationConfig{
			Language: req.Language,
			MaxChar:  req.MaxChar,
			Style:    req.Style,
		},
	}
	go s.runJob(job.JobID, opts)

	return c.JSON(fiber.Map{
		"job_id":       job.JobID,
		"creator_name": up.Channel,
		"status":       "processing",
	})
}

// runJob executes one pipeline run, mirroring its progress into the job
// store. It owns its own context: a client disconnect must not cancel a
// run that is already burning transcript-service quota.
func (s *Server) runJob(jobID string, opts service.RunOptions) {
	opts.OnPhase = func(phase string) {
		s.jobs.update(jobID, func(j *Job) {
			j.CurrentPhase = phase
			if j.Progress < 90 {
				j.Progress += 15
			}
		})
	}

	result, err := s.pipeline.Run(context.Background(), opts)
	s.jobs.update(jobID, func(j *Job) {
		if err != nil {
			j.Status = "error"
			j.Error = err.Error()
			return
		}
		j.Status = "completed"
		j.Progress = 100
		j.CurrentPhase = "Complete"
		j.Summary = &result.Summary
		if result.NothingToDo {
			j.CurrentPhase = "Nothing to do, all videos already processed"
			return
		}
		j.CSVFilename = filepath.Base(result.CSVPath)
		if result.JSONLPath != "" {
			j.JSONLFilename = filepath.Base(result.JSONLPath)
		}
	})
	if err != nil {
		s.log.WithError(err).WithField("job_id", jobID).Error("pipeline run failed")
	}
}

func (s *Server) handleProgress(c fiber.Ctx) error {
	job, ok := s.jobs.get(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "job not found")
	}
	return c.JSON(job)
}

type creatorSummary struct {
	Name          string `json:"name"`
	VideoCount    int    `json:"videoCount"`
	CSVFilename   string `json:"csvFilename"`
	JSONLFilename string `json:"jsonlFilename,omitempty"`
}

// handleRecentCreators lists channels that have persisted output, newest
// run first.
func (s *Server) handleRecentCreators(c fiber.Ctx) error {
	paths, err := filepath.Glob(filepath.Join(s.cfg.OutputDir, "*.csv"))
	if err != nil {
		return fmt.Errorf("failed to scan output dir: %w", err)
	}
	// Run filenames embed a sortable timestamp; lexical order is
	// chronological, so walk newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))

	var creators []creatorSummary
	index := make(map[string]int)
	for _, path := range paths {
		name := channelFromRunFile(filepath.Base(path))
		if name == "" {
			continue
		}
		rows, err := countCSVRows(path)
		if err != nil {
			s.log.WithError(err).WithField("file", path).Warn("skipping unreadable output file")
			continue
		}
		if i, ok := index[name]; ok {
			creators[i].VideoCount += rows
			continue
		}
		summary := creatorSummary{
			Name:        name,
			VideoCount:  rows,
			CSVFilename: filepath.Base(path),
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".csv")
		jsonl := filepath.Join(s.cfg.TrainingDir, stem+".jsonl")
		if _, err := os.Stat(jsonl); err == nil {
			summary.JSONLFilename = filepath.Base(jsonl)
		}
		index[name] = len(creators)
		creators = append(creators, summary)
	}

	if len(creators) > recentCreatorsMax {
		creators = creators[:recentCreatorsMax]
	}
	if creators == nil {
		creators = []creatorSummary{}
	}
	return c.JSON(fiber.Map{"creators": creators})
}

func (s *Server) handleDownload(c fiber.Ctx) error {
	path, err := s.resolveOutputFile(c.Params("filename"))
	if err != nil {
		return err
	}
	return c.Download(path, filepath.Base(path))
}

// handlePreview returns the head of an output file: up to 10 CSV rows or
// 5 JSONL samples.
func (s *Server) handlePreview(c fiber.Ctx) error {
	path, err := s.resolveOutputFile(c.Params("filename"))
	if err != nil {
		return err
	}

	switch filepath.Ext(path) {
	case ".csv":
		rows, err := previewCSV(path, csvPreviewRows)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		return c.JSON(fiber.Map{
			"type":         "csv",
			"rows":         rows,
			"totalRows":    len(rows),
			"previewLimit": csvPreviewRows,
		})
	case ".jsonl":
		samples, err := previewJSONL(path, jsonlPreviewRows)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
		}
		return c.JSON(fiber.Map{
			"type":         "jsonl",
			"samples":      samples,
			"totalSamples": len(samples),
			"previewLimit": jsonlPreviewRows,
		})
	default:
		return fiber.NewError(fiber.StatusBadRequest, "unsupported file type")
	}
}

// resolveOutputFile maps a bare filename to a path inside the output or
// training directory. Anything that is not a bare filename is rejected.
func (s *Server) resolveOutputFile(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid filename")
	}
	for _, dir := range []string{s.cfg.OutputDir, s.cfg.TrainingDir} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fiber.NewError(fiber.StatusNotFound, "file not found")
}

// channelFromRunFile strips the run timestamp from a persisted filename:
// "reidhoffman_20250115_143022.csv" -> "reidhoffman". Channel names may
// themselves contain underscores, so drop the last two segments.
func channelFromRunFile(name string) string {
	stem := strings.TrimSuffix(name, ".csv")
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return ""
	}
	return strings.Join(parts[:len(parts)-2], "_")
}

func countCSVRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows := 0
	for {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		rows++
	}
	if rows > 0 {
		rows-- // header
	}
	return rows, nil
}

func previewCSV(path string, limit int) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	rows := []map[string]string{}
	for len(rows) < limit {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func previewJSONL(path string, limit int) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples := []json.RawMessage{}
	decoder := json.NewDecoder(f)
	for len(samples) < limit {
		var sample json.RawMessage
		if err := decoder.Decode(&sample); err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
