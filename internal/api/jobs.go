package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"brandvoice/internal/adapters/tiktok"
	"brandvoice/internal/core/domain"
)

// Job tracks one background pipeline run for progress polling.
type Job struct {
	JobID         string             `json:"jobId"`
	CreatorName   string             `json:"creatorName"`
	Status        string             `json:"status"`
	Progress      int                `json:"progress"`
	CurrentPhase  string             `json:"currentPhase"`
	Summary       *domain.RunSummary `json:"summary,omitempty"`
	CSVFilename   string             `json:"csvFilename,omitempty"`
	JSONLFilename string             `json:"jsonlFilename,omitempty"`
	Error         string             `json:"error,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
}

// jobStore keeps jobs in memory. Jobs live for the process lifetime; a
// restart forgets them, the output files on disk do not.
type jobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

func (s *jobStore) create(creator string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := &Job{
		JobID:        uuid.New().String(),
		CreatorName:  creator,
		Status:       "processing",
		CurrentPhase: "Initializing",
		CreatedAt:    time.Now(),
	}
	s.jobs[job.JobID] = job
	return job
}

// update mutates a job under the store lock.
func (s *jobStore) update(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

// get returns a copy so callers can serialize it without holding the lock.
func (s *jobStore) get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// upload is a parsed export waiting to be processed.
type upload struct {
	FileID   string
	Filename string
	Channel  string
	Report   *tiktok.ParseReport
}

type uploadStore struct {
	mu      sync.Mutex
	uploads map[string]*upload
}

func newUploadStore() *uploadStore {
	return &uploadStore{uploads: make(map[string]*upload)}
}

func (s *uploadStore) put(u *upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[u.FileID] = u
}

// byFilename returns the most recent upload with the given original
// filename. Process requests reference uploads by name, not ID.
func (s *uploadStore) byFilename(name string) (*upload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uploads {
		if u.Filename == name {
			return u, true
		}
	}
	return nil, false
}
