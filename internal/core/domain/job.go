package domain

import (
	"fmt"
	"time"
)

// JobState is the lifecycle stage of one acquisition job. States form a
// straight line with three terminal outcomes:
//
//	Pending -> Submitted -> Polling -> {Completed | TimedOut | Failed}
//
// TimedOut and Failed may also be entered before polling starts (a rejected
// submit, a cancelled run).
type JobState string

const (
	JobPending   JobState = "pending"
	JobSubmitted JobState = "submitted"
	JobPolling   JobState = "polling"
	JobCompleted JobState = "completed"
	JobTimedOut  JobState = "timed_out"
	JobFailed    JobState = "failed"
)

// Terminal reports whether the state ends the job.
func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobTimedOut, JobFailed:
		return true
	}
	return false
}

var jobTransitions = map[JobState][]JobState{
	JobPending:   {JobSubmitted, JobFailed},
	JobSubmitted: {JobPolling, JobTimedOut, JobFailed},
	JobPolling:   {JobCompleted, JobTimedOut, JobFailed},
}

// CanTransition reports whether moving from s to next is legal.
func (s JobState) CanTransition(next JobState) bool {
	for _, allowed := range jobTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcquisitionJob tracks the external transcript job for a single video
// during one acquisition pass. Jobs are transient: they live for the
// duration of one run and are never persisted.
type AcquisitionJob struct {
	VideoID   string
	ProjectID string
	State     JobState
	StartedAt time.Time
}

// NewAcquisitionJob creates a job in the Pending state.
func NewAcquisitionJob(videoID string) *AcquisitionJob {
	return &AcquisitionJob{
		VideoID:   videoID,
		State:     JobPending,
		StartedAt: time.Now().UTC(),
	}
}

// Advance moves the job to the next state, rejecting illegal transitions.
func (j *AcquisitionJob) Advance(next JobState) error {
	if !j.State.CanTransition(next) {
		return fmt.Errorf("illegal job transition %s -> %s for video %s", j.State, next, j.VideoID)
	}
	j.State = next
	return nil
}

// Done reports whether the job reached a terminal state.
func (j *AcquisitionJob) Done() bool {
	return j.State.Terminal()
}
