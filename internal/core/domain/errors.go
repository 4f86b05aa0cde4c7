package domain

import (
	"errors"
	"fmt"
)

// ErrAcquisitionTimeout marks an acquisition that exceeded its per-video
// deadline. This is an expected outcome under load, not a defect; the
// orchestrator records it and moves on.
var ErrAcquisitionTimeout = errors.New("acquisition timed out")

// ServiceError is a transient remote failure (submit, poll or fetch) not
// caused by a timeout. It is terminal for the affected video only.
type ServiceError struct {
	Op     string // "submit", "poll" or "fetch"
	Detail string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("transcript service %s failed: %s", e.Op, e.Detail)
}

// RecordError marks a structurally invalid record reaching the converter.
// It names the offending video so the caller can decide skip-and-continue.
type RecordError struct {
	VideoID string
	Reason  string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("invalid record %s: %s", e.VideoID, e.Reason)
}
