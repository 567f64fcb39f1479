package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a verification run
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
	RunStatusError   RunStatus = "error"
)

// VerificationRun is one pass of the reference solutions over the catalog
type VerificationRun struct {
	ID           uuid.UUID  `json:"id"`
	Status       RunStatus  `json:"status"`
	FilterPart   *int       `json:"filterPart,omitempty"`
	Total        int        `json:"total"`
	Passed       int        `json:"passed"`
	Failed       int        `json:"failed"`
	Errored      int        `json:"errored"`
	Skipped      int        `json:"skipped"`
	ReportURL    *string    `json:"reportUrl,omitempty"`
	ErrorMessage *string    `json:"errorMessage,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

// Finished reports whether the run has left the running state
func (r *VerificationRun) Finished() bool {
	return r.Status != RunStatusRunning
}

// VerificationResult is the outcome for a single challenge within a run
type VerificationResult struct {
	ID          int64     `json:"id"`
	RunID       uuid.UUID `json:"runId"`
	ChallengeID string    `json:"challengeId"`
	GradeMode   string    `json:"gradeMode"`
	Status      string    `json:"status"`
	Message     *string   `json:"message,omitempty"`
	DurationMs  int64     `json:"durationMs"`
}
