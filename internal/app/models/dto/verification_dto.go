package dto

import "github.com/yigit/sqlguide/internal/app/models"

// VerificationRunResponse is a run together with its per-challenge results
type VerificationRunResponse struct {
	Run     *models.VerificationRun     `json:"run"`
	Results []models.VerificationResult `json:"results"`
}

// ProgressEvent is pushed to websocket subscribers while a run progresses
type ProgressEvent struct {
	Type        string `json:"type" example:"progress" enums:"started,progress,finished"`
	RunID       string `json:"runId"`
	Done        int    `json:"done"`
	Total       int    `json:"total"`
	ChallengeID string `json:"challengeId,omitempty"`
	Status      string `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
}
