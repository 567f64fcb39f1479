package dto

import "github.com/yigit/sqlguide/internal/app/models"

// SeedStatusResponse describes the state of company_db
type SeedStatusResponse struct {
	ScriptChecksum string                  `json:"scriptChecksum"`
	Latest         *models.SeedApplication `json:"latest,omitempty"`
	// UpToDate is set when the latest application used the bundled script.
	UpToDate bool             `json:"upToDate"`
	Counts   map[string]int64 `json:"counts"`
	Manifest map[string]int   `json:"manifest"`
	// Drift lists tables whose current count differs from the manifest.
	Drift []string `json:"drift,omitempty"`
}

// IdempotencyResponse reports two consecutive seed applications
type IdempotencyResponse struct {
	OK       bool             `json:"ok"`
	First    map[string]int64 `json:"first"`
	Second   map[string]int64 `json:"second"`
	Problems []string         `json:"problems,omitempty"`
}
