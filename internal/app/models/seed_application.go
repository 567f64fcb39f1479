package models

import "time"

// SeedApplication records one run of the company_db seed script
type SeedApplication struct {
	ID         int64             `json:"id"`
	Checksum   string            `json:"checksum"`
	Statements int               `json:"statements"`
	DurationMs int64             `json:"durationMs"`
	Completion map[string]string `json:"completion"`
	AppliedBy  string            `json:"appliedBy"`
	AppliedAt  time.Time         `json:"appliedAt"`
}
