package domain

import "time"

// SizingReport is the persisted terminal artifact of a reconciliation run.
// It is written only when the loop reaches CONVERGED or exhausts its
// iteration budget, never mid-iteration.
type SizingReport struct {
	ID              string            `json:"id"`
	RunID           string            `json:"run_id"`
	NetworkID       string            `json:"network_id"`
	State           string            `json:"state"`
	BestEffort      bool              `json:"best_effort"`
	Iterations      int               `json:"iterations"`
	Score           float64           `json:"score"`
	Compliant       bool              `json:"compliant"`
	Summary         SizingSummary     `json:"summary"`
	Results         []SizingResult    `json:"results"`
	Violations      []Violation       `json:"violations"`
	Recommendations []string          `json:"recommendations,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
