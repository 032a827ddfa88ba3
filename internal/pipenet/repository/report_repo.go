package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// ReportRepository persists terminal sizing reports to Postgres.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CreateOrUpdate upserts the report keyed by run ID.
func (r *ReportRepository) CreateOrUpdate(report *domain.SizingReport) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}

	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	resultsJSON, err := json.Marshal(report.Results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	violationsJSON, err := json.Marshal(report.Violations)
	if err != nil {
		return fmt.Errorf("failed to marshal violations: %w", err)
	}
	recsJSON, err := json.Marshal(report.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	warningsJSON, err := json.Marshal(report.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := `
		INSERT INTO sizing_reports (
			id, run_id, network_id, state, best_effort, iterations,
			score, compliant, summary, results, violations, recommendations,
			warnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (run_id) DO UPDATE SET
			state = EXCLUDED.state,
			best_effort = EXCLUDED.best_effort,
			iterations = EXCLUDED.iterations,
			score = EXCLUDED.score,
			compliant = EXCLUDED.compliant,
			summary = EXCLUDED.summary,
			results = EXCLUDED.results,
			violations = EXCLUDED.violations,
			recommendations = EXCLUDED.recommendations,
			warnings = EXCLUDED.warnings,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	err = r.db.QueryRow(query,
		report.ID,
		report.RunID,
		report.NetworkID,
		report.State,
		report.BestEffort,
		report.Iterations,
		report.Score,
		report.Compliant,
		summaryJSON,
		resultsJSON,
		violationsJSON,
		recsJSON,
		warningsJSON,
	).Scan(&report.CreatedAt, &report.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert sizing report: %w", err)
	}
	return nil
}

// GetByRunID loads the report for a run.
func (r *ReportRepository) GetByRunID(runID string) (*domain.SizingReport, error) {
	query := `
		SELECT id, run_id, network_id, state, best_effort, iterations,
		       score, compliant, summary, results, violations, recommendations,
		       warnings, created_at, updated_at
		FROM sizing_reports
		WHERE run_id = $1`

	var report domain.SizingReport
	var summaryJSON, resultsJSON, violationsJSON, recsJSON, warningsJSON []byte
	err := r.db.QueryRow(query, runID).Scan(
		&report.ID,
		&report.RunID,
		&report.NetworkID,
		&report.State,
		&report.BestEffort,
		&report.Iterations,
		&report.Score,
		&report.Compliant,
		&summaryJSON,
		&resultsJSON,
		&violationsJSON,
		&recsJSON,
		&warningsJSON,
		&report.CreatedAt,
		&report.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sizing report: %w", err)
	}

	if err := json.Unmarshal(summaryJSON, &report.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &report.Results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal results: %w", err)
	}
	if err := json.Unmarshal(violationsJSON, &report.Violations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal violations: %w", err)
	}
	if len(recsJSON) > 0 {
		if err := json.Unmarshal(recsJSON, &report.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
		}
	}
	if len(warningsJSON) > 0 {
		if err := json.Unmarshal(warningsJSON, &report.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
		}
	}
	return &report, nil
}

// DeleteByRunID removes the report for a run.
func (r *ReportRepository) DeleteByRunID(runID string) error {
	res, err := r.db.Exec(`DELETE FROM sizing_reports WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete sizing report: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return domain.ErrReportNotFound
	}
	return nil
}
