package unit

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/repository"
)

func setupReportRepo(t *testing.T) (*repository.ReportRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := repository.NewReportRepository(db)
	return repo, mock, db
}

func TestReportRepository_CreateOrUpdate(t *testing.T) {
	repo, mock, db := setupReportRepo(t)
	defer db.Close()

	t.Run("creates new report successfully", func(t *testing.T) {
		report := &domain.SizingReport{
			RunID:      "run-123",
			NetworkID:  "net-1",
			State:      "CONVERGED",
			BestEffort: false,
			Iterations: 2,
			Score:      100,
			Compliant:  true,
			Summary: domain.SizingSummary{
				TotalPipes:   4,
				TotalCostEUR: 52000,
				ByDiameterMM: map[int]int{250: 3, 300: 1},
			},
			Results:  []domain.SizingResult{{PipeID: "p1", DiameterMM: 250}},
			Warnings: []string{"clipped 2 negative demand samples for building b1"},
		}

		mock.ExpectQuery(`INSERT INTO sizing_reports`).
			WithArgs(
				sqlmock.AnyArg(), // id (UUID)
				"run-123",
				"net-1",
				"CONVERGED",
				false,
				2,
				100.0,
				true,
				sqlmock.AnyArg(), // summary JSONB
				sqlmock.AnyArg(), // results JSONB
				sqlmock.AnyArg(), // violations JSONB
				sqlmock.AnyArg(), // recommendations JSONB
				sqlmock.AnyArg(), // warnings JSONB
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(time.Now(), time.Now()))

		err := repo.CreateOrUpdate(report)
		require.NoError(t, err)
		assert.NotEmpty(t, report.ID)
		assert.False(t, report.CreatedAt.IsZero())
		assert.False(t, report.UpdatedAt.IsZero())

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("keeps an existing id on upsert", func(t *testing.T) {
		report := &domain.SizingReport{
			ID:        "existing-uuid",
			RunID:     "run-123",
			NetworkID: "net-1",
			State:     "FAILED",
		}

		mock.ExpectQuery(`INSERT INTO sizing_reports`).
			WithArgs(
				"existing-uuid",
				"run-123",
				"net-1",
				"FAILED",
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
				sqlmock.AnyArg(),
			).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
				AddRow(time.Now(), time.Now()))

		err := repo.CreateOrUpdate(report)
		require.NoError(t, err)
		assert.Equal(t, "existing-uuid", report.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportRepository_GetByRunID(t *testing.T) {
	repo, mock, db := setupReportRepo(t)
	defer db.Close()

	t.Run("gets report successfully", func(t *testing.T) {
		summaryJSON := `{"total_pipes":4,"total_length_m":820,"total_cost_eur":52000,"by_diameter_mm":{"250":3,"300":1}}`
		resultsJSON := `[{"pipe_id":"p1","diameter_mm":250}]`
		violationsJSON := `[{"pipe_id":"p1","check":"velocity_max","severity":"LOW"}]`
		warningsJSON := `["iteration budget (4) exhausted with 1 residual violations; accepting best-effort result"]`

		mock.ExpectQuery(`SELECT id, run_id, network_id`).
			WithArgs("run-123").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "run_id", "network_id", "state", "best_effort", "iterations",
				"score", "compliant", "summary", "results", "violations",
				"recommendations", "warnings", "created_at", "updated_at",
			}).
				AddRow(
					"uuid-123",
					"run-123",
					"net-1",
					"CONVERGED",
					true,
					4,
					92.5,
					true,
					summaryJSON,
					resultsJSON,
					violationsJSON,
					nil,
					warningsJSON,
					time.Now(),
					time.Now(),
				))

		report, err := repo.GetByRunID("run-123")
		require.NoError(t, err)
		assert.Equal(t, "run-123", report.RunID)
		assert.Equal(t, "CONVERGED", report.State)
		assert.True(t, report.BestEffort)
		assert.InDelta(t, 92.5, report.Score, 1e-9)
		assert.Equal(t, 4, report.Summary.TotalPipes)
		assert.Equal(t, 3, report.Summary.ByDiameterMM[250])
		require.Len(t, report.Results, 1)
		assert.Equal(t, 250.0, report.Results[0].DiameterMM)
		require.Len(t, report.Violations, 1)
		assert.Equal(t, "velocity_max", report.Violations[0].Check)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "iteration budget")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not-found for missing report", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, run_id, network_id`).
			WithArgs("non-existent").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByRunID("non-existent")
		assert.ErrorIs(t, err, domain.ErrReportNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportRepository_DeleteByRunID(t *testing.T) {
	repo, mock, db := setupReportRepo(t)
	defer db.Close()

	t.Run("deletes existing report", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM sizing_reports`).
			WithArgs("run-123").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteByRunID("run-123"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows is not-found", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM sizing_reports`).
			WithArgs("ghost").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteByRunID("ghost")
		assert.ErrorIs(t, err, domain.ErrReportNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
