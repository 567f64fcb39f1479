package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/helpers"
	"github.com/yigit/sqlguide/internal/pkg/logger"
)

const (
	runsTable    = "sqlguide.verification_runs"
	resultsTable = "sqlguide.verification_results"
)

var runColumns = []string{
	"id", "status", "filter_part", "total", "passed", "failed", "errored", "skipped",
	"report_url", "error_message", "started_at", "finished_at",
}

// VerificationRepository stores verification runs and their results
type VerificationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewVerificationRepository creates a new VerificationRepository
func NewVerificationRepository(db *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateRun inserts a run in the running state
func (r *VerificationRepository) CreateRun(ctx context.Context, run *models.VerificationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = models.RunStatusRunning

	sql, args, err := r.sb.Insert(runsTable).
		Columns("id", "status", "filter_part", "total", "started_at").
		Values(run.ID, run.Status, run.FilterPart, run.Total, run.StartedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create run query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("runID", run.ID.String()).Msg("Error creating verification run")
		return fmt.Errorf("failed to create verification run: %w", err)
	}
	return nil
}

// FinishRun stores the final tallies and status of a run
func (r *VerificationRepository) FinishRun(ctx context.Context, run *models.VerificationRun) error {
	now := time.Now()
	run.FinishedAt = &now

	sql, args, err := r.sb.Update(runsTable).
		Set("status", run.Status).
		Set("total", run.Total).
		Set("passed", run.Passed).
		Set("failed", run.Failed).
		Set("errored", run.Errored).
		Set("skipped", run.Skipped).
		Set("report_url", run.ReportURL).
		Set("error_message", run.ErrorMessage).
		Set("finished_at", run.FinishedAt).
		Where(squirrel.Eq{"id": run.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build finish run query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("runID", run.ID.String()).Msg("Error finishing verification run")
		return fmt.Errorf("failed to finish verification run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrVerificationNotFound
	}
	return nil
}

// SaveResult upserts the result of one challenge within a run
func (r *VerificationRepository) SaveResult(ctx context.Context, res *models.VerificationResult) error {
	sql, args, err := r.sb.Insert(resultsTable).
		Columns("run_id", "challenge_id", "grade_mode", "status", "message", "duration_ms").
		Values(res.RunID, res.ChallengeID, res.GradeMode, res.Status, res.Message, res.DurationMs).
		Suffix("ON CONFLICT (run_id, challenge_id) DO UPDATE SET status = EXCLUDED.status, message = EXCLUDED.message, duration_ms = EXCLUDED.duration_ms RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build save result query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&res.ID); err != nil {
		logger.Error().Err(err).Str("runID", res.RunID.String()).Str("challengeID", res.ChallengeID).Msg("Error saving verification result")
		return fmt.Errorf("failed to save verification result: %w", err)
	}
	return nil
}

func scanRun(row pgx.Row) (*models.VerificationRun, error) {
	var run models.VerificationRun
	err := row.Scan(
		&run.ID, &run.Status, &run.FilterPart, &run.Total, &run.Passed, &run.Failed, &run.Errored, &run.Skipped,
		&run.ReportURL, &run.ErrorMessage, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves a run by its ID
func (r *VerificationRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.VerificationRun, error) {
	sql, args, err := r.sb.Select(runColumns...).
		From(runsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get run query: %w", err)
	}

	run, err := scanRun(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrVerificationNotFound
		}
		logger.Error().Err(err).Str("runID", id.String()).Msg("Error fetching verification run")
		return nil, fmt.Errorf("failed to get verification run: %w", err)
	}
	return run, nil
}

// ListRuns returns one page of runs, newest first, and the total count
func (r *VerificationRepository) ListRuns(ctx context.Context, page, pageSize int) ([]models.VerificationRun, int, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").From(runsTable).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count runs query: %w", err)
	}
	var totalItems int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalItems); err != nil {
		logger.Error().Err(err).Msg("Error counting verification runs")
		return nil, 0, fmt.Errorf("failed to count verification runs: %w", err)
	}
	if totalItems == 0 {
		return []models.VerificationRun{}, 0, nil
	}

	sql, args, err := r.sb.Select(runColumns...).
		From(runsTable).
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list runs query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing verification runs")
		return nil, 0, fmt.Errorf("failed to list verification runs: %w", err)
	}
	defer rows.Close()

	runs := make([]models.VerificationRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan verification run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating verification runs: %w", err)
	}
	return runs, totalItems, nil
}

// ResultsForRun returns the results of a run in challenge order
func (r *VerificationRepository) ResultsForRun(ctx context.Context, runID uuid.UUID) ([]models.VerificationResult, error) {
	sql, args, err := r.sb.Select("id", "run_id", "challenge_id", "grade_mode", "status", "message", "duration_ms").
		From(resultsTable).
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("split_part(challenge_id, '.', 1)::int", "split_part(challenge_id, '.', 2)::int").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build results query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("runID", runID.String()).Msg("Error fetching verification results")
		return nil, fmt.Errorf("failed to get verification results: %w", err)
	}
	defer rows.Close()

	results := []models.VerificationResult{}
	for rows.Next() {
		var res models.VerificationResult
		if err := rows.Scan(&res.ID, &res.RunID, &res.ChallengeID, &res.GradeMode, &res.Status, &res.Message, &res.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan verification result: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verification results: %w", err)
	}
	return results, nil
}
