package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/logger"
)

const seedTable = "sqlguide.seed_applications"

// SeedRepository records seed applications
type SeedRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewSeedRepository creates a new SeedRepository
func NewSeedRepository(db *pgxpool.Pool) *SeedRepository {
	return &SeedRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Record stores an application and fills in its ID and timestamp
func (r *SeedRepository) Record(ctx context.Context, app *models.SeedApplication) error {
	if app.Completion == nil {
		app.Completion = map[string]string{}
	}
	if app.AppliedBy == "" {
		app.AppliedBy = "cli"
	}

	sql, args, err := r.sb.Insert(seedTable).
		Columns("checksum", "statements", "duration_ms", "completion", "applied_by").
		Values(app.Checksum, app.Statements, app.DurationMs, app.Completion, app.AppliedBy).
		Suffix("RETURNING id, applied_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build record seed query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&app.ID, &app.AppliedAt); err != nil {
		logger.Error().Err(err).Msg("Error recording seed application")
		return fmt.Errorf("failed to record seed application: %w", err)
	}
	return nil
}

// Latest returns the most recent application
func (r *SeedRepository) Latest(ctx context.Context) (*models.SeedApplication, error) {
	sql, args, err := r.sb.Select("id", "checksum", "statements", "duration_ms", "completion", "applied_by", "applied_at").
		From(seedTable).
		OrderBy("applied_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build latest seed query: %w", err)
	}

	var app models.SeedApplication
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&app.ID, &app.Checksum, &app.Statements, &app.DurationMs, &app.Completion, &app.AppliedBy, &app.AppliedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSeedNotApplied
		}
		return nil, fmt.Errorf("failed to get latest seed application: %w", err)
	}
	return &app, nil
}
