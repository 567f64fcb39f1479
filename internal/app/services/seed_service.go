package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/app/repositories"
	"github.com/yigit/sqlguide/internal/grader"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/helpers"
	"github.com/yigit/sqlguide/internal/pkg/metrics"
	"github.com/yigit/sqlguide/internal/seed"
)

// SeedService loads company_db and reports on its state
type SeedService interface {
	Apply(ctx context.Context, appliedBy string) (*models.SeedApplication, error)
	Status(ctx context.Context) (*dto.SeedStatusResponse, error)
	CheckIdempotency(ctx context.Context) (*dto.IdempotencyResponse, error)
}

// seedServiceImpl implements SeedService
type seedServiceImpl struct {
	seeder   *seed.Seeder
	seedRepo *repositories.SeedRepository
	gate     *grader.Gate
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewSeedService creates a new SeedService. The gate is the grader's, so no
// sandbox runs while the script rebuilds the tables.
func NewSeedService(
	seeder *seed.Seeder,
	seedRepo *repositories.SeedRepository,
	gate *grader.Gate,
	m *metrics.Metrics,
	logger zerolog.Logger,
) SeedService {
	return &seedServiceImpl{
		seeder:   seeder,
		seedRepo: seedRepo,
		gate:     gate,
		metrics:  m,
		logger:   logger,
	}
}

// Apply runs the seed script and records the application. A completion row
// that disagrees with the script is recorded and then reported as an error.
func (s *seedServiceImpl) Apply(ctx context.Context, appliedBy string) (*models.SeedApplication, error) {
	release := s.gate.Exclusive()
	report, err := s.seeder.Apply(ctx)
	release()
	if err == nil {
		err = seed.CheckCompletion(report, s.seeder.Manifest())
	}
	s.metrics.ObserveSeed(err)
	if report == nil {
		return nil, fmt.Errorf("error applying seed: %w", err)
	}

	app := &models.SeedApplication{
		Checksum:   report.Checksum,
		Statements: report.Statements,
		DurationMs: helpers.Millis(report.Duration),
		Completion: report.Completion,
		AppliedBy:  appliedBy,
	}
	if recErr := s.seedRepo.Record(ctx, app); recErr != nil {
		return nil, recErr
	}

	if err != nil {
		s.logger.Warn().Err(err).Msg("Seed completion row does not match the script")
		return app, err
	}

	s.logger.Info().Str("appliedBy", appliedBy).Int64("applicationId", app.ID).Msg("Seed application recorded")
	return app, nil
}

// Status compares current row counts with what the script inserts
func (s *seedServiceImpl) Status(ctx context.Context) (*dto.SeedStatusResponse, error) {
	latest, err := s.seedRepo.Latest(ctx)
	if err != nil && !errors.Is(err, apperrors.ErrSeedNotApplied) {
		return nil, err
	}

	checksum := s.seeder.Checksum()
	manifest := s.seeder.Manifest()

	counts, err := s.seeder.Counts(ctx)
	if err != nil {
		// Missing tables show up as drift.
		s.logger.Debug().Err(err).Msg("Some seed tables could not be counted")
	}

	return &dto.SeedStatusResponse{
		ScriptChecksum: checksum,
		Latest:         latest,
		UpToDate:       latest != nil && latest.Checksum == checksum,
		Counts:         counts,
		Manifest:       manifest,
		Drift:          seed.Drift(counts, s.seeder.Tables(), manifest),
	}, nil
}

// CheckIdempotency applies the script twice and compares the counts
func (s *seedServiceImpl) CheckIdempotency(ctx context.Context) (*dto.IdempotencyResponse, error) {
	release := s.gate.Exclusive()
	defer release()

	report, err := s.seeder.CheckIdempotent(ctx)
	s.metrics.ObserveSeed(err)
	if err != nil {
		return nil, fmt.Errorf("error checking seed idempotency: %w", err)
	}

	return &dto.IdempotencyResponse{
		OK:       report.OK(),
		First:    report.First,
		Second:   report.Second,
		Problems: report.Problems,
	}, nil
}
