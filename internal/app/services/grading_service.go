package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/grader"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

// GradingService runs SQL against company_db on behalf of API callers
type GradingService interface {
	Check(ctx context.Context, id string) (*dto.CheckResponse, error)
	Attempt(ctx context.Context, id string, req *dto.AttemptRequest) (*dto.AttemptResponse, error)
}

// gradingServiceImpl implements GradingService
type gradingServiceImpl struct {
	catalog      *curriculum.Catalog
	grader       *grader.Grader
	maxSQLLength int
	logger       zerolog.Logger
}

// NewGradingService creates a new GradingService. SQL longer than
// maxSQLLength characters is refused before it reaches the database.
func NewGradingService(catalog *curriculum.Catalog, g *grader.Grader, maxSQLLength int, logger zerolog.Logger) GradingService {
	return &gradingServiceImpl{
		catalog:      catalog,
		grader:       g,
		maxSQLLength: maxSQLLength,
		logger:       logger,
	}
}

// Check runs the challenge's reference solution against its documented output
func (s *gradingServiceImpl) Check(ctx context.Context, id string) (*dto.CheckResponse, error) {
	ch, err := s.catalog.Challenge(id)
	if err != nil {
		return nil, err
	}

	res, err := s.grader.Check(ctx, ch)
	if err != nil {
		return nil, fmt.Errorf("error checking challenge %s: %w", id, err)
	}

	resp := dto.FromCheckResult(res)
	return &resp, nil
}

// Attempt grades learner SQL against the reference solution
func (s *gradingServiceImpl) Attempt(ctx context.Context, id string, req *dto.AttemptRequest) (*dto.AttemptResponse, error) {
	if n := utf8.RuneCountInString(req.SQL); s.maxSQLLength > 0 && n > s.maxSQLLength {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("SQL is %d characters long, the limit is %d", n, s.maxSQLLength))
	}

	ch, err := s.catalog.Challenge(id)
	if err != nil {
		return nil, err
	}

	res, err := s.grader.Attempt(ctx, ch, req.SQL)
	if err != nil {
		return nil, fmt.Errorf("error grading attempt for %s: %w", id, err)
	}

	s.logger.Debug().
		Str("challengeId", id).
		Str("verdict", string(res.Verdict)).
		Dur("duration", res.Duration).
		Msg("Attempt graded")

	resp := dto.FromAttemptResult(res)
	return &resp, nil
}
