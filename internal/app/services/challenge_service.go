package services

import (
	"context"

	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/pkg/helpers"
)

// ChallengeService defines the read operations on the guide
type ChallengeService interface {
	ListParts(ctx context.Context) []dto.PartSummary
	GetPart(ctx context.Context, number int) (*dto.PartResponse, error)
	ListChallenges(ctx context.Context, filter *dto.ChallengeFilterRequest) ([]dto.ChallengeSummary, dto.PaginationInfo, error)
	GetChallenge(ctx context.Context, id string, withSolution bool) (*dto.ChallengeResponse, error)
}

// challengeServiceImpl implements ChallengeService
type challengeServiceImpl struct {
	catalog *curriculum.Catalog
}

// NewChallengeService creates a new ChallengeService
func NewChallengeService(catalog *curriculum.Catalog) ChallengeService {
	return &challengeServiceImpl{catalog: catalog}
}

// ListParts returns every part in order
func (s *challengeServiceImpl) ListParts(ctx context.Context) []dto.PartSummary {
	parts := s.catalog.Parts()
	out := make([]dto.PartSummary, 0, len(parts))
	for _, p := range parts {
		out = append(out, dto.FromPart(p).PartSummary)
	}
	return out
}

// GetPart returns a part with its challenge list
func (s *challengeServiceImpl) GetPart(ctx context.Context, number int) (*dto.PartResponse, error) {
	part, err := s.catalog.Part(number)
	if err != nil {
		return nil, err
	}
	resp := dto.FromPart(part)
	return &resp, nil
}

// ListChallenges filters the catalog and pages through the matches
func (s *challengeServiceImpl) ListChallenges(ctx context.Context, filter *dto.ChallengeFilterRequest) ([]dto.ChallengeSummary, dto.PaginationInfo, error) {
	matches := s.catalog.Challenges(curriculum.Filter{
		Part:       filter.Part,
		Difficulty: curriculum.Difficulty(filter.Difficulty),
		Mode:       curriculum.GradeMode(filter.Mode),
		Query:      filter.Query,
	})

	_, size := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	start, end := helpers.CalculateSliceIndices(filter.Page, size, len(matches))

	summaries := make([]dto.ChallengeSummary, 0, end-start)
	for _, ch := range matches[start:end] {
		summaries = append(summaries, dto.FromChallengeSummary(ch))
	}
	return summaries, helpers.NewPaginationInfo(int64(len(matches)), filter.Page, size), nil
}

// GetChallenge returns one challenge by its "<part>.<number>" ID
func (s *challengeServiceImpl) GetChallenge(ctx context.Context, id string, withSolution bool) (*dto.ChallengeResponse, error) {
	ch, err := s.catalog.Challenge(id)
	if err != nil {
		return nil, err
	}
	resp := dto.FromChallenge(ch, withSolution)
	return &resp, nil
}
