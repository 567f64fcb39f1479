package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/app/repositories"
	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/grader"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/filestorage"
	"github.com/yigit/sqlguide/internal/pkg/helpers"
)

// Event types published on a run's topic
const (
	EventRunStarted  = "started"
	EventRunProgress = "progress"
	EventRunFinished = "finished"
)

// Publisher broadcasts run events; *websocket.Hub satisfies it.
type Publisher interface {
	Publish(eventType, topic string, payload interface{})
}

// VerificationService runs the reference solutions in the background and
// keeps a record of every run
type VerificationService interface {
	Start(ctx context.Context, part *int) (*models.VerificationRun, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.VerificationRunResponse, error)
	List(ctx context.Context, page, size int) ([]models.VerificationRun, dto.PaginationInfo, error)
	// Wait blocks until no run is in progress or ctx is done.
	Wait(ctx context.Context) error
}

// verificationServiceImpl implements VerificationService
type verificationServiceImpl struct {
	catalog *curriculum.Catalog
	grader  *grader.Grader
	repo    *repositories.VerificationRepository
	storage filestorage.FileStorage
	hub     Publisher
	logger  zerolog.Logger

	mu      sync.Mutex
	running *uuid.UUID
	// done is closed when the current run finishes.
	done chan struct{}
}

// NewVerificationService creates a new VerificationService. hub may be nil
// when nobody listens for progress.
func NewVerificationService(
	catalog *curriculum.Catalog,
	g *grader.Grader,
	repo *repositories.VerificationRepository,
	storage filestorage.FileStorage,
	hub Publisher,
	logger zerolog.Logger,
) VerificationService {
	return &verificationServiceImpl{
		catalog: catalog,
		grader:  g,
		repo:    repo,
		storage: storage,
		hub:     hub,
		logger:  logger,
	}
}

// Start records a new run and checks it in the background. Only one run may
// be in progress at a time.
func (s *verificationServiceImpl) Start(ctx context.Context, part *int) (*models.VerificationRun, error) {
	filter := curriculum.Filter{}
	if part != nil {
		if _, err := s.catalog.Part(*part); err != nil {
			return nil, err
		}
		filter.Part = *part
	}
	challenges := s.catalog.Challenges(filter)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrVerificationRunning, s.running)
	}

	run := &models.VerificationRun{
		ID:         uuid.New(),
		Status:     models.RunStatusRunning,
		FilterPart: part,
		Total:      len(challenges),
		StartedAt:  time.Now(),
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	id := run.ID
	s.running = &id
	s.done = make(chan struct{})

	s.publish(EventRunStarted, dto.ProgressEvent{Type: EventRunStarted, RunID: id.String(), Total: run.Total})

	// The run outlives the request that started it.
	go s.execute(context.WithoutCancel(ctx), *run, challenges)
	s.logger.Info().Str("runId", id.String()).Int("total", run.Total).Msg("Verification run started")
	return run, nil
}

func (s *verificationServiceImpl) execute(ctx context.Context, run models.VerificationRun, challenges []*curriculum.Challenge) {
	defer func() {
		s.mu.Lock()
		s.running = nil
		close(s.done)
		s.mu.Unlock()
	}()

	runID := run.ID.String()
	report, err := s.grader.Verify(ctx, challenges, func(done, total int, res grader.CheckResult) {
		result := &models.VerificationResult{
			RunID:       run.ID,
			ChallengeID: res.ChallengeID,
			GradeMode:   string(res.Mode),
			Status:      string(res.Status),
			Message:     helpers.NullIfEmpty(res.Message),
			DurationMs:  helpers.Millis(res.Duration),
		}
		if err := s.repo.SaveResult(ctx, result); err != nil {
			s.logger.Warn().Err(err).Str("runId", runID).Str("challengeId", res.ChallengeID).Msg("Failed to save verification result")
		}
		s.publish(EventRunProgress, dto.ProgressEvent{
			Type:        EventRunProgress,
			RunID:       runID,
			Done:        done,
			Total:       total,
			ChallengeID: res.ChallengeID,
			Status:      string(res.Status),
			Message:     res.Message,
		})
	})

	if err != nil {
		run.Status = models.RunStatusError
		run.ErrorMessage = helpers.NullIfEmpty(err.Error())
		s.logger.Error().Err(err).Str("runId", runID).Msg("Verification run aborted")
	} else {
		run.Status = models.RunStatusPassed
		if !report.OK() {
			run.Status = models.RunStatusFailed
		}
		run.Passed, run.Failed, run.Errored, run.Skipped = report.Passed, report.Failed, report.Errored, report.Skipped
		if url, err := s.saveReport(runID, report); err != nil {
			s.logger.Warn().Err(err).Str("runId", runID).Msg("Failed to write verification report")
		} else {
			run.ReportURL = &url
		}
	}

	if err := s.repo.FinishRun(ctx, &run); err != nil {
		s.logger.Error().Err(err).Str("runId", runID).Msg("Failed to finish verification run")
	}

	event := dto.ProgressEvent{Type: EventRunFinished, RunID: runID, Done: run.Total, Total: run.Total, Status: string(run.Status)}
	if run.ErrorMessage != nil {
		event.Message = *run.ErrorMessage
	} else if report != nil {
		event.Message = report.Summary()
	}
	s.publish(EventRunFinished, event)
}

// saveReport writes report.json and report.txt under the run's directory and
// returns the URL of the JSON file.
func (s *verificationServiceImpl) saveReport(runID string, report *grader.Report) (string, error) {
	var text bytes.Buffer
	if err := report.WriteText(&text, true); err != nil {
		return "", err
	}
	if _, err := s.storage.SaveFile(runID, "report.txt", &text); err != nil {
		return "", err
	}

	var data bytes.Buffer
	if err := report.WriteJSON(&data); err != nil {
		return "", err
	}
	info, err := s.storage.SaveFile(runID, "report.json", &data)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *verificationServiceImpl) publish(eventType string, event dto.ProgressEvent) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(eventType, event.RunID, event)
}

// Get returns a run with its per-challenge results
func (s *verificationServiceImpl) Get(ctx context.Context, id uuid.UUID) (*dto.VerificationRunResponse, error) {
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ResultsForRun(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.VerificationRunResponse{Run: run, Results: results}, nil
}

// List returns runs newest first
func (s *verificationServiceImpl) List(ctx context.Context, page, size int) ([]models.VerificationRun, dto.PaginationInfo, error) {
	runs, total, err := s.repo.ListRuns(ctx, page, size)
	if err != nil {
		return nil, dto.PaginationInfo{}, err
	}
	return runs, helpers.NewPaginationInfo(int64(total), page, size), nil
}

// Wait blocks until the background run, if any, has finished
func (s *verificationServiceImpl) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
