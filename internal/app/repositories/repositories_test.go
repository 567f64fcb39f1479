package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/sqlguide/internal/app/migrations"
	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/db/dbtest"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

func setup(t *testing.T) *Repositories {
	t.Helper()
	database := dbtest.Connect(t)
	_, err := migrations.NewMigrator(database.Pool, migrations.Files(), zerolog.Nop()).Migrate(context.Background())
	require.NoError(t, err)
	return NewRepositories(database.Pool)
}

func TestVerificationRepository_Lifecycle(t *testing.T) {
	repo := setup(t).VerificationRepository
	ctx := context.Background()

	part := 2
	run := &models.VerificationRun{FilterPart: &part, Total: 2}
	require.NoError(t, repo.CreateRun(ctx, run))
	assert.NotEqual(t, uuid.Nil, run.ID)

	msg := "1 missing row"
	require.NoError(t, repo.SaveResult(ctx, &models.VerificationResult{RunID: run.ID, ChallengeID: "2.10", GradeMode: "exact", Status: "fail", Message: &msg}))
	require.NoError(t, repo.SaveResult(ctx, &models.VerificationResult{RunID: run.ID, ChallengeID: "2.9", GradeMode: "exact", Status: "pass"}))
	require.NoError(t, repo.SaveResult(ctx, &models.VerificationResult{RunID: run.ID, ChallengeID: "2.10", GradeMode: "exact", Status: "pass"}))

	run.Status = models.RunStatusPassed
	run.Passed = 2
	require.NoError(t, repo.FinishRun(ctx, run))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPassed, got.Status)
	assert.Equal(t, 2, got.Passed)
	require.NotNil(t, got.FilterPart)
	assert.Equal(t, 2, *got.FilterPart)
	assert.True(t, got.Finished())

	results, err := repo.ResultsForRun(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2.9", results[0].ChallengeID)
	assert.Equal(t, "pass", results[1].Status)

	runs, total, err := repo.ListRuns(ctx, 1, 5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 1)
	assert.NotEmpty(t, runs)

	_, err = repo.GetRun(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrVerificationNotFound)
}

func TestSeedRepository_RecordAndLatest(t *testing.T) {
	repo := setup(t).SeedRepository
	ctx := context.Background()

	app := &models.SeedApplication{
		Checksum:   "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef",
		Statements: 120,
		DurationMs: 42,
		Completion: map[string]string{"employee_count": "37"},
		AppliedBy:  "test",
	}
	require.NoError(t, repo.Record(ctx, app))
	assert.NotZero(t, app.ID)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, app.ID, latest.ID)
	assert.Equal(t, "37", latest.Completion["employee_count"])
}
