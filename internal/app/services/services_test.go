package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/sqlguide/content"
	"github.com/yigit/sqlguide/internal/app/migrations"
	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/app/repositories"
	"github.com/yigit/sqlguide/internal/curriculum"
	"github.com/yigit/sqlguide/internal/db/dbtest"
	"github.com/yigit/sqlguide/internal/grader"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/auth"
	"github.com/yigit/sqlguide/internal/pkg/filestorage"
	"github.com/yigit/sqlguide/internal/seed"
)

func loadCatalog(t *testing.T) *curriculum.Catalog {
	t.Helper()
	cat, err := curriculum.Load(content.Guide())
	require.NoError(t, err)
	return cat
}

func TestChallengeService(t *testing.T) {
	svc := NewChallengeService(loadCatalog(t))
	ctx := context.Background()

	parts := svc.ListParts(ctx)
	require.Len(t, parts, 6)
	assert.Equal(t, 1, parts[0].Number)
	assert.Equal(t, 14, parts[1].Challenges)

	part, err := svc.GetPart(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "Window Functions", part.Title)
	assert.Len(t, part.Challenges, part.PartSummary.Challenges)

	_, err = svc.GetPart(ctx, 9)
	assert.ErrorIs(t, err, apperrors.ErrPartNotFound)

	page, info, err := svc.ListChallenges(ctx, &dto.ChallengeFilterRequest{Page: 2, Size: 10})
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, "1.11", page[0].ID)
	assert.Equal(t, int64(curriculum.ExpectedTotal), info.TotalItems)
	assert.Equal(t, 8, info.TotalPages)

	beyond, _, err := svc.ListChallenges(ctx, &dto.ChallengeFilterRequest{Page: 50, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	ch, err := svc.GetChallenge(ctx, "1.9", false)
	require.NoError(t, err)
	assert.Equal(t, "Count Employees", ch.Title)
	assert.Empty(t, ch.Solution)

	withSolution, err := svc.GetChallenge(ctx, "1.9", true)
	require.NoError(t, err)
	assert.Contains(t, strings.ToUpper(withSolution.Solution), "COUNT")

	_, err = svc.GetChallenge(ctx, "x", false)
	assert.ErrorIs(t, err, apperrors.ErrInvalidChallengeID)
}

func TestGradingService_RejectsLongSQL(t *testing.T) {
	svc := NewGradingService(loadCatalog(t), grader.New(nil, grader.Options{}, zerolog.Nop()), 10, zerolog.Nop())

	_, err := svc.Attempt(context.Background(), "1.9", &dto.AttemptRequest{SQL: "SELECT COUNT(*) FROM employees"})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "k", AccessTokenExp: time.Hour, TokenIssuer: "sqlguide"})
	svc := NewAuthService("admin", string(hash), jwtService, zerolog.Nop())
	ctx := context.Background()

	token, err := svc.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	claims, err := jwtService.ValidateAndExtractClaims(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleAdmin), claims.RoleType)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "root", Password: "s3cret"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSeedAndVerificationServices(t *testing.T) {
	database := dbtest.Connect(t)
	ctx := context.Background()
	_, err := migrations.NewMigrator(database.Pool, migrations.Files(), zerolog.Nop()).Migrate(ctx)
	require.NoError(t, err)
	repos := repositories.NewRepositories(database.Pool)
	cat := loadCatalog(t)

	g := grader.New(database.Pool, grader.Options{StatementTimeout: 10 * time.Second, Parallelism: 4}, zerolog.Nop())
	seeder := seed.NewSeeder(database, database.Pool, content.SeedScript, zerolog.Nop())
	seedSvc := NewSeedService(seeder, repos.SeedRepository, g.Gate(), nil, zerolog.Nop())

	app, err := seedSvc.Apply(ctx, "test")
	require.NoError(t, err)
	assert.Equal(t, seeder.Checksum(), app.Checksum)

	status, err := seedSvc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.UpToDate)
	assert.Empty(t, status.Drift)
	assert.Equal(t, int64(37), status.Counts["employees"])

	storage, err := filestorage.NewLocalStorage(t.TempDir(), "/reports")
	require.NoError(t, err)
	events := &recordingPublisher{}
	verifySvc := NewVerificationService(cat, g, repos.VerificationRepository, storage, events, zerolog.Nop())

	part := 1
	run, err := verifySvc.Start(ctx, &part)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, run.Status)

	waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	require.NoError(t, verifySvc.Wait(waitCtx))

	got, err := verifySvc.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusPassed, got.Run.Status)
	assert.Len(t, got.Results, got.Run.Total)
	require.NotNil(t, got.Run.ReportURL)
	assert.FileExists(t, storage.GetFullPath(*got.Run.ReportURL))

	types := events.types()
	require.NotEmpty(t, types)
	assert.Equal(t, EventRunStarted, types[0])
	assert.Equal(t, EventRunFinished, types[len(types)-1])
	assert.Len(t, types, got.Run.Total+2)

	nine := 9
	_, err = verifySvc.Start(ctx, &nine)
	assert.ErrorIs(t, err, apperrors.ErrPartNotFound)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType, _ string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
