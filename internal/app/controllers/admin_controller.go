package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/app/services"
	"github.com/yigit/sqlguide/internal/middleware"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/helpers"
)

// AdminController handles seeding and verification runs
type AdminController struct {
	seedService         services.SeedService
	verificationService services.VerificationService
	logger              zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(seedService services.SeedService, verificationService services.VerificationService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		seedService:         seedService,
		verificationService: verificationService,
		logger:              logger,
	}
}

// ApplySeed rebuilds company_db
// @Summary Apply the seed script
// @Description Drops and recreates every company_db table, then checks the completion row
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.SeedApplication} "Seed applied"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Forbidden"
// @Failure 409 {object} dto.ErrorResponse "Completion row does not match the script"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/seed [post]
func (c *AdminController) ApplySeed(ctx *gin.Context) {
	username := ctx.GetString("username")

	app, err := c.seedService.Apply(ctx.Request.Context(), username)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Str("username", username).Int64("applicationId", app.ID).Msg("Seed applied through API")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(app))
}

// GetSeedStatus reports on the state of company_db
// @Summary Seed status
// @Description Compares current row counts with the rows the seed script inserts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SeedStatusResponse} "Status retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/seed/status [get]
func (c *AdminController) GetSeedStatus(ctx *gin.Context) {
	status, err := c.seedService.Status(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(status))
}

// CheckSeedIdempotency applies the seed twice
// @Summary Check seed idempotency
// @Description Applies the seed script twice and compares the row counts of both runs
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.IdempotencyResponse} "Check finished"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/seed/idempotency [post]
func (c *AdminController) CheckSeedIdempotency(ctx *gin.Context) {
	res, err := c.seedService.CheckIdempotency(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(res))
}

// StartVerification starts a verification run
// @Summary Start a verification run
// @Description Checks every reference solution (or one part's) in the background; follow progress on the websocket
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.StartVerificationRequest false "Optional part filter"
// @Success 202 {object} dto.APIResponse{data=models.VerificationRun} "Run started"
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 404 {object} dto.ErrorResponse "Part not found"
// @Failure 409 {object} dto.ErrorResponse "A run is already in progress"
// @Router /admin/verifications [post]
func (c *AdminController) StartVerification(ctx *gin.Context) {
	var req dto.StartVerificationRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
			return
		}
		if err := middleware.Validator().Struct(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
			return
		}
	}

	run, err := c.verificationService.Start(ctx.Request.Context(), req.Part)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, dto.NewSuccessResponse(run))
}

// GetVerifications lists verification runs
// @Summary List verification runs
// @Description Lists verification runs, newest first
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20)"
// @Success 200 {object} dto.APIResponse{data=[]models.VerificationRun,pagination=dto.PaginationInfo} "Runs retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /admin/verifications [get]
func (c *AdminController) GetVerifications(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)

	runs, pagination, err := c.verificationService.List(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(runs, pagination))
}

// GetVerification returns a run with its results
// @Summary Get a verification run
// @Description Returns a run and the outcome for each challenge it checked
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Run ID"
// @Success 200 {object} dto.APIResponse{data=dto.VerificationRunResponse} "Run retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid run ID"
// @Failure 404 {object} dto.ErrorResponse "Run not found"
// @Router /admin/verifications/{id} [get]
func (c *AdminController) GetVerification(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Run ID must be a UUID"))
		return
	}

	run, err := c.verificationService.Get(ctx.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrVerificationNotFound) {
			c.logger.Error().Err(err).Str("runId", id.String()).Msg("Failed to load verification run")
		}
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(run))
}
