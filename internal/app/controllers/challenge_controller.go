package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/app/services"
	"github.com/yigit/sqlguide/internal/middleware"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
)

// ChallengeController serves the guide's parts and challenges
type ChallengeController struct {
	challengeService services.ChallengeService
}

// NewChallengeController creates a new ChallengeController
func NewChallengeController(challengeService services.ChallengeService) *ChallengeController {
	return &ChallengeController{challengeService: challengeService}
}

// GetParts lists the parts of the guide
// @Summary List parts
// @Description Lists the six parts of the guide with their challenge counts
// @Tags challenges
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]dto.PartSummary} "Parts retrieved successfully"
// @Router /parts [get]
func (c *ChallengeController) GetParts(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(c.challengeService.ListParts(ctx.Request.Context())))
}

// GetPart returns one part with its challenge list
// @Summary Get part
// @Description Returns a part's introduction and challenge list
// @Tags challenges
// @Produce json
// @Param part path int true "Part number"
// @Success 200 {object} dto.APIResponse{data=dto.PartResponse} "Part retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid part number"
// @Failure 404 {object} dto.ErrorResponse "Part not found"
// @Router /parts/{part} [get]
func (c *ChallengeController) GetPart(ctx *gin.Context) {
	number, err := strconv.Atoi(ctx.Param("part"))
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Part must be a number"))
		return
	}

	part, err := c.challengeService.GetPart(ctx.Request.Context(), number)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(part))
}

// GetChallenges lists challenges with optional filtering and pagination
// @Summary List challenges
// @Description Lists challenges in curriculum order
// @Tags challenges
// @Produce json
// @Param part query int false "Filter by part"
// @Param difficulty query string false "Filter by difficulty (Easy, Medium, Hard)"
// @Param mode query string false "Filter by grade mode"
// @Param q query string false "Search ID, title and problem text"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20)"
// @Success 200 {object} dto.APIResponse{data=[]dto.ChallengeSummary,pagination=dto.PaginationInfo} "Challenges retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Router /challenges [get]
func (c *ChallengeController) GetChallenges(ctx *gin.Context) {
	var filter dto.ChallengeFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}
	if err := middleware.Validator().Struct(&filter); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	challenges, pagination, err := c.challengeService.ListChallenges(ctx.Request.Context(), &filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(challenges, pagination))
}

// GetChallenge returns one challenge
// @Summary Get challenge
// @Description Returns a challenge's problem and expected output; the reference solution only when asked for
// @Tags challenges
// @Produce json
// @Param id path string true "Challenge ID, e.g. 2.7"
// @Param solution query bool false "Include the reference solution and explanation"
// @Success 200 {object} dto.APIResponse{data=dto.ChallengeResponse} "Challenge retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid challenge ID"
// @Failure 404 {object} dto.ErrorResponse "Challenge not found"
// @Router /challenges/{id} [get]
func (c *ChallengeController) GetChallenge(ctx *gin.Context) {
	withSolution, _ := strconv.ParseBool(ctx.DefaultQuery("solution", "false"))

	challenge, err := c.challengeService.GetChallenge(ctx.Request.Context(), ctx.Param("id"), withSolution)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(challenge))
}
