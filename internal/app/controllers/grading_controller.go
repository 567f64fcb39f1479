package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/app/services"
	"github.com/yigit/sqlguide/internal/middleware"
)

// GradingController runs reference solutions and grades attempts
type GradingController struct {
	gradingService services.GradingService
}

// NewGradingController creates a new GradingController
func NewGradingController(gradingService services.GradingService) *GradingController {
	return &GradingController{gradingService: gradingService}
}

// CheckChallenge runs the reference solution of a challenge
// @Summary Check a reference solution
// @Description Runs the challenge's reference solution in a rolled-back transaction and compares it with the documented output
// @Tags grading
// @Produce json
// @Param id path string true "Challenge ID, e.g. 2.7"
// @Success 200 {object} dto.APIResponse{data=dto.CheckResponse} "Check finished"
// @Failure 400 {object} dto.ErrorResponse "Invalid challenge ID"
// @Failure 404 {object} dto.ErrorResponse "Challenge not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /challenges/{id}/check [post]
func (c *GradingController) CheckChallenge(ctx *gin.Context) {
	res, err := c.gradingService.Check(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(res))
}

// SubmitAttempt grades learner SQL
// @Summary Grade an attempt
// @Description Runs the submitted SQL and the reference solution in rolled-back transactions and compares their results
// @Tags grading
// @Accept json
// @Produce json
// @Param id path string true "Challenge ID, e.g. 2.7"
// @Param request body dto.AttemptRequest true "SQL to grade"
// @Success 200 {object} dto.APIResponse{data=dto.AttemptResponse} "Attempt graded"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or empty SQL"
// @Failure 404 {object} dto.ErrorResponse "Challenge not found"
// @Failure 422 {object} dto.ErrorResponse "SQL cannot run inside a transaction"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /challenges/{id}/attempts [post]
func (c *GradingController) SubmitAttempt(ctx *gin.Context) {
	req := ctx.MustGet("validatedBody").(*dto.AttemptRequest)

	res, err := c.gradingService.Attempt(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(res))
}
