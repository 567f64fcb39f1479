package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// Checked in order; the first match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrInvalidChallengeID, http.StatusBadRequest, dto.ErrorCodeInvalidChallengeID, "Invalid challenge ID"},
	{apperrors.ErrChallengeNotFound, http.StatusNotFound, dto.ErrorCodeChallengeNotFound, "Challenge not found"},
	{apperrors.ErrPartNotFound, http.StatusNotFound, dto.ErrorCodePartNotFound, "Part not found"},
	{apperrors.ErrVerificationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Verification run not found"},
	{apperrors.ErrSeedNotApplied, http.StatusNotFound, dto.ErrorCodeSeedNotApplied, "Seed has not been applied"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{apperrors.ErrEmptySQL, http.StatusBadRequest, dto.ErrorCodeEmptySQL, "No SQL statements to run"},
	{apperrors.ErrNotSandboxable, http.StatusUnprocessableEntity, dto.ErrorCodeNotSandboxable, "Statement cannot run inside a transaction"},
	{apperrors.ErrExpectedOutput, http.StatusInternalServerError, dto.ErrorCodeExpectedOutput, "Expected output cannot be parsed"},
	{apperrors.ErrNothingToCompare, http.StatusInternalServerError, dto.ErrorCodeNothingToCompare, "Reference solution cannot be graded against"},
	{apperrors.ErrSeedMismatch, http.StatusConflict, dto.ErrorCodeSeedMismatch, "Seed counts do not match the script"},
	{apperrors.ErrVerificationRunning, http.StatusConflict, dto.ErrorCodeVerificationBusy, "A verification run is already in progress"},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
}

// LookupError returns the status and code err maps to. Unknown errors map
// to 500 SRV_001.
func LookupError(err error) (int, dto.ErrorCode) {
	if m, ok := findMapping(err); ok {
		return m.status, m.code
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer
}

func findMapping(err error) (errorMapping, bool) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m, true
		}
	}
	return errorMapping{}, false
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	if m, ok := findMapping(err); ok {
		detail := dto.NewErrorDetail(m.code, m.message)
		if msg := customMessage(err); msg != "" {
			detail = detail.WithDetails(msg)
		} else if m.status < http.StatusInternalServerError {
			detail = detail.WithDetails(err.Error())
		}
		if m.status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		}
		c.JSON(m.status, dto.NewAPIError(detail))
		return
	}

	// Handle unknown errors
	logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
	c.JSON(http.StatusInternalServerError, dto.NewAPIError(
		dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
	))
}

func customMessage(err error) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) {
		return custom.Message
	}
	return ""
}
