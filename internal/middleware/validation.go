package middleware

import (
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/pkg/validation"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("challengeid", func(fl validator.FieldLevel) bool {
		return validation.IsChallengeID(fl.Field().String())
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return validation.IsDifficulty(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return validation.CompiledPatterns.Username.MatchString(fl.Field().String())
	})
	return v
}

// Validator exposes the validator with the project's custom tags registered.
func Validator() *validator.Validate {
	return validate
}

// ValidateRequest binds the JSON body into a fresh value of obj's type,
// validates it and stores it under "validatedBody".
func ValidateRequest(obj interface{}) gin.HandlerFunc {
	typ := reflect.TypeOf(obj)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}

	return func(c *gin.Context) {
		body := reflect.New(typ).Interface()
		if err := c.ShouldBindJSON(body); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format")
			errorDetail = errorDetail.WithDetails(err.Error())
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := validate.Struct(body); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
			return
		}

		c.Set("validatedBody", body)
		c.Next()
	}
}

// ValidateChallengeID rejects malformed :id path parameters before they reach
// a handler.
func ValidateChallengeID(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := validate.Var(c.Param(param), "required,challengeid"); err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidChallengeID, "Invalid challenge ID")
			errorDetail = errorDetail.WithDetails("expected <part>.<number>, e.g. 2.7").WithField(param)
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}
