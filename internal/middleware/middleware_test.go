package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Success bool             `json:"success"`
	Error   *dto.ErrorDetail `json:"error"`
}

func serve(t *testing.T, router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Code != http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    dto.ErrorCode
		details string
	}{
		{"not found", fmt.Errorf("%w: 1.99", apperrors.ErrChallengeNotFound), http.StatusNotFound, dto.ErrorCodeChallengeNotFound, "challenge not found: 1.99"},
		{"not sandboxable", fmt.Errorf("%w: line 1: VACUUM", apperrors.ErrNotSandboxable), http.StatusUnprocessableEntity, dto.ErrorCodeNotSandboxable, ""},
		{"custom message", apperrors.NewBadRequestError("SQL is longer than 10 characters"), http.StatusBadRequest, dto.ErrorCodeBadRequest, "SQL is longer than 10 characters"},
		{"busy", apperrors.ErrVerificationRunning, http.StatusConflict, dto.ErrorCodeVerificationBusy, ""},
		{"server side", apperrors.ErrNothingToCompare, http.StatusInternalServerError, dto.ErrorCodeNothingToCompare, ""},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", func(c *gin.Context) { HandleAPIError(c, tt.err) })

			w, resp := serve(t, router, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.details != "" {
				assert.Equal(t, tt.details, resp.Error.Details)
			}
			if tt.status >= http.StatusInternalServerError {
				assert.Nil(t, resp.Error.Details, "server errors do not leak details")
			}
		})
	}
}

func TestLookupError(t *testing.T) {
	status, code := LookupError(fmt.Errorf("wrapped: %w", apperrors.ErrSeedMismatch))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, dto.ErrorCodeSeedMismatch, code)

	status, code = LookupError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, dto.ErrorCodeInternalServer, code)
}

func TestValidateRequest(t *testing.T) {
	router := gin.New()
	router.POST("/attempts", ValidateRequest(&dto.AttemptRequest{}), func(c *gin.Context) {
		req := c.MustGet("validatedBody").(*dto.AttemptRequest)
		c.String(http.StatusOK, req.SQL)
	})

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/attempts", strings.NewReader(`{"sql":"SELECT 1;"}`))
		req.Header.Set("Content-Type", "application/json")
		w, _ := serve(t, router, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "SELECT 1;", w.Body.String())
	})

	for name, body := range map[string]string{
		"missing field": `{}`,
		"malformed":     `{"sql":`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/attempts", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w, resp := serve(t, router, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
		})
	}
}

func TestValidateRequest_CustomTags(t *testing.T) {
	router := gin.New()
	router.POST("/login", ValidateRequest(&dto.LoginRequest{}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"a!","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w, resp := serve(t, router, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "Username", resp.Error.Field)
}

func TestValidateChallengeID(t *testing.T) {
	router := gin.New()
	router.GET("/challenges/:id", ValidateChallengeID("id"), func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("id"))
	})

	tests := []struct {
		id     string
		status int
	}{
		{"1.9", http.StatusOK},
		{"12.3", http.StatusOK},
		{"0.1", http.StatusBadRequest},
		{"1.", http.StatusBadRequest},
		{"abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			w, resp := serve(t, router, httptest.NewRequest(http.MethodGet, "/challenges/"+tt.id, nil))

			assert.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				require.NotNil(t, resp.Error)
				assert.Equal(t, dto.ErrorCodeInvalidChallengeID, resp.Error.Code)
				assert.Equal(t, "id", resp.Error.Field)
			}
		})
	}
}

func newJWT(exp time.Duration) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: exp,
		TokenIssuer:    "sqlguide-test",
	})
}

func TestJWTAuth(t *testing.T) {
	jwtService := newJWT(time.Hour)
	m := NewAuthMiddleware(jwtService)

	router := gin.New()
	router.GET("/admin", m.JWTAuth(), m.RoleRequired(string(models.RoleAdmin)), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("username"))
	})

	adminToken, _, err := jwtService.GenerateAccessToken("admin", models.RoleAdmin)
	require.NoError(t, err)
	viewerToken, _, err := jwtService.GenerateAccessToken("viewer", models.RoleType("VIEWER"))
	require.NoError(t, err)
	expiredToken, _, err := newJWT(-time.Minute).GenerateAccessToken("admin", models.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		query  string
		status int
		code   dto.ErrorCode
	}{
		{"bearer header", "Bearer " + adminToken, "", http.StatusOK, ""},
		{"query parameter", "", adminToken, http.StatusOK, ""},
		{"missing", "", "", http.StatusUnauthorized, dto.ErrorCodeUnauthorized},
		{"garbage", "Bearer not-a-token", "", http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
		{"expired", "Bearer " + expiredToken, "", http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
		{"wrong role", "Bearer " + viewerToken, "", http.StatusForbidden, dto.ErrorCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/admin"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w, resp := serve(t, router, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "admin", w.Body.String())
				return
			}
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestRoleRequired_WithoutAuth(t *testing.T) {
	m := NewAuthMiddleware(newJWT(time.Hour))
	router := gin.New()
	router.GET("/", m.RoleRequired(string(models.RoleAdmin)), func(c *gin.Context) { c.Status(http.StatusOK) })

	w, resp := serve(t, router, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrorCodeUnauthorized, resp.Error.Code)
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
