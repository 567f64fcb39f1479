package services

import (
	"context"
	"crypto/subtle"

	"github.com/rs/zerolog"

	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/pkg/apperrors"
	"github.com/yigit/sqlguide/internal/pkg/auth"
)

// AuthService handles admin authentication
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
}

// authServiceImpl implements AuthService against the single configured admin
type authServiceImpl struct {
	username     string
	passwordHash string
	jwtService   *auth.JWTService
	logger       zerolog.Logger
}

// NewAuthService creates a new AuthService. passwordHash is a bcrypt hash.
func NewAuthService(username, passwordHash string, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		username:     username,
		passwordHash: passwordHash,
		jwtService:   jwtService,
		logger:       logger,
	}
}

// Login checks the admin credentials and issues an access token
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// The password is always checked so a wrong username costs as much as a
	// wrong password.
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) == 1
	passwordOK := auth.CheckPassword(s.passwordHash, req.Password)
	if !userOK || !passwordOK {
		s.logger.Warn().Str("username", req.Username).Msg("Failed admin login")
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.jwtService.GenerateAccessToken(s.username, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", s.username).Msg("Admin logged in")
	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   expiresIn,
	}, nil
}
