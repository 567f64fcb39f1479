package dto

// LoginRequest represents admin credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required" validate:"username" example:"admin"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int64  `json:"expiresIn" example:"3600"`
}
