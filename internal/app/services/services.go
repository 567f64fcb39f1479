package services

// Services groups every service the HTTP layer depends on
type Services struct {
	AuthService         AuthService
	ChallengeService    ChallengeService
	GradingService      GradingService
	SeedService         SeedService
	VerificationService VerificationService
}
