package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yigit/sqlguide/internal/app/controllers"
	"github.com/yigit/sqlguide/internal/app/models"
	"github.com/yigit/sqlguide/internal/app/models/dto"
	"github.com/yigit/sqlguide/internal/middleware"
	"github.com/yigit/sqlguide/internal/pkg/websocket"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	challengeController *controllers.ChallengeController,
	gradingController *controllers.GradingController,
	adminController *controllers.AdminController,
	wsHandler *websocket.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// --- Public guide routes ---
	parts := v1.Group("/parts")
	{
		parts.GET("", challengeController.GetParts)
		parts.GET("/:part", challengeController.GetPart)
	}

	challenges := v1.Group("/challenges")
	{
		challenges.GET("", challengeController.GetChallenges)

		challenge := challenges.Group("/:id")
		challenge.Use(middleware.ValidateChallengeID("id"))
		{
			challenge.GET("", challengeController.GetChallenge)
			challenge.POST("/check", gradingController.CheckChallenge)
			challenge.POST("/attempts", middleware.ValidateRequest(&dto.AttemptRequest{}), gradingController.SubmitAttempt)
		}
	}

	// --- Admin routes ---
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.JWTAuth(), authMiddleware.RoleRequired(string(models.RoleAdmin)))
	{
		seed := admin.Group("/seed")
		{
			seed.POST("", adminController.ApplySeed)
			seed.GET("/status", adminController.GetSeedStatus)
			seed.POST("/idempotency", adminController.CheckSeedIdempotency)
		}

		verifications := admin.Group("/verifications")
		{
			verifications.POST("", adminController.StartVerification)
			verifications.GET("", adminController.GetVerifications)
			verifications.GET("/:id", adminController.GetVerification)
		}

		admin.GET("/ws", wsHandler.HandleConnection)
	}
}
