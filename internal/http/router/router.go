package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	"github.com/ignatzorin/freelance-escrow/internal/http/middleware"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	jobHandler *handlers.JobHandler,
	escrowHandler *handlers.EscrowHandler,
	disputeHandler *handlers.DisputeHandler,
	paymentHandler *handlers.PaymentHandler,
	profileHandler *handlers.ProfileHandler,
	portfolioHandler *handlers.PortfolioHandler,
	reviewHandler *handlers.ReviewHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Публичные маршруты
	api.GET("/jobs", jobHandler.ListJobs)
	api.GET("/jobs/:id", middleware.UUIDValidator("id"), jobHandler.GetJob)
	api.GET("/jobs/:id/escrow", middleware.UUIDValidator("id"), escrowHandler.GetEscrow)
	api.GET("/ws", wsHandler.Handle)
	api.GET("/users/:id/profile", middleware.UUIDValidator("id"), profileHandler.GetUserProfile)
	api.GET("/users/:id/portfolio", middleware.UUIDValidator("id"), portfolioHandler.ListByUser)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListUserReviews)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.GetMyProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)

		protected.POST("/jobs", jobHandler.CreateJob)
		protected.GET("/jobs/my", jobHandler.ListMyJobs)
		protected.GET("/jobs/assigned", jobHandler.ListAssignedJobs)
		protected.POST("/jobs/:id/bids", middleware.UUIDValidator("id"), jobHandler.PlaceBid)
		protected.POST("/jobs/:id/bids/:index/accept", middleware.UUIDValidator("id"), jobHandler.AcceptBid)
		protected.POST("/jobs/:id/cancel", middleware.UUIDValidator("id"), jobHandler.CancelJob)

		protected.POST("/jobs/:id/escrow", middleware.UUIDValidator("id"), escrowHandler.CreateEscrow)
		protected.POST("/jobs/:id/escrow/release", middleware.UUIDValidator("id"), escrowHandler.Release)
		protected.POST("/jobs/:id/escrow/milestones/:index/pay", middleware.UUIDValidator("id"), escrowHandler.PayMilestone)
		protected.POST("/jobs/:id/escrow/refund", middleware.UUIDValidator("id"), escrowHandler.Refund)

		protected.POST("/jobs/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.CreateDispute)
		protected.GET("/jobs/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.GetJobDispute)
		protected.GET("/disputes", disputeHandler.ListMyDisputes)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.GetDispute)
		protected.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.ResolveDispute)

		protected.GET("/payments/balance", paymentHandler.GetBalance)
		protected.POST("/payments/deposit", paymentHandler.Deposit)
		protected.POST("/payments/withdraw", paymentHandler.Withdraw)
		protected.GET("/payments/transactions", paymentHandler.ListTransactions)

		protected.POST("/jobs/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.CreateReview)

		protected.POST("/portfolio", portfolioHandler.Create)
		protected.PUT("/portfolio/:id", middleware.UUIDValidator("id"), portfolioHandler.Update)
		protected.DELETE("/portfolio/:id", middleware.UUIDValidator("id"), portfolioHandler.Delete)

		protected.GET("/notifications", notificationHandler.List)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkRead)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	}

	return r
}
