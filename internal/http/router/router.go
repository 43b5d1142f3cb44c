package router

import (
	"github.com/gin-gonic/gin"

	"github.com/sdmteam/cvconnect-backend/internal/config"
	"github.com/sdmteam/cvconnect-backend/internal/http/handlers"
	"github.com/sdmteam/cvconnect-backend/internal/http/middleware"
	"github.com/sdmteam/cvconnect-backend/internal/models"
	"github.com/sdmteam/cvconnect-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	requestHandler *handlers.RequestHandler,
	matchingHandler *handlers.MatchingHandler,
	feedbackHandler *handlers.FeedbackHandler,
	categoryHandler *handlers.CategoryHandler,
	engagementHandler *handlers.EngagementHandler,
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
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Публичные маршруты
	api.GET("/ws", wsHandler.Handle)
	api.GET("/categories", categoryHandler.ListCategories)
	api.GET("/feedback/community", feedbackHandler.CommunityRatings)
	api.GET("/users/:id/rating", feedbackHandler.UserRating)
	api.GET("/users/:id/feedback-stats", feedbackHandler.UserStats)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", authHandler.GetMe)
		protected.PUT("/profile", authHandler.UpdateMe)

		// Заявки
		protected.GET("/requests", requestHandler.ListRequests)
		protected.GET("/requests/my", requestHandler.MyRequests)
		protected.GET("/requests/:id", requestHandler.GetRequest)
		protected.POST("/requests", requestHandler.CreateRequest)
		protected.PUT("/requests/:id", requestHandler.UpdateRequest)
		protected.POST("/requests/:id/accept", requestHandler.AcceptRequest)
		protected.POST("/requests/:id/reject", requestHandler.RejectRequest)
		protected.POST("/requests/:id/complete", requestHandler.CompleteRequest)
		protected.POST("/requests/:id/cancel", requestHandler.CancelRequest)

		// Просмотры и интерес
		protected.POST("/requests/:id/view", engagementHandler.RecordView)
		protected.POST("/requests/:id/interest", engagementHandler.AddInterest)
		protected.GET("/requests/:id/interested", engagementHandler.ListInterested)

		// Отзывы
		protected.POST("/requests/:id/feedback", feedbackHandler.SubmitFeedback)
		protected.GET("/requests/:id/can-feedback", feedbackHandler.CanLeaveFeedback)
		protected.POST("/feedback/bulk", feedbackHandler.BulkSubmitFeedback)
		protected.GET("/feedback/eligible", feedbackHandler.EligibleRequests)
		protected.GET("/feedback/history", feedbackHandler.History)
	}

	// Подбор — для представителей CSR и администраторов.
	matching := api.Group("/matching")
	matching.Use(middleware.AuthMiddleware(tokenManager))
	matching.Use(middleware.RequireRoles(models.RoleCSRRep, models.RoleAdmin))
	{
		matching.GET("/open", matchingHandler.OpenRequests)
		matching.GET("/unassigned", matchingHandler.UnassignedRequests)
		matching.GET("/requests/:id/candidates", matchingHandler.RankCandidates)
		matching.POST("/requests/:id/assign", matchingHandler.Assign)
		matching.GET("/requests/:id/history", matchingHandler.MatchHistory)
	}

	// Шортлист представителя.
	shortlist := api.Group("/shortlist")
	shortlist.Use(middleware.AuthMiddleware(tokenManager))
	shortlist.Use(middleware.RequireRoles(models.RoleCSRRep, models.RoleAdmin))
	{
		shortlist.GET("", engagementHandler.ListShortlisted)
		shortlist.POST("/:id", engagementHandler.AddShortlist)
		shortlist.DELETE("/:id", engagementHandler.RemoveShortlist)
	}

	// Справочник категорий — для администраторов и менеджеров.
	admin := api.Group("/")
	admin.Use(middleware.AuthMiddleware(tokenManager))
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RolePM))
	{
		admin.GET("/categories/counts", categoryHandler.ListWithCounts)
		admin.GET("/categories/:id", categoryHandler.GetCategory)
		admin.GET("/categories/:id/breakdown", categoryHandler.StatusBreakdown)
		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)
		admin.POST("/categories/reassign", categoryHandler.ReassignRequest)
		admin.POST("/categories/reassign/bulk", categoryHandler.BulkReassign)

		admin.POST("/admin/requests/sweep", requestHandler.SweepOverdue)
	}

	return r
}
