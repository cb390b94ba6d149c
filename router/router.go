package router

import (
	"CineVault/internal/handler"
	"CineVault/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware())
	r.Use(handler.BlacklistGuard())

	api := r.Group("/api")
	{
		api.POST("/register", handler.Register)
		api.GET("/activate", handler.Activate)
		api.POST("/login", handler.Login)

		// Public catalog. Optional auth so views can be attributed
		// to logged-in users.
		public := api.Group("")
		public.Use(utils.OptionalAuthMiddleware())
		{
			public.GET("/movies", handler.ListMovies)
			public.GET("/movies/search", handler.SearchMovies)
			public.GET("/movies/featured", handler.FeaturedMovies)
			public.GET("/movies/:slug", handler.MovieDetail)
			public.GET("/categories", handler.ListCategories)
			public.GET("/actors", handler.ListActors)
			public.GET("/actors/:id", handler.ActorDetail)
		}

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware())
		{
			auth.POST("/reviews", handler.CreateReview)
			auth.POST("/ratings", handler.RateMovie)
		}

		admin := api.Group("/admin")
		admin.Use(utils.AuthMiddleware(), utils.AdminMiddleware())
		{
			admin.GET("/dashboard", handler.Dashboard)

			admin.POST("/movies", handler.CreateMovie)
			admin.PUT("/movies/:id", handler.UpdateMovie)
			admin.DELETE("/movies/:id", handler.DeleteMovie)
			admin.POST("/movies/:id/poster", handler.UploadPoster)
			admin.GET("/movies/:id/poster", handler.PosterURL)
			admin.GET("/movies/:id/file", handler.MovieFile)

			admin.POST("/categories", handler.CreateCategory)
			admin.PUT("/categories/:id", handler.UpdateCategory)
			admin.DELETE("/categories/:id", handler.DeleteCategory)

			admin.POST("/actors", handler.CreateActor)
			admin.PUT("/actors/:id", handler.UpdateActor)
			admin.DELETE("/actors/:id", handler.DeleteActor)

			admin.GET("/users", handler.ListUsers)
			admin.POST("/users/:id/lock", handler.LockUser)
			admin.POST("/users/:id/unlock", handler.UnlockUser)
			admin.POST("/users/:id/promote", handler.PromoteUser)
			admin.POST("/users/:id/demote", handler.DemoteUser)

			admin.GET("/reviews/pending", handler.PendingReviews)
			admin.POST("/reviews/moderate", handler.ModerateReview)

			downloads := admin.Group("/downloads")
			{
				downloads.POST("", handler.SubmitDownload)
				downloads.POST("/batch", handler.SubmitDownloadBatch)
				downloads.GET("", handler.ListDownloads)
				downloads.GET("/:id", handler.DownloadStatus)
				downloads.POST("/:id/cancel", handler.CancelDownload)
				downloads.POST("/:id/retry", handler.RetryDownload)
				downloads.POST("/pause", handler.PauseDownloads)
				downloads.POST("/resume", handler.ResumeDownloads)
				downloads.POST("/clear", handler.ClearCompletedDownloads)
				downloads.POST("/priority", handler.SetDownloadPriority)
				downloads.POST("/optimize", handler.OptimizeDownloadQueue)

				downloads.GET("/analytics/stats", handler.DownloadStats)
				downloads.GET("/analytics/trends", handler.DownloadTrends)
				downloads.GET("/analytics/errors", handler.DownloadErrors)
				downloads.GET("/analytics/popular", handler.PopularDownloads)
				downloads.GET("/analytics/speed", handler.DownloadSpeed)
			}

			schedules := admin.Group("/schedules")
			{
				schedules.POST("", handler.CreateSchedule)
				schedules.GET("", handler.ListSchedules)
				schedules.POST("/:id/cancel", handler.CancelSchedule)
				schedules.POST("/reschedule", handler.Reschedule)
				schedules.POST("/optimal", handler.OptimalSchedule)
			}

			security := admin.Group("/security")
			{
				security.GET("/overview", handler.SecurityOverview)
				security.GET("/alerts", handler.SecurityAlerts)
				security.GET("/audit", handler.AuditTrail)
				security.GET("/audit/export", handler.ExportAuditCSV)
				security.GET("/blacklist", handler.ListBlacklist)
				security.POST("/blacklist", handler.AddBlacklist)
				security.DELETE("/blacklist/:id", handler.RemoveBlacklist)
			}
		}
	}
	return r
}
