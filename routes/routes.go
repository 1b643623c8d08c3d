package routes

import (
	"editorial-workflow-api/controllers"
	"editorial-workflow-api/middleware"
	"editorial-workflow-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Editorial Workflow API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Submissions
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", controllers.GetSubmissions)
				submissions.GET("/:id", controllers.GetSubmission)
				submissions.GET("/:id/decisions", controllers.GetSubmissionDecisions)
				submissions.GET("/:id/assignments", controllers.GetSubmissionAssignments)
				submissions.GET("/:id/tally", middleware.RequireEditorialRole(), controllers.GetSubmissionTally)

				// Only authors create and edit drafts
				submissions.POST("", middleware.RequireRole(models.RoleAuthor), controllers.CreateSubmission)
				submissions.PUT("/:id", middleware.RequireRole(models.RoleAuthor), controllers.UpdateSubmission)

				// The transition endpoint is open to every authenticated
				// role; the state machine enforces who may do what.
				submissions.POST("/:id/transition", controllers.TransitionSubmission)

				submissions.POST("/:id/assignments/auto", middleware.RequireEditorialRole(), controllers.AutoAssignReviewers)
			}

			// Reviewer directory
			reviewers := protected.Group("/reviewers")
			reviewers.Use(middleware.RequireEditorialRole())
			{
				reviewers.GET("", controllers.GetReviewers)
				reviewers.POST("", controllers.CreateReviewer)
				reviewers.PUT("/:id/status", controllers.SetReviewerStatus)
				reviewers.POST("/:id/invite", controllers.InviteReviewer)
			}

			// Assignments
			assignments := protected.Group("/assignments")
			{
				assignments.GET("/mine", middleware.RequireRole(models.RoleReviewer), controllers.GetMyAssignments)
				assignments.POST("/:id/accept", middleware.RequireRole(models.RoleReviewer), controllers.AcceptAssignment)
				assignments.POST("/:id/decline", middleware.RequireRole(models.RoleReviewer), controllers.DeclineAssignment)
				assignments.POST("/:id/start", middleware.RequireRole(models.RoleReviewer), controllers.StartAssignment)
				assignments.POST("/:id/complete", middleware.RequireRole(models.RoleReviewer, models.RoleAdmin), controllers.CompleteAssignment)
				assignments.POST("/:id/withdraw", middleware.RequireEditorialRole(), controllers.WithdrawAssignment)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
			}

			// Engine policy
			protected.GET("/workflow-config", middleware.RequireEditorialRole(), controllers.GetWorkflowConfig)
			protected.PUT("/workflow-config", middleware.RequireRole(models.RoleAdmin), controllers.UpdateWorkflowConfig)

			// Dashboard
			protected.GET("/dashboard/stats", middleware.RequireEditorialRole(), controllers.GetDashboardStats)
		}
	}

	// 404 catch-all
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Route not found"})
	})
}
