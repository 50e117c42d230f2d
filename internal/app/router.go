package app

import (
	"closer_club_backend/internal/middleware"
	"closer_club_backend/internal/model"
	"closer_club_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/login", c.auth.Login)
		public.POST("/leads", c.lead.Capture)
		public.GET("/certificates/:publicId", c.certificate.Verify)
	}

	authed := router.Group("/api")
	authed.Use(middleware.AuthMiddleware())
	{
		// Any signed-in user
		authed.GET("/me", c.auth.Me)
		authed.PUT("/me", c.user.UpdateProfile)
		authed.GET("/me/progress", c.progress.Summary)
		authed.GET("/me/enrollments", c.enrollment.MyEnrollments)
		authed.GET("/me/certificates", c.certificate.Mine)

		authed.GET("/courses", c.course.List)
		authed.GET("/courses/:id", c.course.GetContent)
		authed.GET("/courses/:id/progress", c.progress.CourseProgress)
		authed.POST("/courses/:id/certificate", c.certificate.Issue)
		authed.GET("/lessons/:id", c.course.GetLesson)
		authed.GET("/lessons/:id/quiz", c.quiz.GetForStudent)
		authed.POST("/lessons/:id/quiz/submit", c.quiz.Submit)

		// Team leaders manage their roster
		leader := authed.Group("")
		leader.Use(middleware.RoleMiddleware(model.TeamLeader))
		{
			leader.GET("/users/:id/progress", c.progress.StudentSummary)
			leader.GET("/courses/:id/enrollments", c.enrollment.CourseRoster)
			leader.POST("/enrollments", c.enrollment.Enroll)
			leader.DELETE("/enrollments", c.enrollment.Unenroll)
		}

		// Admin-only authoring and administration
		admin := authed.Group("")
		admin.Use(middleware.RoleMiddleware(model.Admin))
		{
			admin.POST("/users", c.auth.Register)
			admin.GET("/users", c.user.List)
			admin.PUT("/users/:id/disabled", c.user.SetDisabled)

			admin.POST("/courses", c.course.Create)
			admin.PUT("/courses/:id", c.course.Update)
			admin.DELETE("/courses/:id", c.course.Delete)
			admin.PUT("/courses/:id/published", c.course.SetPublished)
			admin.POST("/courses/:id/modules", c.course.AddModule)
			admin.POST("/modules/:id/lessons", c.course.AddLesson)
			admin.PUT("/lessons/:id", c.course.UpdateLesson)
			admin.DELETE("/lessons/:id", c.course.DeleteLesson)
			admin.POST("/lessons/:id/quiz", c.quiz.Create)
			admin.PUT("/quizzes/:id", c.quiz.UpdateQuestions)
			admin.DELETE("/quizzes/:id", c.quiz.Delete)

			admin.GET("/videos", c.video.List)
			admin.GET("/videos/:id", c.video.Get)
			admin.DELETE("/videos/:id", c.video.Delete)
			admin.POST("/videos/uploads", c.video.StartUpload)
			admin.GET("/videos/uploads/:fileId", c.video.UploadStatus)
			admin.POST("/videos/uploads/:fileId/pause", c.video.PauseUpload)
			admin.POST("/videos/uploads/:fileId/resume", c.video.ResumeUpload)
			admin.POST("/videos/uploads/:fileId/abort", c.video.AbortUpload)

			admin.GET("/leads", c.lead.List)
			admin.PUT("/leads/:id/status", c.lead.UpdateStatus)
			admin.POST("/leads/:id/promote", c.lead.Promote)
		}
	}
}
