package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devpath-io/devpath-service/internal/config"
	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/services"
	"github.com/devpath-io/devpath-service/internal/utils"
	"github.com/devpath-io/devpath-service/internal/validator"
)

type HandlerManager struct {
	assessmentHandler   *AssessmentHandler
	attemptHandler      *AttemptHandler
	careerHandler       *CareerHandler
	progressHandler     *ProgressHandler
	notificationHandler *NotificationHandler
	userHandler         *UserHandler
	authMiddleware      *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		assessmentHandler:   NewAssessmentHandler(serviceManager.Assessment(), serviceManager.ImportExport(), validator, logger),
		attemptHandler:      NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		careerHandler:       NewCareerHandler(serviceManager.Career(), validator, logger),
		progressHandler:     NewProgressHandler(serviceManager.Dashboard(), serviceManager.Roadmap(), validator, logger),
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), validator, logger),
		authMiddleware:      authMiddleware,
	}
}

// SetupRoutes sets up all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Assessment catalog
		assessments := v1.Group("/assessments")
		{
			// Catalog management - Advisors and Admins only
			manage := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdvisor, models.RoleAdmin)
			assessments.POST("", manage, hm.assessmentHandler.CreateAssessment)
			assessments.PUT("/:id", manage, hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", manage, hm.assessmentHandler.DeleteAssessment)
			assessments.PUT("/:id/status", manage, hm.assessmentHandler.UpdateAssessmentStatus)
			assessments.POST("/:id/publish", manage, hm.assessmentHandler.PublishAssessment)
			assessments.POST("/:id/archive", manage, hm.assessmentHandler.ArchiveAssessment)
			assessments.GET("/:id/stats", manage, hm.assessmentHandler.GetAssessmentStats)

			// Question management - Advisors and Admins only
			assessments.POST("/:id/questions", manage, hm.assessmentHandler.AddQuestion)
			assessments.PUT("/:id/questions/:question_id", manage, hm.assessmentHandler.UpdateQuestion)
			assessments.DELETE("/:id/questions/:question_id", manage, hm.assessmentHandler.RemoveQuestion)

			// Bulk catalog import/export - Admins only
			admin := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)
			assessments.POST("/import", admin, hm.assessmentHandler.ImportAssessments)
			assessments.GET("/export", admin, hm.assessmentHandler.ExportResults)

			// Catalog browsing - all authenticated users
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/active", hm.assessmentHandler.GetActiveAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.GET("/:id/details", hm.assessmentHandler.GetAssessmentWithQuestions)
			assessments.GET("/slug/:slug", hm.assessmentHandler.GetAssessmentBySlug)
		}

		// Attempt lifecycle
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.POST("/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/me", hm.attemptHandler.ListMyAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answer", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/abandon", hm.attemptHandler.AbandonAttempt)

			attempts.GET("/current/:slug", hm.attemptHandler.GetCurrentAttempt)
			attempts.GET("/can-start/:slug", hm.attemptHandler.CanStartAttempt)
			attempts.GET("/count/:assessment_id", hm.attemptHandler.GetAttemptCount)
		}

		// Career recommendation and selection
		career := v1.Group("/career")
		{
			career.GET("/matches", hm.careerHandler.GetMatches)
			career.GET("/selection", hm.careerHandler.GetSelection)
			career.POST("/selection", hm.careerHandler.SelectCareer)
		}

		// Student progress and roadmap
		progress := v1.Group("/progress")
		{
			progress.GET("/me", hm.progressHandler.GetProgress)
			progress.GET("/me/roadmap", hm.progressHandler.GetRoadmap)
			progress.PUT("/me/roadmap", hm.progressHandler.UpdateRoadmap)
		}

		// In-app notifications
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.GET("/unread-count", hm.notificationHandler.GetUnreadCount)
			notifications.PUT("/:id/read", hm.notificationHandler.MarkNotificationRead)
		}

		// User profile
		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetProfile)
			users.PUT("/me", hm.userHandler.UpdateProfile)
			users.POST("/me/verify-email/request", hm.userHandler.RequestEmailVerification)
			users.POST("/me/verify-email", hm.userHandler.VerifyEmail)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "devpath-service",
		})
	})
}
