package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/metrics"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

const serviceName = "tutoring-marketplace"

type HandlerManager struct {
	serviceManager services.ServiceManager
	authHandler    *AuthHandler
	userHandler    *UserHandler
	tutorHandler   *TutorHandler
	jobHandler     *JobHandler
	studentHandler *StudentHandler
	messageHandler *MessageHandler
	adminHandler   *AdminHandler
	authMiddleware *SessionAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	cookie CookieConfig,
) *HandlerManager {
	authMiddleware := NewSessionAuthMiddleware(serviceManager.Auth(), cookie, logger)

	return &HandlerManager{
		serviceManager: serviceManager,
		authHandler:    NewAuthHandler(serviceManager.Auth(), serviceManager.ExternalAuth(), authMiddleware, logger),
		userHandler:    NewUserHandler(serviceManager.Auth(), logger),
		tutorHandler:   NewTutorHandler(serviceManager.Tutor(), serviceManager.Job(), logger),
		jobHandler:     NewJobHandler(serviceManager.Job(), logger),
		studentHandler: NewStudentHandler(serviceManager.Job(), serviceManager.Review(), logger),
		messageHandler: NewMessageHandler(serviceManager.Message(), serviceManager.Notification(), logger),
		adminHandler:   NewAdminHandler(serviceManager.Admin(), logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	auth := hm.authMiddleware.AuthMiddleware()
	student := hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent)
	tutor := hm.authMiddleware.RequireRoleMiddleware(models.RoleTutor)

	api := router.Group("/api")
	{
		// Session
		api.POST("/register", hm.authHandler.Register)
		api.POST("/login", hm.authHandler.Login)
		api.POST("/logout", auth, hm.authHandler.Logout)
		api.POST("/auth/casdoor", hm.authHandler.CasdoorLogin)

		api.GET("/user", auth, hm.userHandler.GetCurrentUser)
		api.PATCH("/user", auth, hm.userHandler.UpdateCurrentUser)

		// Tutor directory is public; profile edits are tutor-only
		api.GET("/tutors", hm.tutorHandler.ListTutors)
		api.GET("/tutors/:userId", hm.tutorHandler.GetTutor)
		api.POST("/tutors/profile", auth, tutor, hm.tutorHandler.SaveProfile)
		api.GET("/tutor/bids", auth, tutor, hm.tutorHandler.ListMyBids)

		// Jobs and bids
		api.GET("/jobs", hm.jobHandler.ListJobs)
		api.GET("/jobs/:id", hm.jobHandler.GetJob)
		api.POST("/jobs", auth, student, hm.jobHandler.CreateJob)
		api.PATCH("/jobs/:id/status", auth, student, hm.jobHandler.UpdateJobStatus)
		api.POST("/jobs/:id/bids", auth, tutor, hm.jobHandler.CreateBid)
		api.PATCH("/bids/:id/accept", auth, student, hm.jobHandler.AcceptBid)
		api.GET("/student/jobs", auth, student, hm.studentHandler.GetMyJobs)

		api.POST("/reviews", auth, student, hm.studentHandler.CreateReview)

		// Messaging - any authenticated user
		messages := api.Group("/messages", auth)
		{
			messages.GET("/conversations", hm.messageHandler.Conversations)
			messages.GET("/:userId", hm.messageHandler.Thread)
			messages.POST("", hm.messageHandler.Send)
		}

		notifications := api.Group("/notifications", auth)
		{
			notifications.GET("", hm.messageHandler.ListNotifications)
			notifications.PATCH("/:id/read", hm.messageHandler.MarkNotificationRead)
		}

		// Admin routes - Admins only
		admin := api.Group("/admin", auth, hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.GET("/users", hm.adminHandler.ListUsers)
			admin.PATCH("/users/:id/status", hm.adminHandler.UpdateUserStatus)
			admin.PATCH("/users/:id/role", hm.adminHandler.UpdateUserRole)
			admin.DELETE("/users/:id", hm.adminHandler.DeleteUser)
			admin.GET("/tutors", hm.adminHandler.ListTutors)
			admin.PATCH("/tutors/:userId/approval", hm.adminHandler.UpdateTutorApproval)
			admin.GET("/analytics", hm.adminHandler.GetAnalytics)
			admin.GET("/export/users", hm.adminHandler.ExportUsers)
		}
	}

	router.GET("/health", hm.HealthCheck)
	router.GET("/metrics", metrics.Handler())
}

// HealthCheck reports storage and cache reachability.
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp := models.HealthResponse{
		Status:    "healthy",
		Service:   serviceName,
		Checks:    map[string]string{"storage": "ok"},
		Timestamp: time.Now().UTC(),
	}
	status := http.StatusOK
	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Checks["storage"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
