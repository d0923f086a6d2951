package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

type AdminHandler struct {
	BaseHandler
	admin services.AdminService
}

func NewAdminHandler(admin services.AdminService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: NewBaseHandler(logger),
		admin:       admin,
	}
}

// ===== USERS =====

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// UpdateUserStatus bans or reactivates a user
// @Summary Ban or activate user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path uint true "User ID"
// @Param status body models.UserStatusRequest true "Status and optional ban reason"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/users/{id}/status [patch]
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.UserStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating user status", "user_id", id, "status", req.Status)

	user, err := h.admin.UpdateUserStatus(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.UserRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating user role", "user_id", id, "role", req.Role)

	user, err := h.admin.UpdateUserRole(c.Request.Context(), currentUserID(c), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes a user and everything they own.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting user", "user_id", id)

	if err := h.admin.DeleteUser(c.Request.Context(), currentUserID(c), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "User deleted"})
}

// ===== TUTORS =====

func (h *AdminHandler) ListTutors(c *gin.Context) {
	tutors, err := h.admin.ListTutors(c.Request.Context(), models.ApprovalStatus(c.Query("approval")))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tutors)
}

// UpdateTutorApproval approves or rejects a tutor profile
// @Summary Approve or reject tutor
// @Tags admin
// @Accept json
// @Produce json
// @Param userId path uint true "Tutor user ID"
// @Param approval body models.TutorApprovalRequest true "Approval status and optional rejection reason"
// @Success 200 {object} models.TutorView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/tutors/{userId}/approval [patch]
func (h *AdminHandler) UpdateTutorApproval(c *gin.Context) {
	id := h.parseIDParam(c, "userId")
	if id == 0 {
		return
	}
	var req models.TutorApprovalRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating tutor approval", "tutor_id", id, "status", req.Status)

	tutor, err := h.admin.UpdateTutorApproval(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tutor)
}

// ===== REPORTING =====

// GetAnalytics returns the marketplace counters
// @Summary Analytics
// @Tags admin
// @Produce json
// @Success 200 {object} models.Analytics
// @Router /admin/analytics [get]
func (h *AdminHandler) GetAnalytics(c *gin.Context) {
	a, err := h.admin.Analytics(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// ExportUsers streams the users workbook as an attachment.
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	export, err := h.admin.ExportUsers(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Exported users", "filename", export.Filename, "bytes", len(export.Data))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
