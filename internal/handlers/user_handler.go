package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

type UserHandler struct {
	BaseHandler
	auth services.AuthService
}

func NewUserHandler(auth services.AuthService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
	}
}

// GetCurrentUser returns the session user
// @Summary Current user
// @Description Returns the logged-in user; tutors also get their profile
// @Tags users
// @Produce json
// @Success 200 {object} models.CurrentUser
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /user [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateCurrentUser changes the session user's name, email or password
// @Summary Update current user
// @Tags users
// @Accept json
// @Produce json
// @Param user body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} ErrorResponse "Validation failed or wrong current password"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /user [patch]
func (h *UserHandler) UpdateCurrentUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID := currentUserID(c)
	h.LogRequest(c, "Updating current user", "user_id", userID)

	user, err := h.auth.UpdateCurrentUser(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
