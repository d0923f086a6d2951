package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	auth     services.AuthService
	external services.ExternalAuthService
	session  *SessionAuthMiddleware
}

func NewAuthHandler(auth services.AuthService, external services.ExternalAuthService, session *SessionAuthMiddleware, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
		external:    external,
		session:     session,
	}
}

// Register creates an account and logs it in
// @Summary Register
// @Tags auth
// @Accept json
// @Produce json
// @Param user body models.RegisterRequest true "Account data"
// @Success 201 {object} models.PublicUser
// @Failure 400 {object} ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.LogRequest(c, "Registering user", "username", req.Username, "role", req.Role)

	res, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.session.setCookie(c, res.Token, res.ExpiresAt)
	c.JSON(http.StatusCreated, res.User)
}

// Login establishes a session
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body models.LoginRequest true "Credentials"
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "Account is banned"
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.session.setCookie(c, res.Token, res.ExpiresAt)
	c.JSON(http.StatusOK, res.User)
}

// Logout destroys the current session and expires the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), h.session.sessionToken(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.session.clearCookie(c)
	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out"})
}

// CasdoorLogin exchanges a Casdoor token for a local session.
func (h *AuthHandler) CasdoorLogin(c *gin.Context) {
	if !h.external.Enabled() {
		h.handleServiceError(c, services.ErrExternalAuthOff)
		return
	}
	var req models.CasdoorLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.external.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.session.setCookie(c, res.Token, res.ExpiresAt)
	c.JSON(http.StatusOK, res.User)
}
