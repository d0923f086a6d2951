package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

type TutorHandler struct {
	BaseHandler
	tutors services.TutorService
	jobs   services.JobService
}

func NewTutorHandler(tutors services.TutorService, jobs services.JobService, logger utils.Logger) *TutorHandler {
	return &TutorHandler{
		BaseHandler: NewBaseHandler(logger),
		tutors:      tutors,
		jobs:        jobs,
	}
}

// ListTutors lists tutor profiles joined with their users
// @Summary List tutors
// @Tags tutors
// @Produce json
// @Param subject query string false "Subject, case-insensitive"
// @Param approval query string false "pending, approved or rejected"
// @Success 200 {array} models.TutorView
// @Failure 400 {object} ErrorResponse
// @Router /tutors [get]
func (h *TutorHandler) ListTutors(c *gin.Context) {
	var params models.ListTutorsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid query", Details: err.Error()})
		return
	}

	tutors, err := h.tutors.List(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tutors)
}

// GetTutor returns one tutor with reviews
// @Summary Get tutor
// @Tags tutors
// @Produce json
// @Param userId path uint true "Tutor user ID"
// @Success 200 {object} models.TutorDetail
// @Failure 404 {object} ErrorResponse
// @Router /tutors/{userId} [get]
func (h *TutorHandler) GetTutor(c *gin.Context) {
	id := h.parseIDParam(c, "userId")
	if id == 0 {
		return
	}

	tutor, err := h.tutors.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tutor)
}

// SaveProfile creates or updates the caller's tutor profile. 201 on create.
func (h *TutorHandler) SaveProfile(c *gin.Context) {
	var req models.TutorProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID := currentUserID(c)
	h.LogRequest(c, "Saving tutor profile", "user_id", userID)

	profile, created, err := h.tutors.SaveProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, profile)
}

// ListMyBids returns the caller's bids, each with its job.
func (h *TutorHandler) ListMyBids(c *gin.Context) {
	bids, err := h.jobs.ListTutorBids(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}
