package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	jobs    services.JobService
	reviews services.ReviewService
}

func NewStudentHandler(jobs services.JobService, reviews services.ReviewService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		jobs:        jobs,
		reviews:     reviews,
	}
}

// ===== STUDENT ENDPOINTS =====

// GetMyJobs returns the jobs posted by the current student
// @Summary Get student jobs
// @Tags students
// @Produce json
// @Success 200 {array} models.JobView
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /student/jobs [get]
func (h *StudentHandler) GetMyJobs(c *gin.Context) {
	jobs, err := h.jobs.ListByStudent(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// CreateReview rates a tutor
// @Summary Create review
// @Description Stores the review and recomputes the tutor's average rating
// @Tags reviews
// @Accept json
// @Produce json
// @Param review body models.ReviewCreateRequest true "Review"
// @Success 201 {object} models.Review
// @Failure 400 {object} ErrorResponse "Invalid rating or reviewee is not a tutor"
// @Failure 403 {object} ErrorResponse "Job belongs to another student"
// @Failure 404 {object} ErrorResponse "Tutor or job not found"
// @Router /reviews [post]
func (h *StudentHandler) CreateReview(c *gin.Context) {
	var req models.ReviewCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	studentID := currentUserID(c)
	h.LogRequest(c, "Creating review", "student_id", studentID, "tutor_id", req.TutorID)

	review, err := h.reviews.Create(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
