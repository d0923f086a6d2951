package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/tutoring-marketplace/internal/models"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/services"
	"github.com/SAP-F-2025/tutoring-marketplace/internal/utils"
)

type JobHandler struct {
	BaseHandler
	jobs services.JobService
}

func NewJobHandler(jobs services.JobService, logger utils.Logger) *JobHandler {
	return &JobHandler{
		BaseHandler: NewBaseHandler(logger),
		jobs:        jobs,
	}
}

// ListJobs lists jobs, optionally by status
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Param status query string false "open, assigned, completed or cancelled"
// @Success 200 {array} models.JobView
// @Failure 400 {object} ErrorResponse "Invalid status"
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	var params models.ListJobsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid query", Details: err.Error()})
		return
	}

	jobs, err := h.jobs.List(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob returns a job with its student and bids
// @Summary Get job
// @Tags jobs
// @Produce json
// @Param id path uint true "Job ID"
// @Success 200 {object} models.JobDetail
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	job, err := h.jobs.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CreateJob posts a job owned by the session student
// @Summary Create job
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body models.JobCreateRequest true "Job data"
// @Success 201 {object} models.JobView
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req models.JobCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	studentID := currentUserID(c)
	h.LogRequest(c, "Creating job", "student_id", studentID)

	job, err := h.jobs.Create(c.Request.Context(), studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// UpdateJobStatus moves an owned job to a new status
// @Summary Update job status
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path uint true "Job ID"
// @Param status body models.JobStatusRequest true "New status"
// @Success 200 {object} models.JobView
// @Failure 400 {object} ErrorResponse "Invalid status"
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Job already completed or cancelled"
// @Router /jobs/{id}/status [patch]
func (h *JobHandler) UpdateJobStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.JobStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating job status", "job_id", id, "status", req.Status)

	job, err := h.jobs.UpdateStatus(c.Request.Context(), id, currentUserID(c), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// CreateBid places the session tutor's bid on an open job.
func (h *JobHandler) CreateBid(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req models.BidCreateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tutorID := currentUserID(c)
	h.LogRequest(c, "Placing bid", "job_id", id, "tutor_id", tutorID)

	bid, err := h.jobs.CreateBid(c.Request.Context(), id, tutorID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// AcceptBid accepts a pending bid on one of the caller's open jobs.
func (h *JobHandler) AcceptBid(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Accepting bid", "bid_id", id)

	res, err := h.jobs.AcceptBid(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
