package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"github.com/SAP-F-2025/exam-grading-service/internal/services"
	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// StartSubmission opens (or resumes) the caller's attempt on an exam
// @Summary Start submission
// @Tags submissions
// @Accept json
// @Produce json
// @Param submission body services.StartSubmissionRequest true "Exam reference"
// @Success 201 {object} models.Submission
// @Failure 409 {object} ErrorResponse
// @Router /submissions/start [post]
func (h *SubmissionHandler) StartSubmission(c *gin.Context) {
	userID := CurrentUserID(c)
	if userID == "" {
		return
	}

	var req services.StartSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Starting submission", "exam_id", req.ExamID, "user_id", userID)

	submission, err := h.submissionService.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

// SaveAnswer stores the caller's answer for one question
// @Summary Save answer
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param answer body services.SaveAnswerRequest true "Answer data"
// @Success 200 {object} models.Answer
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/answers [put]
func (h *SubmissionHandler) SaveAnswer(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := CurrentUserID(c)
	if userID == "" {
		return
	}

	var req services.SaveAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	answer, err := h.submissionService.SaveAnswer(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

// SubmitSubmission finalizes the attempt and grades it synchronously
// @Summary Submit submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.SubmissionAggregate
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/submit [post]
func (h *SubmissionHandler) SubmitSubmission(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}
	userID := CurrentUserID(c)
	if userID == "" {
		return
	}

	h.LogRequest(c, "Submitting submission", "submission_id", id, "user_id", userID)

	aggregate, err := h.submissionService.Submit(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, aggregate)
}

// GetSubmission returns one submission with its answers
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}
	submission, err := h.submissionService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// ListSubmissions lists submissions with optional filters
// @Summary List submissions
// @Tags submissions
// @Produce json
// @Success 200 {object} ListResponse
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	filters := repositories.SubmissionFilters{
		Limit:     parseQueryInt(c, "limit", 20),
		Offset:    parseQueryInt(c, "offset", 0),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if c.Query("exam_id") != "" {
		examID := uint(parseQueryInt(c, "exam_id", 0))
		if examID == 0 {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid exam_id filter", nil)
			return
		}
		filters.ExamID = &examID
	}
	if userID := c.Query("user_id"); userID != "" {
		filters.UserID = &userID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.SubmissionStatus(raw)
		filters.Status = &status
	}

	submissions, total, err := h.submissionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Data: submissions, Total: total})
}

// GetSubmissionStats returns the derived score summary for a submission
// @Summary Submission statistics
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.SubmissionStats
// @Router /submissions/{id}/stats [get]
func (h *SubmissionHandler) GetSubmissionStats(c *gin.Context) {
	id := ParseUintIDParam(c, "id")
	if id == 0 {
		return
	}
	stats, err := h.submissionService.Stats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
