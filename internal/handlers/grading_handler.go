package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SAP-F-2025/exam-grading-service/internal/services"
	"github.com/gin-gonic/gin"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger *slog.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeSubmission runs a full grading pass over a submitted submission
// @Summary Grade submission
// @Tags grading
// @Produce json
// @Param submission_id path uint true "Submission ID"
// @Success 200 {object} services.SubmissionAggregate
// @Failure 409 {object} ErrorResponse
// @Router /grading/submissions/{submission_id} [post]
func (h *GradingHandler) GradeSubmission(c *gin.Context) {
	submissionID := ParseUintIDParam(c, "submission_id")
	if submissionID == 0 {
		return
	}

	h.LogRequest(c, "Grading submission", "submission_id", submissionID)

	aggregate, err := h.gradingService.GradeSubmission(c.Request.Context(), submissionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, aggregate)
}

// RegradeSubmission re-runs grading on all answers or a subset
// @Summary Regrade submission
// @Tags grading
// @Accept json
// @Produce json
// @Param submission_id path uint true "Submission ID"
// @Param regrade body services.RegradeRequest false "Optional answer subset"
// @Success 200 {object} services.SubmissionAggregate
// @Failure 409 {object} ErrorResponse
// @Router /grading/submissions/{submission_id}/regrade [post]
func (h *GradingHandler) RegradeSubmission(c *gin.Context) {
	submissionID := ParseUintIDParam(c, "submission_id")
	if submissionID == 0 {
		return
	}

	var req services.RegradeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}
	}

	h.LogRequest(c, "Regrading submission",
		"submission_id", submissionID,
		"answer_ids", len(req.AnswerIDs))

	aggregate, err := h.gradingService.RegradeSubmission(c.Request.Context(), submissionID, req.AnswerIDs)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, aggregate)
}
