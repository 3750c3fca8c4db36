package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SAP-F-2025/exam-grading-service/internal/services"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	examHandler       *ExamHandler
	submissionHandler *SubmissionHandler
	gradingHandler    *GradingHandler
}

func NewHandlerManager(
	examService services.ExamService,
	submissionService services.SubmissionService,
	gradingService services.GradingService,
	exportService services.ExportService,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		examHandler:       NewExamHandler(examService, exportService, logger),
		submissionHandler: NewSubmissionHandler(submissionService, logger),
		gradingHandler:    NewGradingHandler(gradingService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "exam-grading-service",
		})
	})

	v1 := router.Group("/api/v1")
	{
		exams := v1.Group("/exams")
		{
			exams.POST("", hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.GET("/:id/details", hm.examHandler.GetExamWithQuestions)
			exams.PUT("/:id", hm.examHandler.UpdateExam)
			exams.DELETE("/:id", hm.examHandler.DeleteExam)
			exams.POST("/:id/publish", hm.examHandler.PublishExam)
			exams.GET("/:id/stats", hm.examHandler.GetExamStats)
			exams.GET("/:id/export", hm.examHandler.ExportExamResults)

			exams.POST("/:id/questions", hm.examHandler.AddQuestion)
		}

		questions := v1.Group("/questions")
		{
			questions.PUT("/:question_id", hm.examHandler.UpdateQuestion)
			questions.DELETE("/:question_id", hm.examHandler.DeleteQuestion)
		}

		submissions := v1.Group("/submissions")
		{
			submissions.POST("/start", hm.submissionHandler.StartSubmission)
			submissions.GET("", hm.submissionHandler.ListSubmissions)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.PUT("/:id/answers", hm.submissionHandler.SaveAnswer)
			submissions.POST("/:id/submit", hm.submissionHandler.SubmitSubmission)
			submissions.GET("/:id/stats", hm.submissionHandler.GetSubmissionStats)
		}

		grading := v1.Group("/grading")
		{
			grading.POST("/submissions/:submission_id", hm.gradingHandler.GradeSubmission)
			grading.POST("/submissions/:submission_id/regrade", hm.gradingHandler.RegradeSubmission)
		}
	}
}
