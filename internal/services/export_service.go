package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportExamResults renders all of an exam's submissions into an xlsx
// workbook and returns the file bytes plus a suggested filename.
func (s *exportService) ExportExamResults(ctx context.Context, examID uint) ([]byte, string, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrExamNotFound
		}
		return nil, "", fmt.Errorf("failed to get exam: %w", err)
	}

	examFilter := examID
	submissions, _, err := s.repo.Submission().List(ctx, repositories.SubmissionFilters{
		ExamID:    &examFilter,
		Limit:     maxExportRows,
		SortBy:    "submitted_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list submissions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Submission ID", "User ID", "Status", "Total Score", "Max Score", "Percentage", "Passed", "Submitted At", "Graded At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, sub := range submissions {
		values := []interface{}{
			sub.ID,
			sub.UserID,
			string(sub.Status),
			sub.TotalScore,
			sub.MaxScore,
			fmt.Sprintf("%.1f%%", sub.Percentage()),
			sub.IsPassed(exam.PassingScore),
			formatTimePtr(sub.SubmittedAt),
			formatTimePtr(sub.GradedAt),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("exam_%d_results_%s.xlsx", examID, time.Now().Format("20060102"))
	s.logger.Info("Exported exam results",
		"exam_id", examID,
		"submissions", len(submissions),
		"filename", filename)

	return buf.Bytes(), filename, nil
}

const maxExportRows = 10000

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
