package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents the grading lifecycle events this service emits
type EventType string

const (
	// Exam events
	EventExamPublished EventType = "exam.published"

	// Submission events
	EventSubmissionStarted   EventType = "submission.started"
	EventSubmissionSubmitted EventType = "submission.submitted"
	EventSubmissionGraded    EventType = "submission.graded"
	EventSubmissionRegraded  EventType = "submission.regraded"
)

// GradingEvent is the base event structure for all published events
type GradingEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type ExamPublishedEvent struct {
	ExamID    uint       `json:"exam_id"`
	ExamTitle string     `json:"exam_title"`
	Duration  int        `json:"duration"` // minutes
	EndTime   *time.Time `json:"end_time,omitempty"`
	CreatedBy string     `json:"created_by"`
}

type SubmissionStartedEvent struct {
	SubmissionID uint      `json:"submission_id"`
	ExamID       uint      `json:"exam_id"`
	ExamTitle    string    `json:"exam_title"`
	UserID       string    `json:"user_id"`
	StartedAt    time.Time `json:"started_at"`
}

type SubmissionGradedEvent struct {
	SubmissionID   uint      `json:"submission_id"`
	ExamID         uint      `json:"exam_id"`
	ExamTitle      string    `json:"exam_title"`
	UserID         string    `json:"user_id"`
	GradedAt       time.Time `json:"graded_at"`
	TotalScore     float64   `json:"total_score"`
	MaxScore       float64   `json:"max_score"`
	Percentage     float64   `json:"percentage"`
	Passed         bool      `json:"passed"`
	Regrade        bool      `json:"regrade"`
	FallbackGraded int       `json:"fallback_graded"` // answers graded by the deterministic fallback
}

// Event factory functions

func NewExamPublishedEvent(examID uint, title string, duration int, endTime *time.Time, createdBy string) *GradingEvent {
	return &GradingEvent{
		ID:        watermill.NewUUID(),
		Type:      EventExamPublished,
		Timestamp: time.Now(),
		Source:    "exam-grading-service",
		Version:   "1.0",
		Data: ExamPublishedEvent{
			ExamID:    examID,
			ExamTitle: title,
			Duration:  duration,
			EndTime:   endTime,
			CreatedBy: createdBy,
		},
	}
}

func NewSubmissionStartedEvent(submissionID, examID uint, title, userID string, startedAt time.Time) *GradingEvent {
	return &GradingEvent{
		ID:        watermill.NewUUID(),
		Type:      EventSubmissionStarted,
		Timestamp: time.Now(),
		Source:    "exam-grading-service",
		Version:   "1.0",
		Data: SubmissionStartedEvent{
			SubmissionID: submissionID,
			ExamID:       examID,
			ExamTitle:    title,
			UserID:       userID,
			StartedAt:    startedAt,
		},
	}
}

func NewSubmissionGradedEvent(data SubmissionGradedEvent) *GradingEvent {
	eventType := EventSubmissionGraded
	if data.Regrade {
		eventType = EventSubmissionRegraded
	}
	return &GradingEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "exam-grading-service",
		Version:   "1.0",
		Data:      data,
	}
}
