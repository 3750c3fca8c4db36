package services

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/exam-grading-service/internal/events"
	"github.com/SAP-F-2025/exam-grading-service/internal/grading"
	"github.com/SAP-F-2025/exam-grading-service/internal/models"
	"github.com/SAP-F-2025/exam-grading-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionFixture struct {
	repo      *fakeRepository
	publisher *events.MockEventPublisher
	service   SubmissionService
	exam      *models.Exam
	questions []*models.Question
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	ctx := context.Background()
	repo := newFakeRepository()

	exam := &models.Exam{Title: "Physics", IsPublished: true, PassingScore: 60, CreatedBy: "instructor-1"}
	require.NoError(t, repo.Exam().Create(ctx, exam))

	questions := []*models.Question{
		{
			ExamID:         exam.ID,
			Type:           grading.TrueFalse,
			Text:           "Light travels faster than sound.",
			ExpectedAnswer: []byte(`{"answer": "true"}`),
			Points:         2,
			Order:          1,
		},
		{
			ExamID:         exam.ID,
			Type:           grading.ShortAnswer,
			Text:           "Name the SI unit of force.",
			ExpectedAnswer: []byte(`{"answer": "Newton", "keywords": ["Newton"], "accept_variations": true}`),
			Points:         5,
			Order:          2,
		},
	}
	for _, q := range questions {
		require.NoError(t, repo.Question().Create(ctx, q))
	}

	publisher := events.NewMockEventPublisher(discardLogger())
	gradingSvc := NewGradingService(repo, mockSelector(t), publisher, nil, discardLogger())
	service := NewSubmissionService(repo, gradingSvc, publisher, discardLogger(), validator.New())

	return &submissionFixture{
		repo:      repo,
		publisher: publisher,
		service:   service,
		exam:      exam,
		questions: questions,
	}
}

func TestSubmissionStart_CreatesBlankAnswers(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionInProgress, submission.Status)

	answers, err := f.repo.Answer().GetBySubmission(ctx, submission.ID)
	require.NoError(t, err)
	assert.Len(t, answers, len(f.questions), "one blank answer row per question")

	require.Len(t, f.publisher.GetPublishedEvents(), 1)
	assert.Equal(t, events.EventSubmissionStarted, f.publisher.GetPublishedEvents()[0].Type)
}

func TestSubmissionStart_ResumesInProgress(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	first, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)

	second, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "restart resumes the open attempt")
}

func TestSubmissionStart_RejectsUnpublishedExam(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.Exam().SetPublished(ctx, f.exam.ID, false))

	_, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	assert.ErrorIs(t, err, ErrExamNotPublished)
}

func TestSubmissionStart_RejectsClosedExam(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	f.exam.EndTime = &past
	require.NoError(t, f.repo.Exam().Update(ctx, f.exam))

	_, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	assert.ErrorIs(t, err, ErrExamClosed)
}

func TestSubmissionStart_RejectsSecondAttempt(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)
	require.NoError(t, f.repo.Submission().UpdateStatus(ctx, submission.ID, models.SubmissionGraded))

	_, err = f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	assert.ErrorIs(t, err, ErrSubmissionExists)
}

func TestSaveAnswer_UpdatesInProgress(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)

	answer, err := f.service.SaveAnswer(ctx, submission.ID, &SaveAnswerRequest{
		QuestionID: f.questions[0].ID,
		AnswerText: "true",
	}, "student-1")
	require.NoError(t, err)
	assert.Equal(t, "true", answer.AnswerText)
}

func TestSaveAnswer_RejectsOtherUsers(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)

	_, err = f.service.SaveAnswer(ctx, submission.ID, &SaveAnswerRequest{
		QuestionID: f.questions[0].ID,
		AnswerText: "true",
	}, "student-2")
	assert.ErrorIs(t, err, ErrSubmissionNotFound, "foreign submissions look like missing ones")
}

func TestSaveAnswer_RejectsAfterSubmit(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, submission.ID, "student-1")
	require.NoError(t, err)

	_, err = f.service.SaveAnswer(ctx, submission.ID, &SaveAnswerRequest{
		QuestionID: f.questions[0].ID,
		AnswerText: "false",
	}, "student-1")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
}

func TestSubmit_GradesSynchronously(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)

	_, err = f.service.SaveAnswer(ctx, submission.ID, &SaveAnswerRequest{
		QuestionID: f.questions[0].ID,
		AnswerText: "true",
	}, "student-1")
	require.NoError(t, err)
	_, err = f.service.SaveAnswer(ctx, submission.ID, &SaveAnswerRequest{
		QuestionID: f.questions[1].ID,
		AnswerText: "Newton",
	}, "student-1")
	require.NoError(t, err)

	aggregate, err := f.service.Submit(ctx, submission.ID, "student-1")
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionGraded, aggregate.Status, "submit returns the graded aggregate")
	assert.Equal(t, 7.0, aggregate.TotalScore)
	assert.Equal(t, 7.0, aggregate.MaxScore)
	assert.True(t, aggregate.Passed)

	stored, err := f.repo.Submission().GetByID(ctx, submission.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, stored.Status)
	assert.NotNil(t, stored.SubmittedAt)
	assert.NotNil(t, stored.GradedAt)
}

func TestSubmit_UnansweredQuestionsScoreZero(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)

	// Only the true/false question gets an answer; the short answer stays
	// blank and grades to zero out of its full weight.
	_, err = f.service.SaveAnswer(ctx, submission.ID, &SaveAnswerRequest{
		QuestionID: f.questions[0].ID,
		AnswerText: "true",
	}, "student-1")
	require.NoError(t, err)

	aggregate, err := f.service.Submit(ctx, submission.ID, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, aggregate.TotalScore)
	assert.Equal(t, 7.0, aggregate.MaxScore)
}

func TestSubmit_RejectsDoubleSubmit(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, submission.ID, "student-1")
	require.NoError(t, err)

	_, err = f.service.Submit(ctx, submission.ID, "student-1")
	require.Error(t, err)
	assert.True(t, IsPrecondition(err))
}

func TestSubmissionStats_DerivedFields(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	submission, err := f.service.Start(ctx, &StartSubmissionRequest{ExamID: f.exam.ID}, "student-1")
	require.NoError(t, err)
	_, err = f.service.SaveAnswer(ctx, submission.ID, &SaveAnswerRequest{
		QuestionID: f.questions[0].ID,
		AnswerText: "true",
	}, "student-1")
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, submission.ID, "student-1")
	require.NoError(t, err)

	stats, err := f.service.Stats(ctx, submission.ID)
	require.NoError(t, err)

	assert.Equal(t, models.SubmissionGraded, stats.Status)
	assert.Equal(t, 2.0, stats.TotalScore)
	assert.Equal(t, 7.0, stats.MaxScore)
	assert.InDelta(t, 2.0/7.0*100, stats.Percentage, 0.001)
	assert.False(t, stats.Passed, "28.6% is below the 60% passing score")
	assert.Equal(t, f.exam.Title, stats.ExamTitle)
}
