package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type quizFixture struct {
	db         *gorm.DB
	user       models.User
	course     models.Course
	enrollment models.Enrollment
	quiz       models.Quiz

	single models.Question
	multi  models.Question
	short  models.Question
}

// option lookup helpers keyed by correctness
func correctOptions(q models.Question) []uuid.UUID {
	var ids []uuid.UUID
	for _, o := range q.Options {
		if o.IsCorrect {
			ids = append(ids, o.ID)
		}
	}
	return ids
}

func wrongOption(q models.Question) uuid.UUID {
	for _, o := range q.Options {
		if !o.IsCorrect {
			return o.ID
		}
	}
	return uuid.Nil
}

func newQuizFixture(t *testing.T, attemptsAllowed int, passMarkOverride *int) *quizFixture {
	t.Helper()
	db := newTestDB(t)

	f := &quizFixture{db: db}
	f.user = createTestUser(t, db, "Ama Mensah", "ama@example.com")

	f.course = models.Course{Title: "Workplace Safety", PassMark: 70, IsPublished: true}
	require.NoError(t, db.Create(&f.course).Error)

	f.enrollment = models.Enrollment{
		UserID:     f.user.ID,
		CourseID:   f.course.ID,
		Status:     models.EnrollmentAssigned,
		AssignedAt: time.Now(),
	}
	require.NoError(t, db.Create(&f.enrollment).Error)

	f.quiz = models.Quiz{
		CourseID:         f.course.ID,
		Title:            "Final Assessment",
		AttemptsAllowed:  attemptsAllowed,
		PassMarkOverride: passMarkOverride,
	}
	require.NoError(t, db.Create(&f.quiz).Error)

	f.single = models.Question{
		QuizID:     f.quiz.ID,
		Type:       models.QuestionSingleChoice,
		PromptHTML: "<p>Which exit do you use in a fire?</p>",
		Points:     2,
		Position:   1,
		Options: []models.QuestionOption{
			{Label: "The nearest marked exit", IsCorrect: true, Position: 1},
			{Label: "The elevator", Position: 2},
		},
	}
	require.NoError(t, db.Create(&f.single).Error)

	f.multi = models.Question{
		QuizID:     f.quiz.ID,
		Type:       models.QuestionMultiChoice,
		PromptHTML: "<p>Select all required protective equipment.</p>",
		Points:     3,
		Position:   2,
		Options: []models.QuestionOption{
			{Label: "Helmet", IsCorrect: true, Position: 1},
			{Label: "Gloves", IsCorrect: true, Position: 2},
			{Label: "Sunglasses", Position: 3},
		},
	}
	require.NoError(t, db.Create(&f.multi).Error)

	key := "extinguisher"
	f.short = models.Question{
		QuizID:     f.quiz.ID,
		Type:       models.QuestionShortAnswer,
		PromptHTML: "<p>What do you use on a small class A fire?</p>",
		Points:     1,
		Position:   3,
		AnswerKey:  &key,
	}
	require.NoError(t, db.Create(&f.short).Error)

	return f
}

func (f *quizFixture) allCorrectAnswers() []SubmittedAnswer {
	return []SubmittedAnswer{
		{QuestionID: f.single.ID, SelectedOptionIDs: correctOptions(f.single)},
		{QuestionID: f.multi.ID, SelectedOptionIDs: correctOptions(f.multi)},
		{QuestionID: f.short.ID, AnswerText: "  Extinguisher "},
	}
}

func TestStartQuizAttempt(t *testing.T) {
	f := newQuizFixture(t, 3, nil)

	started, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, started.Attempt.AttemptNo)
	assert.Equal(t, 0, started.Attempt.Score)
	assert.False(t, started.Attempt.Passed)
	assert.Nil(t, started.Attempt.SubmittedAt)
	require.Len(t, started.Questions, 3)

	// Options are sanitized views; orders are 1-based and contiguous.
	for i, q := range started.Questions {
		assert.Equal(t, i+1, q.Order)
		for j, o := range q.Options {
			assert.Equal(t, j+1, o.Order)
			assert.NotEmpty(t, o.Label)
		}
	}

	// First activity flips the enrollment to started.
	var enrollment models.Enrollment
	require.NoError(t, f.db.First(&enrollment, "id = ?", f.enrollment.ID).Error)
	assert.Equal(t, models.EnrollmentStarted, enrollment.Status)
	assert.NotNil(t, enrollment.StartedAt)

	// A second start must not reset started_at.
	firstStart := *enrollment.StartedAt
	_, err = StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.First(&enrollment, "id = ?", f.enrollment.ID).Error)
	assert.True(t, enrollment.StartedAt.Equal(firstStart))
}

func TestStartQuizAttemptQuizNotFound(t *testing.T) {
	f := newQuizFixture(t, 1, nil)

	_, err := StartQuizAttempt(f.db, f.user.ID, uuid.New())
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestStartQuizAttemptNotEnrolled(t *testing.T) {
	f := newQuizFixture(t, 1, nil)
	stranger := createTestUser(t, f.db, "Kofi Boateng", "kofi@example.com")

	_, err := StartQuizAttempt(f.db, stranger.ID, f.quiz.ID)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestAttemptNumbersAreContiguous(t *testing.T) {
	f := newQuizFixture(t, 3, nil)

	for want := 1; want <= 3; want++ {
		started, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, want, started.Attempt.AttemptNo)
	}

	_, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)

	var nos []int
	require.NoError(t, f.db.Model(&models.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", f.user.ID, f.quiz.ID).
		Order("attempt_no").
		Pluck("attempt_no", &nos).Error)
	assert.Equal(t, []int{1, 2, 3}, nos)
}

func TestConcurrentStartsKeepAttemptNumbersContiguous(t *testing.T) {
	f := newQuizFixture(t, 3, nil)

	// sqlite allows one writer at a time; a single pooled connection keeps
	// parallel starters queueing on the pool instead of hitting SQLITE_BUSY.
	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const starters = 6
	results := make(chan error, starters)
	var wg sync.WaitGroup
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, capped := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAttemptLimitExceeded):
			capped++
		default:
			t.Fatalf("unexpected start error: %v", err)
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 3, capped)

	// No gaps, no duplicates, regardless of which starters won.
	var nos []int
	require.NoError(t, f.db.Model(&models.QuizAttempt{}).
		Where("user_id = ? AND quiz_id = ?", f.user.ID, f.quiz.ID).
		Order("attempt_no").
		Pluck("attempt_no", &nos).Error)
	assert.Equal(t, []int{1, 2, 3}, nos)
}

func TestAbandonedAttemptCountsAgainstCap(t *testing.T) {
	f := newQuizFixture(t, 1, nil)

	// Start but never submit.
	_, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	require.NoError(t, err)

	_, err = StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
}

func TestSubmitQuizAttemptScoring(t *testing.T) {
	f := newQuizFixture(t, 1, nil)

	started, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	require.NoError(t, err)

	// Correct single (2), wrong multi subset (0 of 3), correct short answer
	// with different case and padding (1) => 3/6 = 50%, below the 70 mark.
	answers := []SubmittedAnswer{
		{QuestionID: f.single.ID, SelectedOptionIDs: correctOptions(f.single)},
		{QuestionID: f.multi.ID, SelectedOptionIDs: correctOptions(f.multi)[:1]},
		{QuestionID: f.short.ID, AnswerText: " EXTINGUISHER "},
	}

	result, err := SubmitQuizAttempt(f.db, f.user.ID, started.Attempt.ID, answers)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempt.Score)
	assert.Equal(t, 6, result.Attempt.MaxScore)
	assert.Equal(t, 50, result.Percentage)
	assert.False(t, result.Attempt.Passed)
	assert.NotNil(t, result.Attempt.SubmittedAt)

	var saved []models.AttemptAnswer
	require.NoError(t, f.db.Where("quiz_attempt_id = ?", started.Attempt.ID).Find(&saved).Error)
	assert.Len(t, saved, 3)
}

func TestSubmitMultiChoiceRequiresExactSet(t *testing.T) {
	f := newQuizFixture(t, 3, nil)

	cases := []struct {
		name     string
		selected func() []uuid.UUID
		correct  bool
	}{
		{"exact set", func() []uuid.UUID { return correctOptions(f.multi) }, true},
		{"missing one", func() []uuid.UUID { return correctOptions(f.multi)[:1] }, false},
		{"extra wrong option", func() []uuid.UUID {
			return append(correctOptions(f.multi), wrongOption(f.multi))
		}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			started, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
			require.NoError(t, err)

			result, err := SubmitQuizAttempt(f.db, f.user.ID, started.Attempt.ID, []SubmittedAnswer{
				{QuestionID: f.multi.ID, SelectedOptionIDs: tc.selected()},
			})
			require.NoError(t, err)

			if tc.correct {
				assert.Equal(t, f.multi.Points, result.Attempt.Score)
			} else {
				assert.Zero(t, result.Attempt.Score)
			}
		})
	}
}

func TestSubmitPassMarkOverrideWins(t *testing.T) {
	// Course pass mark 70, quiz override 80: a 75% attempt must fail.
	override := 80
	f := newQuizFixture(t, 1, &override)

	quiz := models.Quiz{
		CourseID:         f.course.ID,
		Title:            "Override Assessment",
		AttemptsAllowed:  1,
		PassMarkOverride: &override,
	}
	require.NoError(t, f.db.Create(&quiz).Error)

	q1 := models.Question{
		QuizID: quiz.ID, Type: models.QuestionSingleChoice,
		PromptHTML: "<p>Q1</p>", Points: 3, Position: 1,
		Options: []models.QuestionOption{
			{Label: "Right", IsCorrect: true, Position: 1},
			{Label: "Wrong", Position: 2},
		},
	}
	require.NoError(t, f.db.Create(&q1).Error)
	q2 := models.Question{
		QuizID: quiz.ID, Type: models.QuestionSingleChoice,
		PromptHTML: "<p>Q2</p>", Points: 1, Position: 2,
		Options: []models.QuestionOption{
			{Label: "Right", IsCorrect: true, Position: 1},
			{Label: "Wrong", Position: 2},
		},
	}
	require.NoError(t, f.db.Create(&q2).Error)

	started, err := StartQuizAttempt(f.db, f.user.ID, quiz.ID)
	require.NoError(t, err)

	result, err := SubmitQuizAttempt(f.db, f.user.ID, started.Attempt.ID, []SubmittedAnswer{
		{QuestionID: q1.ID, SelectedOptionIDs: correctOptions(q1)},
		{QuestionID: q2.ID, SelectedOptionIDs: []uuid.UUID{wrongOption(q2)}},
	})
	require.NoError(t, err)

	assert.Equal(t, 75, result.Percentage)
	assert.Equal(t, 80, result.PassMark)
	assert.False(t, result.Attempt.Passed)
}

func TestSubmitAlreadySubmitted(t *testing.T) {
	f := newQuizFixture(t, 1, nil)

	started, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	require.NoError(t, err)

	_, err = SubmitQuizAttempt(f.db, f.user.ID, started.Attempt.ID, f.allCorrectAnswers())
	require.NoError(t, err)

	_, err = SubmitQuizAttempt(f.db, f.user.ID, started.Attempt.ID, f.allCorrectAnswers())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitAttemptNotFoundForOtherUser(t *testing.T) {
	f := newQuizFixture(t, 1, nil)
	other := createTestUser(t, f.db, "Efua Owusu", "efua@example.com")

	started, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	require.NoError(t, err)

	_, err = SubmitQuizAttempt(f.db, other.ID, started.Attempt.ID, nil)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestPassingSubmitIssuesCertificate(t *testing.T) {
	useFakePDFRenderer(t)
	useArtifactDirs(t)

	f := newQuizFixture(t, 1, nil)
	require.NoError(t, f.db.Model(&models.Course{}).
		Where("id = ?", f.course.ID).
		Update("requires_certificate", true).Error)

	started, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	require.NoError(t, err)

	result, err := SubmitQuizAttempt(f.db, f.user.ID, started.Attempt.ID, f.allCorrectAnswers())
	require.NoError(t, err)

	assert.True(t, result.Attempt.Passed)
	require.NotNil(t, result.Certificate)
	assert.Equal(t, f.user.ID, result.Certificate.UserID)
	assert.Equal(t, f.course.ID, result.Certificate.CourseID)
	assert.Equal(t, 6, result.Certificate.Score)
	assert.Equal(t, models.CertificateStatusActive, result.Certificate.Status())
}

func TestFailingSubmitDoesNotIssueCertificate(t *testing.T) {
	useFakePDFRenderer(t)
	useArtifactDirs(t)

	f := newQuizFixture(t, 1, nil)
	require.NoError(t, f.db.Model(&models.Course{}).
		Where("id = ?", f.course.ID).
		Update("requires_certificate", true).Error)

	started, err := StartQuizAttempt(f.db, f.user.ID, f.quiz.ID)
	require.NoError(t, err)

	result, err := SubmitQuizAttempt(f.db, f.user.ID, started.Attempt.ID, nil)
	require.NoError(t, err)

	assert.False(t, result.Attempt.Passed)
	assert.Nil(t, result.Certificate)

	var count int64
	f.db.Model(&models.Certificate{}).Count(&count)
	assert.Zero(t, count)
}
