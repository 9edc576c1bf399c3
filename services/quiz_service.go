package services

import (
	"errors"
	"log"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrNotEnrolled          = errors.New("not enrolled in this course")
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAlreadySubmitted     = errors.New("attempt already submitted")
)

// OptionView and QuestionView are the learner-facing shapes: correctness flags
// and answer keys are stripped before anything leaves the engine.
type OptionView struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Order int       `json:"order"`
}

type QuestionView struct {
	ID         uuid.UUID    `json:"id"`
	Type       string       `json:"type"`
	PromptHTML string       `json:"prompt_html"`
	Points     int          `json:"points"`
	Order      int          `json:"order"`
	Options    []OptionView `json:"options"`
}

type StartedAttempt struct {
	Attempt   models.QuizAttempt `json:"attempt"`
	Questions []QuestionView     `json:"questions"`
}

// StartQuizAttempt creates the next attempt for (user, quiz). The attempt
// number is count+1 inside a transaction; the composite unique index backs it
// up under concurrency, and on a lost race the transaction is retried once so
// the loser lands on the following number or hits the cap.
func StartQuizAttempt(db *gorm.DB, userID, quizID uuid.UUID) (*StartedAttempt, error) {
	var quiz models.Quiz
	if err := db.Preload("Questions.Options").First(&quiz, "id = ?", quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, err
	}

	var enrollment models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, quiz.CourseID).
		First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotEnrolled
		}
		return nil, err
	}
	if enrollment.Status != models.EnrollmentAssigned && enrollment.Status != models.EnrollmentStarted {
		return nil, ErrNotEnrolled
	}

	var attempt models.QuizAttempt
	for try := 0; try < 2; try++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.QuizAttempt{}).
				Where("user_id = ? AND quiz_id = ?", userID, quizID).
				Count(&count).Error; err != nil {
				return err
			}

			attemptNo := int(count) + 1
			if attemptNo > quiz.AttemptsAllowed {
				return ErrAttemptLimitExceeded
			}

			attempt = models.QuizAttempt{
				QuizID:    quizID,
				UserID:    userID,
				AttemptNo: attemptNo,
				Score:     0,
				Passed:    false,
				StartedAt: time.Now(),
			}
			if err := tx.Create(&attempt).Error; err != nil {
				return err
			}

			return RecordActivity(tx, &enrollment)
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) && try == 0 {
			continue
		}
		return nil, err
	}

	return &StartedAttempt{
		Attempt:   attempt,
		Questions: questionViews(quiz.Questions, quiz.Randomize),
	}, nil
}

// questionViews orders questions by their authored position, or by a fresh
// uniform shuffle when the quiz randomizes. The shuffle is re-rolled per start
// and never stored.
func questionViews(questions []models.Question, randomize bool) []QuestionView {
	ordered := make([]models.Question, len(questions))
	copy(ordered, questions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	if randomize {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		rng.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}

	views := make([]QuestionView, len(ordered))
	for i, q := range ordered {
		opts := make([]models.QuestionOption, len(q.Options))
		copy(opts, q.Options)
		sort.Slice(opts, func(a, b int) bool { return opts[a].Position < opts[b].Position })

		optViews := make([]OptionView, len(opts))
		for j, o := range opts {
			optViews[j] = OptionView{ID: o.ID, Label: o.Label, Order: j + 1}
		}
		views[i] = QuestionView{
			ID:         q.ID,
			Type:       q.Type,
			PromptHTML: q.PromptHTML,
			Points:     q.Points,
			Order:      i + 1,
			Options:    optViews,
		}
	}
	return views
}

type SubmittedAnswer struct {
	QuestionID        uuid.UUID   `json:"question_id"`
	SelectedOptionIDs []uuid.UUID `json:"selected_option_ids"`
	AnswerText        string      `json:"answer_text"`
}

type SubmitResult struct {
	Attempt     models.QuizAttempt  `json:"attempt"`
	Percentage  int                 `json:"percentage"`
	PassMark    int                 `json:"pass_mark"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
}

// SubmitQuizAttempt scores and finalizes an attempt. Attempts are immutable
// after submission, so a second submit is rejected. On a passing attempt for
// a certifying course it invokes the issuance orchestrator after the attempt
// commits; an issuance failure is logged, not surfaced, since the submission
// itself already succeeded.
func SubmitQuizAttempt(db *gorm.DB, userID, attemptID uuid.UUID, answers []SubmittedAnswer) (*SubmitResult, error) {
	var attempt models.QuizAttempt
	err := db.Preload("Quiz.Questions.Options").Preload("Quiz.Course").
		Where("id = ? AND user_id = ?", attemptID, userID).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.SubmittedAt != nil {
		return nil, ErrAlreadySubmitted
	}

	answerByQuestion := make(map[uuid.UUID]SubmittedAnswer, len(answers))
	for _, a := range answers {
		answerByQuestion[a.QuestionID] = a
	}

	score, maxScore := 0, 0
	attemptAnswers := make([]models.AttemptAnswer, 0, len(attempt.Quiz.Questions))
	for _, q := range attempt.Quiz.Questions {
		maxScore += q.Points

		answer, answered := answerByQuestion[q.ID]
		if !answered {
			continue
		}

		correct := isAnswerCorrect(q, answer)
		awarded := 0
		if correct {
			awarded = q.Points
			score += q.Points
		}
		attemptAnswers = append(attemptAnswers, models.AttemptAnswer{
			QuizAttemptID:     attempt.ID,
			QuestionID:        q.ID,
			SelectedOptionIDs: joinOptionIDs(answer.SelectedOptionIDs),
			AnswerText:        answer.AnswerText,
			IsCorrect:         correct,
			PointsAwarded:     awarded,
		})
	}

	passMark := attempt.Quiz.Course.PassMark
	if attempt.Quiz.PassMarkOverride != nil {
		passMark = *attempt.Quiz.PassMarkOverride
	}

	percentage := 0
	if maxScore > 0 {
		percentage = int(math.Round(float64(score) / float64(maxScore) * 100))
	}
	passed := percentage >= passMark
	if maxScore == 0 {
		// No scoreable questions: percentage is undefined, so only a zero
		// pass mark counts as passing.
		passed = passMark <= 0
	}

	now := time.Now()
	attempt.Score = score
	attempt.MaxScore = maxScore
	attempt.Passed = passed
	attempt.SubmittedAt = &now

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.QuizAttempt{}).
			Where("id = ? AND submitted_at IS NULL", attempt.ID).
			Updates(map[string]interface{}{
				"score":        score,
				"max_score":    maxScore,
				"passed":       passed,
				"submitted_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadySubmitted
		}
		if len(attemptAnswers) > 0 {
			if err := tx.Create(&attemptAnswers).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{
		Attempt:    attempt,
		Percentage: percentage,
		PassMark:   passMark,
	}

	if passed && attempt.Quiz.Course.RequiresCertificate {
		cert, err := IssueCertificate(db, IssueParams{
			UserID:     userID,
			CourseID:   attempt.Quiz.CourseID,
			Score:      score,
			MaxScore:   maxScore,
			TemplateID: attempt.Quiz.Course.TemplateID,
			ExpiryDays: attempt.Quiz.Course.CertificateExpiryDays,
		})
		if err != nil {
			log.Printf("🔥 Failed to issue certificate for user %s on course %s: %v",
				userID, attempt.Quiz.CourseID, err)
		} else {
			result.Certificate = cert
		}
	}

	return result, nil
}

// isAnswerCorrect applies the per-type correctness rule. Multi-choice is
// all-or-nothing: the selected set must equal the correct set exactly.
// Short answers match the stored key after trimming and case folding.
func isAnswerCorrect(q models.Question, answer SubmittedAnswer) bool {
	switch q.Type {
	case models.QuestionSingleChoice, models.QuestionTrueFalse:
		if len(answer.SelectedOptionIDs) != 1 {
			return false
		}
		for _, o := range q.Options {
			if o.ID == answer.SelectedOptionIDs[0] {
				return o.IsCorrect
			}
		}
		return false

	case models.QuestionMultiChoice:
		correct := make(map[uuid.UUID]bool)
		for _, o := range q.Options {
			if o.IsCorrect {
				correct[o.ID] = true
			}
		}
		if len(answer.SelectedOptionIDs) != len(correct) || len(correct) == 0 {
			return false
		}
		seen := make(map[uuid.UUID]bool, len(answer.SelectedOptionIDs))
		for _, id := range answer.SelectedOptionIDs {
			if !correct[id] || seen[id] {
				return false
			}
			seen[id] = true
		}
		return true

	case models.QuestionShortAnswer:
		if q.AnswerKey == nil {
			return false
		}
		given := strings.ToLower(strings.TrimSpace(answer.AnswerText))
		expected := strings.ToLower(strings.TrimSpace(*q.AnswerKey))
		return given != "" && given == expected

	default:
		return false
	}
}

func joinOptionIDs(ids []uuid.UUID) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
