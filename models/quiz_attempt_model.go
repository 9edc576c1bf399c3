package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizAttempt struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_user_quiz_no" json:"quiz_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_attempt_user_quiz_no" json:"user_id"`

	// AttemptNo starts at 1 and is contiguous per (user, quiz). The composite
	// unique index makes concurrent starts race-safe: the loser of the race
	// fails the insert instead of duplicating a number.
	AttemptNo int `gorm:"not null;uniqueIndex:idx_attempt_user_quiz_no" json:"attempt_no"`

	Score       int        `gorm:"not null;default:0" json:"score"`
	MaxScore    int        `gorm:"not null;default:0" json:"max_score"`
	Passed      bool       `gorm:"default:false" json:"passed"`
	StartedAt   time.Time  `gorm:"not null" json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`

	Quiz Quiz `gorm:"foreignkey:QuizID" json:"quiz,omitempty"`
	User User `gorm:"foreignkey:UserID" json:"user,omitempty"`
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type AttemptAnswer struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuizAttemptID uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_attempt_id"`
	QuestionID    uuid.UUID `gorm:"type:uuid;not null" json:"question_id"`

	// SelectedOptionIDs is a comma-joined list for choice questions; AnswerText
	// carries the free-text response for short_answer questions.
	SelectedOptionIDs string `gorm:"type:text" json:"selected_option_ids"`
	AnswerText        string `gorm:"type:text" json:"answer_text"`

	IsCorrect     bool `gorm:"not null" json:"is_correct"`
	PointsAwarded int  `gorm:"not null;default:0" json:"points_awarded"`

	QuizAttempt QuizAttempt `gorm:"foreignkey:QuizAttemptID" json:"-"`
	Question    Question    `gorm:"foreignkey:QuestionID" json:"-"`
}

func (a *AttemptAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
