package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	QuestionSingleChoice = "single_choice"
	QuestionMultiChoice  = "multi_choice"
	QuestionTrueFalse    = "true_false"
	QuestionShortAnswer  = "short_answer"
)

type Quiz struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`

	AttemptsAllowed  int  `gorm:"not null;default:3" json:"attempts_allowed"`
	TimeLimitSec     *int `json:"time_limit_sec"`
	Randomize        bool `gorm:"default:false" json:"randomize"`
	PassMarkOverride *int `json:"pass_mark_override"`

	Course    Course     `gorm:"foreignkey:CourseID" json:"course,omitempty"`
	Questions []Question `gorm:"foreignkey:QuizID" json:"questions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type Question struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuizID     uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Type       string    `gorm:"size:20;not null;default:'single_choice'" json:"type"`
	PromptHTML string    `gorm:"type:text;not null" json:"prompt_html"`
	Points     int       `gorm:"not null;default:1" json:"points"`
	Position   int       `gorm:"not null;default:0" json:"position"`

	// AnswerKey holds the expected text for short_answer questions. Never exposed
	// to learners.
	AnswerKey *string `gorm:"type:text" json:"-"`

	Options []QuestionOption `gorm:"foreignkey:QuestionID" json:"options,omitempty"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

type QuestionOption struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index" json:"question_id"`
	Label      string    `gorm:"type:text;not null" json:"label"`
	Position   int       `gorm:"not null;default:0" json:"position"`

	// IsCorrect is only ever serialized on admin endpoints; learner-facing
	// payloads go through the sanitized views in the quiz service.
	IsCorrect bool `gorm:"default:false" json:"is_correct"`
}

func (o *QuestionOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
