package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EnrollmentAssigned  = "assigned"
	EnrollmentStarted   = "started"
	EnrollmentCompleted = "completed"
)

type Enrollment struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"user_id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"course_id"`
	Status   string    `gorm:"size:20;not null;default:'assigned'" json:"status"`

	AssignedAt  time.Time  `gorm:"not null" json:"assigned_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	User   User   `gorm:"foreignkey:UserID" json:"user,omitempty"`
	Course Course `gorm:"foreignkey:CourseID" json:"course,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type LessonProgress struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	EnrollmentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_enrollment_lesson" json:"enrollment_id"`
	LessonID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_enrollment_lesson" json:"lesson_id"`
	CompletedAt  time.Time `gorm:"not null" json:"completed_at"`

	Enrollment Enrollment `gorm:"foreignkey:EnrollmentID" json:"-"`
	Lesson     Lesson     `gorm:"foreignkey:LessonID" json:"lesson,omitempty"`
}

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
