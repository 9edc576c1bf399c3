package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`

	// PassMark is the minimum percentage required to pass the course's quizzes,
	// unless a quiz carries its own override.
	PassMark              int        `gorm:"not null;default:70" json:"pass_mark"`
	RequiresCertificate   bool       `gorm:"default:false" json:"requires_certificate"`
	CertificateExpiryDays *int       `json:"certificate_expiry_days"`
	TemplateID            *uuid.UUID `gorm:"type:uuid" json:"template_id"`

	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id"`
	IsPublished bool       `gorm:"default:false" json:"is_published"`

	Lessons  []Lesson             `gorm:"foreignkey:CourseID" json:"lessons,omitempty"`
	Quizzes  []Quiz               `gorm:"foreignkey:CourseID" json:"quizzes,omitempty"`
	Template *CertificateTemplate `gorm:"foreignkey:TemplateID" json:"template,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Lesson struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	ContentHTML string    `gorm:"type:text" json:"content_html"`
	Position    int       `gorm:"not null;default:0" json:"position"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
