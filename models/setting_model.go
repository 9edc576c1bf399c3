package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Setting stores one category of configuration as a JSON blob of overrides.
// Defaults live in code; the stored blob only carries what an admin changed.
type Setting struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Category string    `gorm:"size:64;not null;unique" json:"category"`
	Data     string    `gorm:"type:text;not null;default:'{}'" json:"data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Setting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
