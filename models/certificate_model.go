package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CertificateStatusActive  = "active"
	CertificateStatusExpired = "expired"
	CertificateStatusRevoked = "revoked"
)

type Certificate struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`

	// Number is the externally visible verification key. It stays unique across
	// the whole ledger, revoked and expired rows included, and is immutable
	// once issued.
	Number string `gorm:"size:64;not null;unique" json:"number"`

	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	CourseID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	TemplateID *uuid.UUID `gorm:"type:uuid" json:"template_id"`

	Score    int `gorm:"not null" json:"score"`
	MaxScore int `gorm:"not null" json:"max_score"`

	IssuedAt     time.Time  `gorm:"not null" json:"issued_at"`
	ExpiryAt     *time.Time `json:"expiry_at"`
	RevokedAt    *time.Time `json:"revoked_at"`
	RevokeReason *string    `gorm:"type:text" json:"revoke_reason"`

	PdfURL    string `gorm:"type:text;not null" json:"pdf_url"`
	QRCodeURL string `gorm:"type:text;not null" json:"qr_code_url"`

	User     User                 `gorm:"foreignkey:UserID" json:"user,omitempty"`
	Course   Course               `gorm:"foreignkey:CourseID" json:"course,omitempty"`
	Template *CertificateTemplate `gorm:"foreignkey:TemplateID" json:"template,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Certificate) IsRevoked() bool {
	return c.RevokedAt != nil
}

func (c *Certificate) IsExpired() bool {
	return c.ExpiryAt != nil && c.ExpiryAt.Before(time.Now())
}

// Status resolves the display state; revocation wins over expiry.
func (c *Certificate) Status() string {
	switch {
	case c.IsRevoked():
		return CertificateStatusRevoked
	case c.IsExpired():
		return CertificateStatusExpired
	default:
		return CertificateStatusActive
	}
}

type CertificateTemplate struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"size:255;not null;unique" json:"name"`
	Description string    `gorm:"type:text" json:"description"`

	PrimaryColor      *string `gorm:"size:20" json:"primary_color"`
	DefaultExpiryDays *int    `json:"default_expiry_days"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *CertificateTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
