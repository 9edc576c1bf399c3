package services

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	config "github.com/ViableSystemsGlobal/lms-backend/configs"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/ViableSystemsGlobal/lms-backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrTemplateNotFound    = errors.New("certificate template not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrAlreadyRevoked      = errors.New("certificate already revoked")
)

func CertificateDir() string {
	return config.ConfigOr("CERTIFICATE_DIR", "./storage/certificates")
}

func QRCodeDir() string {
	return config.ConfigOr("QRCODE_DIR", "./storage/qrcodes")
}

// IssueParams is the contract of the issuance orchestrator.
type IssueParams struct {
	UserID     uuid.UUID
	CourseID   uuid.UUID
	Score      int
	MaxScore   int
	TemplateID *uuid.UUID
	ExpiryDays *int
}

// IssueCertificate resolves the recipient and course, renders both artifacts
// to disk, and only then inserts the ledger row, so a row never references
// artifacts that do not exist. If the user already holds an active
// certificate for the course, that record is returned unchanged. A number
// collision on insert, while practically unreachable, regenerates the number
// and retries once.
func IssueCertificate(db *gorm.DB, p IssueParams) (*models.Certificate, error) {
	var user models.User
	if err := db.First(&user, "id = ?", p.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var course models.Course
	if err := db.First(&course, "id = ?", p.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	// Duplicate triggers (a retried submit, a double-fired webhook) must not
	// mint a second credential for the same completion.
	var existing models.Certificate
	err := db.Where("user_id = ? AND course_id = ? AND revoked_at IS NULL", p.UserID, p.CourseID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	templateID := p.TemplateID
	if templateID == nil {
		templateID = course.TemplateID
	}
	var tmpl *models.CertificateTemplate
	if templateID != nil {
		tmpl = &models.CertificateTemplate{}
		if err := db.First(tmpl, "id = ?", *templateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, err
		}
	}

	expiryDays := p.ExpiryDays
	if expiryDays == nil && tmpl != nil {
		expiryDays = tmpl.DefaultExpiryDays
	}
	if expiryDays == nil {
		expiryDays = course.CertificateExpiryDays
	}

	branding := GetBranding(db)
	if tmpl != nil && tmpl.PrimaryColor != nil {
		branding.PrimaryColor = *tmpl.PrimaryColor
	}

	if err := os.MkdirAll(CertificateDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create certificate dir: %w", err)
	}
	if err := os.MkdirAll(QRCodeDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create qrcode dir: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		number, err := utils.GenerateCertificateNumber()
		if err != nil {
			return nil, err
		}
		issuedAt := time.Now()

		verifyURL := utils.VerificationURL(number)
		qrPNG, err := GenerateQRCode(verifyURL)
		if err != nil {
			return nil, fmt.Errorf("generate qr code: %w", err)
		}
		qrPath := filepath.Join(QRCodeDir(), number+".png")
		if err := os.WriteFile(qrPath, qrPNG, 0o644); err != nil {
			return nil, fmt.Errorf("write qr code: %w", err)
		}

		html, err := renderCertificateHTML(CertificateData{
			RecipientName: user.FullName,
			CourseTitle:   course.Title,
			Score:         p.Score,
			MaxScore:      p.MaxScore,
			Number:        number,
			IssuedAt:      issuedAt,
			VerifyURL:     verifyURL,
		}, branding, qrPNG)
		if err != nil {
			return nil, fmt.Errorf("render certificate html: %w", err)
		}
		pdfBytes, err := renderPDF(html)
		if err != nil {
			return nil, fmt.Errorf("render certificate pdf: %w", err)
		}
		pdfPath := filepath.Join(CertificateDir(), number+".pdf")
		if err := os.WriteFile(pdfPath, pdfBytes, 0o644); err != nil {
			return nil, fmt.Errorf("write certificate pdf: %w", err)
		}

		cert := models.Certificate{
			Number:     number,
			UserID:     user.ID,
			CourseID:   course.ID,
			TemplateID: templateID,
			Score:      p.Score,
			MaxScore:   p.MaxScore,
			IssuedAt:   issuedAt,
			PdfURL:     "/files/certificates/" + number + ".pdf",
			QRCodeURL:  "/files/qrcodes/" + number + ".png",
		}
		if expiryDays != nil {
			expiry := issuedAt.AddDate(0, 0, *expiryDays)
			cert.ExpiryAt = &expiry
		}

		if err := db.Create(&cert).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				log.Printf("Certificate number collision on %s, regenerating", number)
				continue
			}
			return nil, err
		}
		return &cert, nil
	}

	return nil, errors.New("could not allocate a unique certificate number")
}

// RevokeCertificate is terminal: revoked_at is set once and never overwritten.
// Revoking an already revoked certificate is rejected so the original
// timestamp and reason stand.
func RevokeCertificate(db *gorm.DB, certID uuid.UUID, reason string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := db.First(&cert, "id = ?", certID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	if cert.RevokedAt != nil {
		return nil, ErrAlreadyRevoked
	}

	now := time.Now()
	res := db.Model(&models.Certificate{}).
		Where("id = ? AND revoked_at IS NULL", cert.ID).
		Updates(map[string]interface{}{
			"revoked_at":    now,
			"revoke_reason": reason,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyRevoked
	}

	cert.RevokedAt = &now
	cert.RevokeReason = &reason
	return &cert, nil
}

// FindCertificateByNumber backs the public verification endpoints.
func FindCertificateByNumber(db *gorm.DB, number string) (*models.Certificate, error) {
	var cert models.Certificate
	err := db.Preload("User").Preload("Course").
		Where("number = ?", number).
		First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	return &cert, nil
}
