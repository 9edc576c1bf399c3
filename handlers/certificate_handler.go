package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/ViableSystemsGlobal/lms-backend/notifications"
	"github.com/ViableSystemsGlobal/lms-backend/services"
	ws "github.com/ViableSystemsGlobal/lms-backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

//go:embed templates/verify.html
var verifyFS embed.FS

var verifyTmpl = template.Must(template.ParseFS(verifyFS, "templates/verify.html"))

// Certificate numbers are CERT-{millis}-{hex}; anything else is rejected
// before it can reach the filesystem.
var certNumberPattern = regexp.MustCompile(`^CERT-\d+-[0-9A-F]+$`)

type certificateView struct {
	models.Certificate
	Status    string `json:"status"`
	IsExpired bool   `json:"is_expired"`
	IsRevoked bool   `json:"is_revoked"`
}

func newCertificateView(cert models.Certificate) certificateView {
	return certificateView{
		Certificate: cert,
		Status:      cert.Status(),
		IsExpired:   cert.IsExpired(),
		IsRevoked:   cert.IsRevoked(),
	}
}

// VerifyCertificate is the public, unauthenticated JSON verification
// endpoint. An unknown number is a 404; a known but expired or revoked
// certificate is a 200 with valid=false and an explicit status.
func VerifyCertificate(c *fiber.Ctx) error {
	number := c.Params("number")
	if !certNumberPattern.MatchString(number) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"valid": false,
			"error": "Certificate not found",
		})
	}

	cert, err := services.FindCertificateByNumber(database.DB, number)
	if err != nil {
		if errors.Is(err, services.ErrCertificateNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"valid": false,
				"error": "Certificate not found",
			})
		}
		// Anonymous callers never see internal detail.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"valid": false,
			"error": "Verification is temporarily unavailable",
		})
	}

	view := newCertificateView(*cert)
	return c.JSON(fiber.Map{
		"valid":       !view.IsExpired && !view.IsRevoked,
		"status":      view.Status,
		"is_expired":  view.IsExpired,
		"is_revoked":  view.IsRevoked,
		"certificate": view,
	})
}

// VerifyCertificatePage renders the human-readable verification page linked
// from the QR code.
func VerifyCertificatePage(c *fiber.Ctx) error {
	number := c.Params("number")

	data := struct {
		Found         bool
		Status        string
		Number        string
		RecipientName string
		CourseTitle   string
		ScoreLine     string
		IssuedOn      string
		ExpiresOn     string
	}{Number: number}

	status := fiber.StatusNotFound
	if certNumberPattern.MatchString(number) {
		if cert, err := services.FindCertificateByNumber(database.DB, number); err == nil {
			data.Found = true
			data.Status = cert.Status()
			data.RecipientName = cert.User.FullName
			data.CourseTitle = cert.Course.Title
			data.ScoreLine = services.FormatScore(cert.Score, cert.MaxScore)
			data.IssuedOn = cert.IssuedAt.Format("January 2, 2006")
			if cert.ExpiryAt != nil {
				data.ExpiresOn = cert.ExpiryAt.Format("January 2, 2006")
			}
			status = fiber.StatusOK
		}
	}

	var page bytes.Buffer
	if err := verifyTmpl.Execute(&page, data); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Verification is temporarily unavailable")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(page.Bytes())
}

// DownloadCertificate streams the rendered PDF to the recipient or an
// elevated role.
func DownloadCertificate(c *fiber.Ctx) error {
	certID := c.Params("certificateId")

	var cert models.Certificate
	if err := database.DB.First(&cert, "id = ?", certID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
	}

	userID := middleware.CurrentUserID(c)
	role := middleware.CurrentRole(c)
	if cert.UserID != userID && role != models.RoleAdmin && role != models.RoleInstructor {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	if !certNumberPattern.MatchString(cert.Number) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Certificate artifact unavailable"})
	}
	pdfPath := filepath.Join(services.CertificateDir(), cert.Number+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate artifact not found"})
	}

	return c.Download(pdfPath, cert.Number+".pdf")
}

func ListMyCertificates(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var certs []models.Certificate
	database.DB.Preload("Course").Where("user_id = ?", userID).Order("issued_at DESC").Find(&certs)

	views := make([]certificateView, len(certs))
	for i, cert := range certs {
		views[i] = newCertificateView(cert)
	}
	return c.JSON(views)
}

func ListAllCertificates(c *fiber.Ctx) error {
	var certs []models.Certificate
	query := database.DB.Preload("User").Preload("Course").Order("issued_at DESC")
	if courseID := c.Query("course_id"); courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	query.Find(&certs)

	views := make([]certificateView, len(certs))
	for i, cert := range certs {
		views[i] = newCertificateView(cert)
	}
	return c.JSON(views)
}

type RevokeCertificateRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// RevokeCertificate is admin-only and terminal.
func RevokeCertificate(c *fiber.Ctx) error {
	certID, err := uuid.Parse(c.Params("certificateId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid certificate id"})
	}

	var req RevokeCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	cert, err := services.RevokeCertificate(database.DB, certID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCertificateNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
		case errors.Is(err, services.ErrAlreadyRevoked):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Certificate is already revoked"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to revoke certificate"})
		}
	}

	return c.JSON(newCertificateView(*cert))
}

type IssueCertificateRequest struct {
	UserID     string  `json:"user_id" validate:"required,uuid4"`
	CourseID   string  `json:"course_id" validate:"required,uuid4"`
	Score      int     `json:"score" validate:"gte=0"`
	MaxScore   int     `json:"max_score" validate:"gte=0"`
	TemplateID *string `json:"template_id" validate:"omitempty,uuid4"`
	ExpiryDays *int    `json:"expiry_days" validate:"omitempty,gte=0"`
}

// IssueCertificate mints a credential outside the quiz flow, e.g. for manual
// awards or migrated records. Admin-only.
func IssueCertificate(c *fiber.Ctx) error {
	var req IssueCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, _ := uuid.Parse(req.UserID)
	courseID, _ := uuid.Parse(req.CourseID)
	params := services.IssueParams{
		UserID:     userID,
		CourseID:   courseID,
		Score:      req.Score,
		MaxScore:   req.MaxScore,
		ExpiryDays: req.ExpiryDays,
	}
	if req.TemplateID != nil {
		templateID, _ := uuid.Parse(*req.TemplateID)
		params.TemplateID = &templateID
	}

	cert, err := services.IssueCertificate(database.DB, params)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrCourseNotFound),
			errors.Is(err, services.ErrTemplateNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue certificate"})
		}
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", cert.UserID).Error; err == nil {
		go notifications.SendEmail(user.FullName, user.Email,
			"Your certificate is ready",
			fmt.Sprintf("<h1>Congratulations!</h1><p>Your certificate <b>%s</b> has been issued. You can download it from your dashboard.</p>", cert.Number))
	}
	ws.NotifyUser(cert.UserID, ws.EventCertificateIssued, fiber.Map{
		"certificate_id": cert.ID,
		"number":         cert.Number,
		"pdf_url":        cert.PdfURL,
	})

	return c.Status(fiber.StatusCreated).JSON(newCertificateView(*cert))
}
