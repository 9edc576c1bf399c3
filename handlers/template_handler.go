package handlers

import (
	"errors"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CertificateTemplateRequest struct {
	Name              string  `json:"name" validate:"required"`
	Description       string  `json:"description"`
	PrimaryColor      *string `json:"primary_color" validate:"omitempty,hexcolor"`
	DefaultExpiryDays *int    `json:"default_expiry_days" validate:"omitempty,gte=0"`
}

func CreateCertificateTemplate(c *fiber.Ctx) error {
	var req CertificateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tmpl := models.CertificateTemplate{
		Name:              req.Name,
		Description:       req.Description,
		PrimaryColor:      req.PrimaryColor,
		DefaultExpiryDays: req.DefaultExpiryDays,
	}
	if err := database.DB.Create(&tmpl).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A template with this name already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create template"})
	}
	return c.Status(fiber.StatusCreated).JSON(tmpl)
}

func ListCertificateTemplates(c *fiber.Ctx) error {
	var templates []models.CertificateTemplate
	database.DB.Find(&templates)
	return c.JSON(templates)
}

func UpdateCertificateTemplate(c *fiber.Ctx) error {
	templateID := c.Params("templateId")
	var tmpl models.CertificateTemplate
	if err := database.DB.First(&tmpl, "id = ?", templateID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}

	var req CertificateTemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tmpl.Name = req.Name
	tmpl.Description = req.Description
	tmpl.PrimaryColor = req.PrimaryColor
	tmpl.DefaultExpiryDays = req.DefaultExpiryDays
	database.DB.Save(&tmpl)

	return c.JSON(tmpl)
}

// DeleteCertificateTemplate removes the template; issued certificates keep
// their template reference historically, so deletion is blocked while any
// course still points at it.
func DeleteCertificateTemplate(c *fiber.Ctx) error {
	templateID := c.Params("templateId")

	var courseCount int64
	database.DB.Model(&models.Course{}).Where("template_id = ?", templateID).Count(&courseCount)
	if courseCount > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Template is still referenced by courses"})
	}

	result := database.DB.Delete(&models.CertificateTemplate{}, "id = ?", templateID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete template"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Template not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
