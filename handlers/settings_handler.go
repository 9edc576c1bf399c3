package handlers

import (
	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/services"
	"github.com/gofiber/fiber/v2"
)

func GetBrandingSettings(c *fiber.Ctx) error {
	return c.JSON(services.GetBranding(database.DB))
}

type BrandingRequest struct {
	PrimaryColor *string `json:"primary_color" validate:"omitempty,hexcolor"`
	CompanyName  *string `json:"company_name" validate:"omitempty,min=1"`
	LogoURL      *string `json:"logo_url" validate:"omitempty,url"`
}

// UpdateBrandingSettings stores only the fields the admin sent; everything
// else keeps its default.
func UpdateBrandingSettings(c *fiber.Ctx) error {
	var req BrandingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resolved, err := services.UpdateBranding(database.DB, services.BrandingOverride{
		PrimaryColor: req.PrimaryColor,
		CompanyName:  req.CompanyName,
		LogoURL:      req.LogoURL,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update settings"})
	}
	return c.JSON(resolved)
}
