package services

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/ViableSystemsGlobal/lms-backend/models"
	"gorm.io/gorm"
)

const settingCategoryBranding = "branding"

// BrandingSettings is the resolved configuration the credential renderer works
// with: defaults merged with whatever an admin stored.
type BrandingSettings struct {
	PrimaryColor string `json:"primary_color"`
	CompanyName  string `json:"company_name"`
	LogoURL      string `json:"logo_url"`
}

// BrandingOverride carries only the fields an admin explicitly set. Nil means
// "keep the default".
type BrandingOverride struct {
	PrimaryColor *string `json:"primary_color,omitempty"`
	CompanyName  *string `json:"company_name,omitempty"`
	LogoURL      *string `json:"logo_url,omitempty"`
}

func DefaultBranding() BrandingSettings {
	return BrandingSettings{
		PrimaryColor: "#1d4ed8",
		CompanyName:  "Viable Learning",
		LogoURL:      "",
	}
}

// MergeBranding applies the non-nil override fields on top of base.
func MergeBranding(base BrandingSettings, override BrandingOverride) BrandingSettings {
	if override.PrimaryColor != nil {
		base.PrimaryColor = *override.PrimaryColor
	}
	if override.CompanyName != nil {
		base.CompanyName = *override.CompanyName
	}
	if override.LogoURL != nil {
		base.LogoURL = *override.LogoURL
	}
	return base
}

// GetBranding resolves the effective branding. A missing row or a corrupt blob
// falls back to defaults rather than failing the caller.
func GetBranding(db *gorm.DB) BrandingSettings {
	branding := DefaultBranding()

	var setting models.Setting
	err := db.Where("category = ?", settingCategoryBranding).First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failed to load branding settings, using defaults: %v", err)
		}
		return branding
	}

	var override BrandingOverride
	if err := json.Unmarshal([]byte(setting.Data), &override); err != nil {
		log.Printf("Corrupt branding settings blob, using defaults: %v", err)
		return branding
	}
	return MergeBranding(branding, override)
}

// UpdateBranding stores the override blob and returns the resolved result.
func UpdateBranding(db *gorm.DB, override BrandingOverride) (BrandingSettings, error) {
	data, err := json.Marshal(override)
	if err != nil {
		return BrandingSettings{}, err
	}

	var setting models.Setting
	err = db.Where("category = ?", settingCategoryBranding).First(&setting).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.Setting{Category: settingCategoryBranding, Data: string(data)}
		if err := db.Create(&setting).Error; err != nil {
			return BrandingSettings{}, err
		}
	case err != nil:
		return BrandingSettings{}, err
	default:
		setting.Data = string(data)
		if err := db.Save(&setting).Error; err != nil {
			return BrandingSettings{}, err
		}
	}

	return MergeBranding(DefaultBranding(), override), nil
}
