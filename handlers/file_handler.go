package handlers

import (
	"path/filepath"
	"strings"

	"github.com/ViableSystemsGlobal/lms-backend/services"
	"github.com/gofiber/fiber/v2"
)

// Artifact filenames are always {number}.{ext} with a number the generator
// produced; anything that does not match that shape never touches the
// filesystem.
func safeArtifactPath(dir, filename, wantExt string) (string, bool) {
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return "", false
	}
	ext := filepath.Ext(filename)
	if ext != wantExt {
		return "", false
	}
	if !certNumberPattern.MatchString(strings.TrimSuffix(filename, ext)) {
		return "", false
	}
	return filepath.Join(dir, filename), true
}

func ServeCertificateFile(c *fiber.Ctx) error {
	path, ok := safeArtifactPath(services.CertificateDir(), c.Params("filename"), ".pdf")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	}
	return c.SendFile(path)
}

func ServeQRCodeFile(c *fiber.Ctx) error {
	path, ok := safeArtifactPath(services.QRCodeDir(), c.Params("filename"), ".png")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	}
	return c.SendFile(path)
}
