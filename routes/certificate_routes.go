package routes

import (
	"github.com/ViableSystemsGlobal/lms-backend/handlers"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func CertificateRoutes(app *fiber.App) {
	// Public verification surface: the QR code resolves here without auth.
	app.Get("/certificates/verify/:number", handlers.VerifyCertificatePage)
	app.Get("/api/v1/certificates/verify/:number", handlers.VerifyCertificate)

	// Artifact serving, filename-guarded.
	app.Get("/files/certificates/:filename", handlers.ServeCertificateFile)
	app.Get("/files/qrcodes/:filename", handlers.ServeQRCodeFile)

	api := app.Group("/api/v1")

	certs := api.Group("/certificates", middleware.Protected())
	certs.Get("/mine", handlers.ListMyCertificates)
	certs.Get("/:certificateId/download", handlers.DownloadCertificate)

	admin := api.Group("/admin/certificates", middleware.Protected(), middleware.AdminRequired())
	admin.Get("", handlers.ListAllCertificates)
	admin.Post("", handlers.IssueCertificate)
	admin.Patch("/:certificateId", handlers.RevokeCertificate)

	templates := api.Group("/admin/certificate-templates", middleware.Protected(), middleware.AdminRequired())
	templates.Post("", handlers.CreateCertificateTemplate)
	templates.Get("", handlers.ListCertificateTemplates)
	templates.Put("/:templateId", handlers.UpdateCertificateTemplate)
	templates.Delete("/:templateId", handlers.DeleteCertificateTemplate)
}
