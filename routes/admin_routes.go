package routes

import (
	"github.com/ViableSystemsGlobal/lms-backend/handlers"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())
	admin.Get("/users", handlers.ListUsers)
	admin.Patch("/users/:userId", handlers.UpdateUser)

	admin.Post("/departments", handlers.CreateDepartment)
	admin.Get("/departments", handlers.ListDepartments)
	admin.Delete("/departments/:departmentId", handlers.DeleteDepartment)

	admin.Post("/enrollments", handlers.AssignEnrollment)
	admin.Get("/courses/:courseId/enrollments", handlers.ListCourseEnrollments)

	admin.Get("/settings/branding", handlers.GetBrandingSettings)
	admin.Put("/settings/branding", handlers.UpdateBrandingSettings)

	admin.Get("/uploads/signature", handlers.GenerateUploadSignature)
}
