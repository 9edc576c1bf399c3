package routes

import (
	"github.com/ViableSystemsGlobal/lms-backend/handlers"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func EnrollmentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	enrollments := api.Group("/enrollments", middleware.Protected())
	enrollments.Get("/mine", handlers.ListMyEnrollments)
}
