package routes

import (
	"github.com/ViableSystemsGlobal/lms-backend/handlers"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func CourseRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	courses := api.Group("/courses", middleware.Protected())
	courses.Get("", handlers.ListCourses)
	courses.Get("/:courseId", handlers.GetCourse)

	manage := api.Group("/courses", middleware.Protected(), middleware.InstructorRequired())
	manage.Post("", handlers.CreateCourse)
	manage.Put("/:courseId", handlers.UpdateCourse)
	manage.Delete("/:courseId", handlers.DeleteCourse)
	manage.Post("/:courseId/lessons", handlers.CreateLesson)

	lessons := api.Group("/lessons", middleware.Protected())
	lessons.Post("/:lessonId/complete", handlers.CompleteLesson)

	manageLessons := api.Group("/lessons", middleware.Protected(), middleware.InstructorRequired())
	manageLessons.Put("/:lessonId", handlers.UpdateLesson)
	manageLessons.Delete("/:lessonId", handlers.DeleteLesson)
}
