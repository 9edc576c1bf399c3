package routes

import (
	"github.com/ViableSystemsGlobal/lms-backend/handlers"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func QuizRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	manage := api.Group("/quizzes", middleware.Protected(), middleware.InstructorRequired())
	manage.Post("", handlers.CreateQuiz)
	manage.Put("/:quizId", handlers.UpdateQuiz)
	manage.Delete("/:quizId", handlers.DeleteQuiz)
	manage.Get("/:quizId/full", handlers.GetQuiz)
	manage.Post("/:quizId/questions", handlers.CreateQuestion)
	manage.Delete("/questions/:questionId", handlers.DeleteQuestion)

	quizzes := api.Group("/quizzes", middleware.Protected())
	quizzes.Get("", handlers.ListQuizzes)
	quizzes.Post("/:quizId/start", handlers.StartQuiz)
	quizzes.Post("/attempts/:attemptId/submit", handlers.SubmitQuiz)
	quizzes.Get("/attempts/mine", handlers.ListMyAttempts)
}
