package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/ViableSystemsGlobal/lms-backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuizApp() *fiber.App {
	app := fiber.New()
	quizzes := app.Group("/api/v1/quizzes", middleware.Protected())
	quizzes.Post("/:quizId/start", StartQuiz)
	quizzes.Post("/attempts/:attemptId/submit", SubmitQuiz)
	return app
}

func seedStartedAttempt(t *testing.T) (models.User, *services.StartedAttempt) {
	t.Helper()

	user := models.User{FullName: "Ama Mensah", Email: t.Name() + "@example.com", Password: "x", Role: models.RoleStudent}
	require.NoError(t, database.DB.Create(&user).Error)
	course := models.Course{Title: "Workplace Safety", PassMark: 70}
	require.NoError(t, database.DB.Create(&course).Error)
	enrollment := models.Enrollment{
		UserID:     user.ID,
		CourseID:   course.ID,
		Status:     models.EnrollmentAssigned,
		AssignedAt: time.Now(),
	}
	require.NoError(t, database.DB.Create(&enrollment).Error)

	quiz := models.Quiz{CourseID: course.ID, Title: "Final Assessment", AttemptsAllowed: 1}
	require.NoError(t, database.DB.Create(&quiz).Error)
	question := models.Question{
		QuizID:     quiz.ID,
		Type:       models.QuestionSingleChoice,
		PromptHTML: "<p>Which exit do you use in a fire?</p>",
		Points:     2,
		Position:   1,
		Options: []models.QuestionOption{
			{Label: "The nearest marked exit", IsCorrect: true, Position: 1},
			{Label: "The elevator", Position: 2},
		},
	}
	require.NoError(t, database.DB.Create(&question).Error)

	started, err := services.StartQuizAttempt(database.DB, user.ID, quiz.ID)
	require.NoError(t, err)
	return user, started
}

// A learner may submit without answering anything; the attempt finalizes with
// a zero score instead of bouncing off validation.
func TestSubmitQuizEmptyAnswers(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	useTestDB(t)
	user, started := seedStartedAttempt(t)
	app := newQuizApp()

	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/quizzes/attempts/"+started.Attempt.ID.String()+"/submit",
		bytes.NewReader([]byte(`{"answers":[]}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, user.ID, models.RoleStudent))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	attempt := body["attempt"].(map[string]interface{})
	assert.Equal(t, float64(0), attempt["score"])
	assert.Equal(t, float64(2), attempt["max_score"])
	assert.Equal(t, false, attempt["passed"])
	assert.NotNil(t, attempt["submitted_at"])
	assert.Equal(t, float64(0), body["percentage"])
}
