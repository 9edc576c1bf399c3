package handlers

import (
	"errors"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/ViableSystemsGlobal/lms-backend/services"
	ws "github.com/ViableSystemsGlobal/lms-backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type QuizRequest struct {
	CourseID         string `json:"course_id" validate:"required,uuid4"`
	Title            string `json:"title" validate:"required"`
	Description      string `json:"description"`
	AttemptsAllowed  int    `json:"attempts_allowed" validate:"required,gt=0"`
	TimeLimitSec     *int   `json:"time_limit_sec" validate:"omitempty,gt=0"`
	Randomize        bool   `json:"randomize"`
	PassMarkOverride *int   `json:"pass_mark_override" validate:"omitempty,gte=0,lte=100"`
}

func CreateQuiz(c *fiber.Ctx) error {
	var req QuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	courseID, _ := uuid.Parse(req.CourseID)
	var course models.Course
	if err := database.DB.First(&course, "id = ?", courseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	quiz := models.Quiz{
		CourseID:         courseID,
		Title:            req.Title,
		Description:      req.Description,
		AttemptsAllowed:  req.AttemptsAllowed,
		TimeLimitSec:     req.TimeLimitSec,
		Randomize:        req.Randomize,
		PassMarkOverride: req.PassMarkOverride,
	}
	if err := database.DB.Create(&quiz).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create quiz"})
	}
	return c.Status(fiber.StatusCreated).JSON(quiz)
}

func ListQuizzes(c *fiber.Ctx) error {
	var quizzes []models.Quiz
	query := database.DB
	if courseID := c.Query("course_id"); courseID != "" {
		query = query.Where("course_id = ?", courseID)
	}
	query.Find(&quizzes)
	return c.JSON(quizzes)
}

func GetQuiz(c *fiber.Ctx) error {
	quizID := c.Params("quizId")
	var quiz models.Quiz
	if err := database.DB.Preload("Questions.Options").First(&quiz, "id = ?", quizID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	return c.JSON(quiz)
}

func UpdateQuiz(c *fiber.Ctx) error {
	quizID := c.Params("quizId")
	var quiz models.Quiz
	if err := database.DB.First(&quiz, "id = ?", quizID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}

	var req QuizRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	quiz.Title = req.Title
	quiz.Description = req.Description
	quiz.AttemptsAllowed = req.AttemptsAllowed
	quiz.TimeLimitSec = req.TimeLimitSec
	quiz.Randomize = req.Randomize
	quiz.PassMarkOverride = req.PassMarkOverride
	database.DB.Save(&quiz)

	return c.JSON(quiz)
}

func DeleteQuiz(c *fiber.Ctx) error {
	quizID := c.Params("quizId")
	result := database.DB.Delete(&models.Quiz{}, "id = ?", quizID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete quiz"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type QuestionOptionRequest struct {
	Label     string `json:"label" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position" validate:"gte=0"`
}

type QuestionRequest struct {
	Type       string                  `json:"type" validate:"required,oneof=single_choice multi_choice true_false short_answer"`
	PromptHTML string                  `json:"prompt_html" validate:"required"`
	Points     int                     `json:"points" validate:"required,gt=0"`
	Position   int                     `json:"position" validate:"gte=0"`
	AnswerKey  *string                 `json:"answer_key"`
	Options    []QuestionOptionRequest `json:"options" validate:"dive"`
}

func CreateQuestion(c *fiber.Ctx) error {
	quizID, err := uuid.Parse(c.Params("quizId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quiz id"})
	}
	var quiz models.Quiz
	if err := database.DB.First(&quiz, "id = ?", quizID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
	}

	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Type == models.QuestionShortAnswer && (req.AnswerKey == nil || *req.AnswerKey == "") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "short_answer questions require an answer_key"})
	}
	if req.Type != models.QuestionShortAnswer && len(req.Options) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Choice questions require options"})
	}

	question := models.Question{
		QuizID:     quizID,
		Type:       req.Type,
		PromptHTML: req.PromptHTML,
		Points:     req.Points,
		Position:   req.Position,
		AnswerKey:  req.AnswerKey,
	}
	for _, o := range req.Options {
		question.Options = append(question.Options, models.QuestionOption{
			Label:     o.Label,
			IsCorrect: o.IsCorrect,
			Position:  o.Position,
		})
	}

	if err := database.DB.Create(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create question"})
	}
	return c.Status(fiber.StatusCreated).JSON(question)
}

func DeleteQuestion(c *fiber.Ctx) error {
	questionID := c.Params("questionId")
	result := database.DB.Delete(&models.Question{}, "id = ?", questionID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete question"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StartQuiz opens the caller's next attempt and returns the question set with
// correctness stripped.
func StartQuiz(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	quizID, err := uuid.Parse(c.Params("quizId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid quiz id"})
	}

	started, err := services.StartQuizAttempt(database.DB, userID, quizID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuizNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Quiz not found"})
		case errors.Is(err, services.ErrNotEnrolled):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not enrolled in this course"})
		case errors.Is(err, services.ErrAttemptLimitExceeded):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Attempt limit exceeded"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start attempt"})
		}
	}

	var quiz models.Quiz
	database.DB.Select("id", "title", "time_limit_sec").First(&quiz, "id = ?", quizID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"attempt": fiber.Map{
			"id":             started.Attempt.ID,
			"attempt_no":     started.Attempt.AttemptNo,
			"started_at":     started.Attempt.StartedAt,
			"time_limit_sec": quiz.TimeLimitSec,
		},
		"questions": started.Questions,
	})
}

type SubmitAttemptRequest struct {
	Answers []struct {
		QuestionID        string   `json:"question_id" validate:"required,uuid4"`
		SelectedOptionIDs []string `json:"selected_option_ids" validate:"dive,uuid4"`
		AnswerText        string   `json:"answer_text"`
	} `json:"answers" validate:"dive"`
}

func SubmitQuiz(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	attemptID, err := uuid.Parse(c.Params("attemptId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid attempt id"})
	}

	var req SubmitAttemptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	answers := make([]services.SubmittedAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		questionID, _ := uuid.Parse(a.QuestionID)
		answer := services.SubmittedAnswer{
			QuestionID: questionID,
			AnswerText: a.AnswerText,
		}
		for _, raw := range a.SelectedOptionIDs {
			optionID, _ := uuid.Parse(raw)
			answer.SelectedOptionIDs = append(answer.SelectedOptionIDs, optionID)
		}
		answers = append(answers, answer)
	}

	result, err := services.SubmitQuizAttempt(database.DB, userID, attemptID, answers)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAttemptNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Attempt not found"})
		case errors.Is(err, services.ErrAlreadySubmitted):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Attempt has already been submitted"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to submit attempt"})
		}
	}

	ws.NotifyUser(userID, ws.EventAttemptGraded, fiber.Map{
		"attempt_id": result.Attempt.ID,
		"score":      result.Attempt.Score,
		"max_score":  result.Attempt.MaxScore,
		"percentage": result.Percentage,
		"passed":     result.Attempt.Passed,
	})
	if result.Certificate != nil {
		ws.NotifyUser(userID, ws.EventCertificateIssued, fiber.Map{
			"certificate_id": result.Certificate.ID,
			"number":         result.Certificate.Number,
			"pdf_url":        result.Certificate.PdfURL,
		})
	}

	return c.JSON(result)
}

func ListMyAttempts(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var attempts []models.QuizAttempt
	query := database.DB.Where("user_id = ?", userID).Order("started_at DESC")
	if quizID := c.Query("quiz_id"); quizID != "" {
		query = query.Where("quiz_id = ?", quizID)
	}
	query.Find(&attempts)
	return c.JSON(attempts)
}
