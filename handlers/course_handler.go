package handlers

import (
	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CourseRequest struct {
	Title                 string  `json:"title" validate:"required"`
	Description           string  `json:"description"`
	PassMark              *int    `json:"pass_mark" validate:"omitempty,gte=0,lte=100"`
	RequiresCertificate   *bool   `json:"requires_certificate"`
	CertificateExpiryDays *int    `json:"certificate_expiry_days" validate:"omitempty,gte=0"`
	TemplateID            *string `json:"template_id" validate:"omitempty,uuid4"`
	IsPublished           *bool   `json:"is_published"`
}

func applyCourseRequest(course *models.Course, req CourseRequest) error {
	course.Title = req.Title
	course.Description = req.Description
	if req.PassMark != nil {
		course.PassMark = *req.PassMark
	}
	if req.RequiresCertificate != nil {
		course.RequiresCertificate = *req.RequiresCertificate
	}
	course.CertificateExpiryDays = req.CertificateExpiryDays
	if req.TemplateID != nil {
		templateID, err := uuid.Parse(*req.TemplateID)
		if err != nil {
			return err
		}
		course.TemplateID = &templateID
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}
	return nil
}

func CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	creatorID := middleware.CurrentUserID(c)
	course := models.Course{CreatedByID: &creatorID}
	if err := applyCourseRequest(&course, req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template id"})
	}
	if req.TemplateID != nil {
		var tmpl models.CertificateTemplate
		if err := database.DB.First(&tmpl, "id = ?", *course.TemplateID).Error; err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Certificate template not found"})
		}
	}

	if err := database.DB.Create(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create course"})
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func ListCourses(c *fiber.Ctx) error {
	var courses []models.Course
	query := database.DB.Preload("Lessons")
	if middleware.CurrentRole(c) == models.RoleStudent {
		query = query.Where("is_published = ?", true)
	}
	query.Find(&courses)
	return c.JSON(courses)
}

func GetCourse(c *fiber.Ctx) error {
	courseID := c.Params("courseId")
	var course models.Course
	if err := database.DB.Preload("Lessons").Preload("Quizzes").First(&course, "id = ?", courseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	return c.JSON(course)
}

func UpdateCourse(c *fiber.Ctx) error {
	courseID := c.Params("courseId")
	var course models.Course
	if err := database.DB.First(&course, "id = ?", courseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := applyCourseRequest(&course, req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid template id"})
	}
	if err := database.DB.Save(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update course"})
	}
	return c.JSON(course)
}

func DeleteCourse(c *fiber.Ctx) error {
	courseID := c.Params("courseId")
	result := database.DB.Delete(&models.Course{}, "id = ?", courseID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete course"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type LessonRequest struct {
	Title       string `json:"title" validate:"required"`
	ContentHTML string `json:"content_html"`
	Position    int    `json:"position" validate:"gte=0"`
}

func CreateLesson(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("courseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course id"})
	}

	var course models.Course
	if err := database.DB.First(&course, "id = ?", courseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	var req LessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	lesson := models.Lesson{
		CourseID:    courseID,
		Title:       req.Title,
		ContentHTML: req.ContentHTML,
		Position:    req.Position,
	}
	if err := database.DB.Create(&lesson).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create lesson"})
	}
	return c.Status(fiber.StatusCreated).JSON(lesson)
}

func UpdateLesson(c *fiber.Ctx) error {
	lessonID := c.Params("lessonId")
	var lesson models.Lesson
	if err := database.DB.First(&lesson, "id = ?", lessonID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
	}

	var req LessonRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	lesson.Title = req.Title
	lesson.ContentHTML = req.ContentHTML
	lesson.Position = req.Position
	database.DB.Save(&lesson)

	return c.JSON(lesson)
}

func DeleteLesson(c *fiber.Ctx) error {
	lessonID := c.Params("lessonId")
	result := database.DB.Delete(&models.Lesson{}, "id = ?", lessonID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete lesson"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
