package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/ViableSystemsGlobal/lms-backend/notifications"
	"github.com/ViableSystemsGlobal/lms-backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignEnrollmentRequest struct {
	UserID   string `json:"user_id" validate:"required,uuid4"`
	CourseID string `json:"course_id" validate:"required,uuid4"`
}

// AssignEnrollment puts a user on a course with status assigned.
func AssignEnrollment(c *fiber.Ctx) error {
	var req AssignEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	userID, _ := uuid.Parse(req.UserID)
	courseID, _ := uuid.Parse(req.CourseID)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	var course models.Course
	if err := database.DB.First(&course, "id = ?", courseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	enrollment := models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     models.EnrollmentAssigned,
		AssignedAt: time.Now(),
	}
	if err := database.DB.Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "User is already enrolled in this course"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create enrollment"})
	}

	go notifications.SendEmail(user.FullName, user.Email,
		"You have been assigned a course",
		fmt.Sprintf("<h1>New Course Assignment</h1><p>Hi %s,</p><p>You have been assigned to <b>%s</b>. Log in to get started.</p>", user.FullName, course.Title))

	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func ListMyEnrollments(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)

	var enrollments []models.Enrollment
	database.DB.Preload("Course.Lessons").Where("user_id = ?", userID).Find(&enrollments)
	return c.JSON(enrollments)
}

func ListCourseEnrollments(c *fiber.Ctx) error {
	courseID := c.Params("courseId")

	var enrollments []models.Enrollment
	database.DB.Preload("User").Where("course_id = ?", courseID).Find(&enrollments)
	return c.JSON(enrollments)
}

// CompleteLesson records lesson progress for the caller's enrollment. The
// first completed lesson also flips the enrollment from assigned to started;
// completing the last lesson completes the enrollment.
func CompleteLesson(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	lessonID := c.Params("lessonId")

	var lesson models.Lesson
	if err := database.DB.First(&lesson, "id = ?", lessonID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Lesson not found"})
	}

	var enrollment models.Enrollment
	if err := database.DB.Where("user_id = ? AND course_id = ?", userID, lesson.CourseID).
		First(&enrollment).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not enrolled in this course"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		progress := models.LessonProgress{
			EnrollmentID: enrollment.ID,
			LessonID:     lesson.ID,
			CompletedAt:  time.Now(),
		}
		if err := tx.Create(&progress).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Re-completing a lesson is a no-op.
				return nil
			}
			return err
		}
		if err := services.RecordActivity(tx, &enrollment); err != nil {
			return err
		}
		return services.CompleteEnrollmentIfFinished(tx, &enrollment)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record progress"})
	}

	return c.JSON(fiber.Map{
		"lesson_id":         lesson.ID,
		"enrollment_status": enrollment.Status,
	})
}
