package services

import (
	"time"

	"github.com/ViableSystemsGlobal/lms-backend/models"
	"gorm.io/gorm"
)

// RecordActivity applies the shared first-activity transition used by both
// lesson completion and quiz starts: an assigned enrollment becomes started.
// It is a no-op once the enrollment is past assigned, so callers can invoke it
// unconditionally. The status guard in the WHERE clause keeps concurrent first
// activities from resetting started_at.
func RecordActivity(tx *gorm.DB, enrollment *models.Enrollment) error {
	if enrollment.Status != models.EnrollmentAssigned {
		return nil
	}

	now := time.Now()
	res := tx.Model(&models.Enrollment{}).
		Where("id = ? AND status = ?", enrollment.ID, models.EnrollmentAssigned).
		Updates(map[string]interface{}{
			"status":     models.EnrollmentStarted,
			"started_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		enrollment.Status = models.EnrollmentStarted
		enrollment.StartedAt = &now
	}
	return nil
}

// CompleteEnrollmentIfFinished marks the enrollment completed once every
// lesson of its course has a progress row.
func CompleteEnrollmentIfFinished(tx *gorm.DB, enrollment *models.Enrollment) error {
	if enrollment.Status == models.EnrollmentCompleted {
		return nil
	}

	var lessonCount int64
	if err := tx.Model(&models.Lesson{}).
		Where("course_id = ?", enrollment.CourseID).
		Count(&lessonCount).Error; err != nil {
		return err
	}
	if lessonCount == 0 {
		return nil
	}

	var doneCount int64
	if err := tx.Model(&models.LessonProgress{}).
		Where("enrollment_id = ?", enrollment.ID).
		Count(&doneCount).Error; err != nil {
		return err
	}
	if doneCount < lessonCount {
		return nil
	}

	now := time.Now()
	if err := tx.Model(&models.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Updates(map[string]interface{}{
			"status":       models.EnrollmentCompleted,
			"completed_at": now,
		}).Error; err != nil {
		return err
	}
	enrollment.Status = models.EnrollmentCompleted
	enrollment.CompletedAt = &now
	return nil
}
