package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/ViableSystemsGlobal/lms-backend/notifications"
)

const expiryReminderWindowDays = 30

// SendExpiryReminders mails recipients whose certificates expire within the
// reminder window. Revoked certificates are skipped; expiry of a revoked
// credential is moot.
func SendExpiryReminders() {
	log.Println("Running job: SendExpiryReminders...")

	now := time.Now()
	windowEnd := now.AddDate(0, 0, expiryReminderWindowDays)

	var expiring []models.Certificate
	err := database.DB.
		Preload("User").
		Preload("Course").
		Where("revoked_at IS NULL AND expiry_at IS NOT NULL AND expiry_at BETWEEN ? AND ?", now, windowEnd).
		Find(&expiring).Error
	if err != nil {
		log.Printf("Error checking for expiring certificates: %v", err)
		return
	}
	if len(expiring) == 0 {
		return
	}

	for _, cert := range expiring {
		log.Printf("Sending expiry reminder for certificate %s", cert.Number)

		emailSubject := "Your certificate is expiring soon"
		emailBody := fmt.Sprintf(
			"<h1>Certificate Expiry Reminder</h1><p>Hi %s,</p><p>Your certificate <b>%s</b> for the course <b>%s</b> expires on %s. Consider re-taking the course to stay certified.</p>",
			cert.User.FullName,
			cert.Number,
			cert.Course.Title,
			cert.ExpiryAt.Format("January 2, 2006"),
		)

		go notifications.SendEmail(cert.User.FullName, cert.User.Email, emailSubject, emailBody)
	}
}
