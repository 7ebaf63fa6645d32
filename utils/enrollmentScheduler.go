package utils

import (
	"log"
	"time"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
)

// InitializeEnrollmentScheduler sets up the enrollment access-expiry scheduler
func InitializeEnrollmentScheduler() {
	log.Println("[ENROLLMENT-SCHEDULER] Initializing enrollment scheduler...")

	c := cron.New()

	// Run daily at 9 AM to expire lapsed enrollments and send reminders
	c.AddFunc("0 9 * * *", func() {
		log.Println("[ENROLLMENT-SCHEDULER] Running daily enrollment check...")
		ProcessExpiringEnrollments()
		ExpireEnrollments()
	})

	c.Start()
	log.Println("[ENROLLMENT-SCHEDULER] Enrollment scheduler started - runs daily at 9 AM")
}

// ProcessExpiringEnrollments sends reminder emails for enrollments whose
// access window closes within 2 days
func ProcessExpiringEnrollments() {
	db := database.Database.Db
	now := time.Now()
	twoDaysFromNow := now.AddDate(0, 0, 2)

	var expiring []courseModels.Enrollment
	if err := db.
		Where("status = ? AND access_expires_at IS NOT NULL", courseModels.EnrollmentActive).
		Where("access_expires_at BETWEEN ? AND ?", now, twoDaysFromNow).
		Find(&expiring).Error; err != nil {
		log.Printf("[ENROLLMENT-SCHEDULER] Error fetching expiring enrollments: %v", err)
		return
	}

	log.Printf("[ENROLLMENT-SCHEDULER] Found %d enrollments expiring soon", len(expiring))

	for _, enrollment := range expiring {
		var user models.User
		if err := db.Where("id = ?", enrollment.UserID).First(&user).Error; err != nil {
			log.Printf("[ENROLLMENT-SCHEDULER] Error fetching user %d: %v", enrollment.UserID, err)
			continue
		}
		var crs courseModels.Course
		if err := db.Where("id = ?", enrollment.CourseID).First(&crs).Error; err != nil {
			log.Printf("[ENROLLMENT-SCHEDULER] Error fetching course %d: %v", enrollment.CourseID, err)
			continue
		}

		SendExpiryReminderEmail(user.Email, user.Name, crs.Title, *enrollment.AccessExpiresAt)
	}
}

// ExpireEnrollments transitions active enrollments past their access window
// to expired. A status transition, never a delete; progress facts and any
// issued certificate stay untouched.
func ExpireEnrollments() {
	db := database.Database.Db

	res := db.Model(&courseModels.Enrollment{}).
		Where("status = ? AND access_expires_at IS NOT NULL AND access_expires_at < ?",
			courseModels.EnrollmentActive, time.Now()).
		Update("status", courseModels.EnrollmentExpired)
	if res.Error != nil {
		log.Printf("[ENROLLMENT-SCHEDULER] Error expiring enrollments: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("[ENROLLMENT-SCHEDULER] Expired %d enrollment(s)", res.RowsAffected)
	}
}
