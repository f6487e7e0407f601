package utils

import (
	"fmt"
	"log"
	"time"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	quizModels "lms/models/quiz"
	"lms/services"

	"github.com/robfig/cron/v3"
)

func logScheduler(message string) {
	log.Printf("[CERT-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// processExpiringCertificates emails every holder whose certificate just
// entered the warning window. Runs once a day; the window check keeps the
// reminder to roughly one per certificate per month of remaining validity.
func processExpiringCertificates() {
	db := database.Database.Db
	today := time.Now()

	courseTitles := make(map[uint]string)
	var courses []courseModels.Course
	if err := db.Where("is_deleted = ?", false).Find(&courses).Error; err != nil {
		logScheduler("Error fetching courses: " + err.Error())
		return
	}
	for _, course := range courses {
		courseTitles[course.ID] = course.Title
	}

	var sittings []quizModels.Sitting
	err := db.Where("approved_at IS NOT NULL AND is_deleted = ?", false).Find(&sittings).Error
	if err != nil {
		logScheduler("Error fetching certificates: " + err.Error())
		return
	}

	reminded := 0
	for i := range sittings {
		s := &sittings[i]
		status := services.ClassifyCertificate(s, today)
		if status.Status != services.StatusExpiringSoon {
			continue
		}
		// only on the day the certificate crosses into the window
		if status.DaysUntilExpiry == nil || *status.DaysUntilExpiry != services.ExpiryWindowDays {
			continue
		}

		var user models.User
		if err := db.First(&user, s.UserID).Error; err != nil {
			continue
		}
		SendExpiryReminder(user.Email, user.Name, courseTitles[s.CourseID],
			status.ExpiresAt.Format("2006-01-02"))
		reminded++
	}

	if reminded > 0 {
		logScheduler(fmt.Sprintf("Sent %d expiry reminders", reminded))
	}
}

// StartCertScheduler runs the daily expiry reminder job.
func StartCertScheduler() {
	c := cron.New()

	// every day at 08:00
	_, err := c.AddFunc("0 8 * * *", processExpiringCertificates)
	if err != nil {
		log.Fatalf("Failed to schedule certificate reminders: %v", err)
	}

	c.Start()
	logScheduler("Certificate scheduler started")
}
