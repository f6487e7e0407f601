package controllers

import (
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	quizModels "lms/models/quiz"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// GetAdminDashboard returns platform-wide counts plus the certificate
// aggregate in one call.
func GetAdminDashboard(c *fiber.Ctx) error {
	db := database.Database.Db

	var (
		totalUsers     int64
		totalCourses   int64
		totalSittings  int64
		passedSittings int64
	)
	db.Model(&models.User{}).Where("is_deleted = ?", false).Count(&totalUsers)
	db.Model(&courseModels.Course{}).Where("is_deleted = ?", false).Count(&totalCourses)
	db.Model(&quizModels.Sitting{}).Where("complete = ? AND is_deleted = ?", true, false).Count(&totalSittings)
	db.Model(&quizModels.Sitting{}).Where("approved_at IS NOT NULL AND is_deleted = ?", false).Count(&passedSittings)

	stats, err := services.AggregateCertificateStats(db, time.Now())
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch dashboard!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard fetched successfully!", fiber.Map{
		"users":          totalUsers,
		"courses":        totalCourses,
		"exam_sittings":  totalSittings,
		"approved_exams": passedSittings,
		"certificates":   stats,
	})
}
