package controllers

import (
	"lms/cache"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

type bulkProgressPayload struct {
	Progress map[uint]*services.CourseProgress `json:"progress"`
	Statuses map[uint]string                   `json:"statuses"`
	Exams    map[uint]*services.ExamInfo       `json:"exams"`
	Counts   map[string]int                    `json:"counts"`
}

// GetMyProgress returns progress and status across every active course with a
// fixed number of queries, cached per user.
func GetMyProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var payload bulkProgressPayload
	if cache.Default.Get(cache.BulkProgressKey(userID), &payload) {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", payload)
	}

	db := database.Database.Db

	var courseIDs []uint
	err := db.Model(&courseModels.Course{}).
		Where("is_deleted = ? AND is_active = ?", false, true).
		Pluck("id", &courseIDs).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	progress, err := services.GetBulkProgressForCourses(db, userID, courseIDs)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	statuses, err := services.GetBulkCourseStatus(db, userID, courseIDs)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}
	exams, err := services.GetBulkExamInfo(db, userID, courseIDs)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	counts := make(map[string]int)
	for _, status := range statuses {
		counts[status]++
	}

	payload = bulkProgressPayload{Progress: progress, Statuses: statuses, Exams: exams, Counts: counts}
	cache.Default.Set(cache.BulkProgressKey(userID), payload, cache.DynamicTTL)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", payload)
}

// GetCourseProgress returns one course's progress breakdown for the caller.
func GetCourseProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	var progress services.CourseProgress
	if cache.Default.Get(cache.UserProgressKey(userID, uint(courseID)), &progress) {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", progress)
	}

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	bulk, err := services.GetBulkProgressForCourses(db, userID, []uint{course.ID})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	progress = *bulk[course.ID]
	cache.Default.Set(cache.UserProgressKey(userID, course.ID), progress, cache.DynamicTTL)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", progress)
}
