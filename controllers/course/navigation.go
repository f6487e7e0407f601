package controllers

import (
	"errors"

	"lms/cache"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

func isPrivileged(c *fiber.Ctx) bool {
	role, _ := c.Locals("userRole").(string)
	return role == models.RoleAdmin || role == models.RoleLecturer
}

func loadSequence(userID, courseID uint) ([]services.ContentRef, error) {
	db := database.Database.Db

	var sequence []services.ContentRef
	if !cache.Default.Get(cache.CourseSequenceKey(courseID), &sequence) {
		var err error
		sequence, err = services.BuildUnifiedSequence(db, courseID)
		if err != nil {
			return nil, err
		}
		cache.Default.Set(cache.CourseSequenceKey(courseID), sequence, cache.StaticTTL)
	}

	if err := services.AnnotateCompletion(db, userID, sequence); err != nil {
		return nil, err
	}
	return sequence, nil
}

// GetCourseContent returns the unified sequence with the caller's completion
// state annotated on every item.
func GetCourseContent(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	sequence, err := loadSequence(userID, uint(courseID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course content!", nil)
	}
	if len(sequence) == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course has no content yet!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course content fetched successfully!", fiber.Map{
		"sequence": sequence,
	})
}

// GetContentNavigation returns the previous/next items around one content
// piece, enforcing sequential access for students.
func GetContentNavigation(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	contentID, err := c.ParamsInt("content_id")
	if err != nil || contentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}
	kind := c.Params("kind")
	if kind != services.KindVideo && kind != services.KindDocument {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Content kind must be video or document!", nil)
	}

	sequence, err := loadSequence(userID, uint(courseID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course content!", nil)
	}

	if blocker, err := services.ValidateAccess(sequence, kind, uint(contentID), isPrivileged(c)); err != nil {
		switch {
		case errors.Is(err, services.ErrNoContent):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course has no content yet!", nil)
		case errors.Is(err, services.ErrContentNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found in this course!", nil)
		case errors.Is(err, services.ErrContentLocked):
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Complete the previous content first!", fiber.Map{
				"redirect_to": blocker,
			})
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to validate access!", nil)
	}

	prev, next, err := services.Navigate(sequence, kind, uint(contentID))
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Content not found in this course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Navigation fetched successfully!", fiber.Map{
		"previous": prev,
		"next":     next,
	})
}

// MarkContentComplete records a completion. Cached progress entries are
// dropped before the response goes out, so a follow-up read never sees stale
// numbers.
func MarkContentComplete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	contentID, err := c.ParamsInt("content_id")
	if err != nil || contentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}
	kind := c.Params("kind")

	db := database.Database.Db

	switch kind {
	case services.KindVideo:
		var video courseModels.Video
		err := db.Where("id = ? AND course_id = ? AND is_deleted = ?", contentID, courseID, false).
			First(&video).Error
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Video not found!", nil)
		}
		if err := services.MarkVideoCompleted(db, userID, &video); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark content complete!", nil)
		}
	case services.KindDocument:
		var doc courseModels.Document
		err := db.Where("id = ? AND course_id = ? AND is_deleted = ?", contentID, courseID, false).
			First(&doc).Error
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Document not found!", nil)
		}
		if err := services.MarkDocumentCompleted(db, userID, &doc); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to mark content complete!", nil)
		}
	default:
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Content kind must be video or document!", nil)
	}

	cache.InvalidateUserProgress(userID, uint(courseID))

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content marked complete!", nil)
}

// UnmarkContentComplete removes a completion.
func UnmarkContentComplete(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}
	contentID, err := c.ParamsInt("content_id")
	if err != nil || contentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid content id!", nil)
	}

	db := database.Database.Db

	switch c.Params("kind") {
	case services.KindVideo:
		if err := services.UnmarkVideoCompleted(db, userID, uint(contentID)); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unmark content!", nil)
		}
	case services.KindDocument:
		if err := services.UnmarkDocumentCompleted(db, userID, uint(contentID)); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unmark content!", nil)
		}
	default:
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Content kind must be video or document!", nil)
	}

	cache.InvalidateUserProgress(userID, uint(courseID))

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Content unmarked!", nil)
}
