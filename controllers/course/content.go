package controllers

import (
	"log"

	"lms/cache"
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

func resequenceAndInvalidate(courseID uint) {
	if err := services.ResequenceCourse(database.Database.Db, courseID); err != nil {
		log.Printf("Error resequencing course %d: %v", courseID, err)
	}
	cache.InvalidateCourseSequence(courseID)
}

func AddVideo(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	reqData, ok := c.Locals("validatedVideo").(*struct {
		Title      string `json:"title"`
		VideoURL   string `json:"video_url"`
		Summary    string `json:"summary"`
		OrderIndex int    `json:"order_index"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	video := courseModels.Video{
		CourseID:   course.ID,
		Title:      reqData.Title,
		VideoURL:   reqData.VideoURL,
		Summary:    reqData.Summary,
		OrderIndex: reqData.OrderIndex,
	}
	if err := db.Create(&video).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add video!", nil)
	}

	resequenceAndInvalidate(course.ID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Video added successfully!", video)
}

func AddDocument(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	reqData, ok := c.Locals("validatedDocument").(*struct {
		Title       string `json:"title"`
		FileURL     string `json:"file_url"`
		ExternalURL string `json:"external_url"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	doc := courseModels.Document{
		CourseID:    course.ID,
		Title:       reqData.Title,
		FileURL:     reqData.FileURL,
		ExternalURL: reqData.ExternalURL,
	}
	if err := db.Create(&doc).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add document!", nil)
	}

	resequenceAndInvalidate(course.ID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Document added successfully!", doc)
}

func UpdateVideo(c *fiber.Ctx) error {
	videoID, err := c.ParamsInt("video_id")
	if err != nil || videoID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid video id!", nil)
	}

	reqData, ok := c.Locals("validatedVideoUpdate").(*struct {
		Title      *string `json:"title"`
		VideoURL   *string `json:"video_url"`
		Summary    *string `json:"summary"`
		OrderIndex *int    `json:"order_index"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var video courseModels.Video
	if err := db.Where("id = ? AND is_deleted = ?", videoID, false).First(&video).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Video not found!", nil)
	}

	if reqData.Title != nil {
		video.Title = *reqData.Title
	}
	if reqData.VideoURL != nil {
		video.VideoURL = *reqData.VideoURL
	}
	if reqData.Summary != nil {
		video.Summary = *reqData.Summary
	}
	if reqData.OrderIndex != nil {
		video.OrderIndex = *reqData.OrderIndex
	}

	if err := db.Save(&video).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update video!", nil)
	}

	resequenceAndInvalidate(video.CourseID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video updated successfully!", video)
}

func UpdateDocument(c *fiber.Ctx) error {
	documentID, err := c.ParamsInt("document_id")
	if err != nil || documentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid document id!", nil)
	}

	reqData, ok := c.Locals("validatedDocumentUpdate").(*struct {
		Title       *string `json:"title"`
		FileURL     *string `json:"file_url"`
		ExternalURL *string `json:"external_url"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var doc courseModels.Document
	if err := db.Where("id = ? AND is_deleted = ?", documentID, false).First(&doc).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Document not found!", nil)
	}

	if reqData.Title != nil {
		doc.Title = *reqData.Title
	}
	if reqData.FileURL != nil {
		doc.FileURL = *reqData.FileURL
	}
	if reqData.ExternalURL != nil {
		doc.ExternalURL = *reqData.ExternalURL
	}

	if err := db.Save(&doc).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update document!", nil)
	}

	resequenceAndInvalidate(doc.CourseID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Document updated successfully!", doc)
}

func ReorderVideos(c *fiber.Ctx) error {
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	reqData, ok := c.Locals("validatedReorder").(*struct {
		VideoIDs []uint `json:"video_ids"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	for position, videoID := range reqData.VideoIDs {
		err := db.Model(&courseModels.Video{}).
			Where("id = ? AND course_id = ?", videoID, courseID).
			Update("order_index", position).Error
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to reorder videos!", nil)
		}
	}

	resequenceAndInvalidate(uint(courseID))

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Videos reordered successfully!", nil)
}

func DeleteVideo(c *fiber.Ctx) error {
	videoID, err := c.ParamsInt("video_id")
	if err != nil || videoID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid video id!", nil)
	}

	db := database.Database.Db

	var video courseModels.Video
	if err := db.Where("id = ? AND is_deleted = ?", videoID, false).First(&video).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Video not found!", nil)
	}

	video.IsDeleted = true
	if err := db.Save(&video).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete video!", nil)
	}

	resequenceAndInvalidate(video.CourseID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Video deleted successfully!", nil)
}

func DeleteDocument(c *fiber.Ctx) error {
	documentID, err := c.ParamsInt("document_id")
	if err != nil || documentID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid document id!", nil)
	}

	db := database.Database.Db

	var doc courseModels.Document
	if err := db.Where("id = ? AND is_deleted = ?", documentID, false).First(&doc).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Document not found!", nil)
	}

	doc.IsDeleted = true
	if err := db.Save(&doc).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete document!", nil)
	}

	resequenceAndInvalidate(doc.CourseID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Document deleted successfully!", nil)
}
