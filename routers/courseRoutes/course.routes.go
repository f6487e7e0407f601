package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Course listing and details
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, controllers.GetCourseDetails)

	// Unified content sequence and navigation
	courseGroup.Get("/:id/content", middleware.JWTMiddleware, controllers.GetCourseContent)
	courseGroup.Get("/:id/content/:kind/:content_id/navigation", middleware.JWTMiddleware, controllers.GetContentNavigation)

	// Content completion
	courseGroup.Post("/:id/content/:kind/:content_id/complete", middleware.JWTMiddleware, controllers.MarkContentComplete)
	courseGroup.Delete("/:id/content/:kind/:content_id/complete", middleware.JWTMiddleware, controllers.UnmarkContentComplete)

	// Progress tracking
	courseGroup.Get("/:id/progress", middleware.JWTMiddleware, controllers.GetCourseProgress)

	userGroup := app.Group("/user")
	userGroup.Get("/progress", middleware.JWTMiddleware, controllers.GetMyProgress)
}
