package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	"lms/models"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseAdminRoutes sets up course authoring routes for staff
func SetupCourseAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/course",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin, models.RoleLecturer),
	)

	app.Get("/admin/dashboard",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
		controllers.GetAdminDashboard,
	)

	adminGroup.Post("/", validators.CreateCourse(), controllers.CreateCourse)
	adminGroup.Put("/:id", validators.UpdateCourse(), controllers.UpdateCourse)
	adminGroup.Delete("/:id", controllers.DeleteCourse)

	// Content authoring; every change resequences the course
	adminGroup.Post("/:id/video", validators.AddVideo(), controllers.AddVideo)
	adminGroup.Post("/:id/document", validators.AddDocument(), controllers.AddDocument)
	adminGroup.Put("/:id/videos/reorder", validators.ReorderVideos(), controllers.ReorderVideos)
	adminGroup.Put("/video/:video_id", validators.UpdateVideo(), controllers.UpdateVideo)
	adminGroup.Delete("/video/:video_id", controllers.DeleteVideo)
	adminGroup.Put("/document/:document_id", validators.UpdateDocument(), controllers.UpdateDocument)
	adminGroup.Delete("/document/:document_id", controllers.DeleteDocument)
}
