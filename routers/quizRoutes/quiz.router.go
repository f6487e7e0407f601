package quizRoutes

import (
	quizController "lms/controllers/quiz"
	"lms/middleware"
	"lms/models"
	quizValidator "lms/validators/quiz"

	"github.com/gofiber/fiber/v2"
)

// SetupQuizRoutes sets up exam routes
func SetupQuizRoutes(app *fiber.App) {
	examGroup := app.Group("/course/:id/exam", middleware.JWTMiddleware)

	examGroup.Post("/start", quizController.StartQuiz)
	examGroup.Get("/questions", quizController.GetQuizQuestions)
	examGroup.Post("/submit", quizValidator.SubmitQuiz(), quizController.SubmitQuiz)

	adminGroup := app.Group("/admin/quiz",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin, models.RoleLecturer),
	)
	adminGroup.Post("/", quizValidator.CreateQuiz(), quizController.CreateQuiz)
	adminGroup.Post("/:quiz_id/question", quizValidator.AddQuestion(), quizController.AddQuestion)
}
