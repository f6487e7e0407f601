package certificateRoutes

import (
	certController "lms/controllers/certificates"
	"lms/middleware"
	"lms/models"
	certValidator "lms/validators/certificates"

	"github.com/gofiber/fiber/v2"
)

// SetupCertificateRoutes sets up certificate routes
func SetupCertificateRoutes(app *fiber.App) {
	// Public verification by printed code, no auth
	app.Get("/certificate/verify/:code", certValidator.VerifyCertificate(), certController.VerifyCertificate)

	userGroup := app.Group("/user")
	userGroup.Get("/certificates", middleware.JWTMiddleware, certController.GetMyCertificates)

	adminGroup := app.Group("/admin/certificate",
		middleware.JWTMiddleware,
		middleware.RequireRole(models.RoleAdmin),
	)
	adminGroup.Post("/sitting/:sitting_id/approve", certController.ApproveSitting)
	adminGroup.Put("/sitting/:sitting_id/approval-date", certValidator.OverrideApprovalDate(), certController.OverrideApprovalDate)
	adminGroup.Get("/manual", certController.ListManualCertificates)
	adminGroup.Post("/manual", certValidator.CreateManualCertificate(), certController.CreateManualCertificate)
	adminGroup.Put("/manual/:cert_id", certValidator.UpdateManualCertificate(), certController.UpdateManualCertificate)
	adminGroup.Delete("/manual/:cert_id", certController.DeactivateManualCertificate)
	adminGroup.Get("/stats", certController.GetCertificateStats)
	adminGroup.Get("/expiring", certController.GetExpiringCertificates)
}
