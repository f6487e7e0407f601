package certValidator

import (
	"regexp"
	"strings"
	"time"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

var certCodePattern = regexp.MustCompile(`^\d{3,}$`)

func VerifyCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseCode string `json:"course_code"`
			CertCode   string `json:"cert_code"`
		})

		// accepts the full printed code, e.g. C01-007
		fullCode := strings.ToUpper(strings.TrimSpace(c.Params("code")))
		parts := strings.SplitN(fullCode, "-", 2)

		errors := make(map[string]string)

		if len(parts) != 2 || parts[0] == "" {
			errors["code"] = "Certificate code must look like COURSE-NNN!"
		} else if !certCodePattern.MatchString(parts[1]) {
			errors["code"] = "Certificate number must be at least three digits!"
		} else {
			reqData.CourseCode = parts[0]
			reqData.CertCode = parts[1]
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedVerify", reqData)
		return c.Next()
	}
}

func CreateManualCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			FullName   string    `json:"full_name"`
			DNI        string    `json:"dni"`
			CourseID   uint      `json:"course_id"`
			Score      int       `json:"score"`
			ApprovedAt time.Time `json:"approved_at"`
			ExpiresAt  time.Time `json:"expires_at"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.FullName) == "" {
			errors["full_name"] = "Full name is required!"
		}
		if strings.TrimSpace(reqData.DNI) == "" {
			errors["dni"] = "DNI is required!"
		}
		if reqData.CourseID == 0 {
			errors["course_id"] = "Course id is required!"
		}
		if reqData.Score < 0 || reqData.Score > 20 {
			errors["score"] = "Score must be between 0 and 20!"
		}
		if reqData.ApprovedAt.IsZero() {
			errors["approved_at"] = "Approval date is required!"
		}
		if reqData.ExpiresAt.IsZero() {
			errors["expires_at"] = "Expiration date is required!"
		} else if !reqData.ApprovedAt.IsZero() && !reqData.ExpiresAt.After(reqData.ApprovedAt) {
			errors["expires_at"] = "Expiration date must be after the approval date!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedManualCert", reqData)
		return c.Next()
	}
}

func UpdateManualCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			FullName  *string    `json:"full_name"`
			Score     *int       `json:"score"`
			ExpiresAt *time.Time `json:"expires_at"`
			Active    *bool      `json:"active"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.FullName != nil && strings.TrimSpace(*reqData.FullName) == "" {
			errors["full_name"] = "Full name must not be empty!"
		}
		if reqData.Score != nil && (*reqData.Score < 0 || *reqData.Score > 20) {
			errors["score"] = "Score must be between 0 and 20!"
		}
		if reqData.ExpiresAt != nil && reqData.ExpiresAt.IsZero() {
			errors["expires_at"] = "Expiration date is not valid!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedManualUpdate", reqData)
		return c.Next()
	}
}

func OverrideApprovalDate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			NewDate time.Time `json:"new_date"`
			Note    string    `json:"note"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.NewDate.IsZero() {
			errors["new_date"] = "New approval date is required!"
		} else if reqData.NewDate.After(time.Now()) {
			errors["new_date"] = "Approval date cannot be in the future!"
		}
		if strings.TrimSpace(reqData.Note) == "" {
			errors["note"] = "A note explaining the change is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedOverride", reqData)
		return c.Next()
	}
}
