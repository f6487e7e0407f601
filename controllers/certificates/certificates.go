package certController

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	quizModels "lms/models/quiz"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type certificateOut struct {
	FullCode    string                     `json:"full_code"`
	CourseID    uint                       `json:"course_id"`
	CourseTitle string                     `json:"course_title"`
	Kind        string                     `json:"kind"` // automatic or manual
	Score       float64                    `json:"score"`
	Status      services.CertificateStatus `json:"status"`
}

// ApproveSitting approves a passed sitting and issues its certificate code.
// Approval, code allocation and the code write land in one transaction, so a
// failure at any point leaves no half-issued certificate behind.
func ApproveSitting(c *fiber.Ctx) error {
	sittingID, err := c.ParamsInt("sitting_id")
	if err != nil || sittingID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid sitting id!", nil)
	}

	db := database.Database.Db

	var sitting quizModels.Sitting
	err = db.Where("id = ? AND is_deleted = ?", sittingID, false).First(&sitting).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Sitting not found!", nil)
	}
	if !sitting.Complete {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Sitting is not finished yet!", nil)
	}
	if sitting.ApprovedAt != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Sitting is already approved!", nil)
	}

	var quiz quizModels.Quiz
	if err := db.First(&quiz, sitting.QuizID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to approve sitting!", nil)
	}
	if !sitting.Passed(quiz.PassMark) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Sitting did not reach the pass mark!", nil)
	}

	var course courseModels.Course
	if err := db.First(&course, sitting.CourseID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to approve sitting!", nil)
	}

	now := time.Now()
	code, err := services.ApproveAndIssue(db, sitting.ID, course.ID, config.AppConfig.CertCodeStart, now)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyIssued) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Sitting is already approved!", nil)
		}
		if errors.Is(err, services.ErrAllocationConflict) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate issuance is busy, try again!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
	}

	fullCode := services.FullCertificateCode(course.Code, code)

	var user models.User
	if err := db.First(&user, sitting.UserID).Error; err == nil {
		go utils.SendCertificateEmail(user.Email, user.Name, course.Title, fullCode)
	}
	go utils.NotifyCertificateIssued(fullCode, sitting.UserID, course.ID)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate issued successfully!", fiber.Map{
		"certificate_code": code,
		"full_code":        fullCode,
		"approved_at":      now,
	})
}

// GetMyCertificates lists the caller's certificates with lifecycle statuses.
func GetMyCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	var sittings []quizModels.Sitting
	err := db.Where("user_id = ? AND approved_at IS NOT NULL AND is_deleted = ?", userID, false).
		Order("approved_at DESC").
		Find(&sittings).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	var manuals []quizModels.ManualCertificate
	if user.DNI != "" {
		err = db.Where("dni = ?", user.DNI).Find(&manuals).Error
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
		}
	}

	courseTitles := make(map[uint]string)
	courseCodes := make(map[uint]string)
	var courses []courseModels.Course
	if err := db.Find(&courses).Error; err == nil {
		for _, course := range courses {
			courseTitles[course.ID] = course.Title
			courseCodes[course.ID] = course.Code
		}
	}

	today := time.Now()
	out := make([]certificateOut, 0, len(sittings)+len(manuals))
	for i := range sittings {
		s := &sittings[i]
		code := ""
		if s.CertificateCode != nil {
			code = services.FullCertificateCode(courseCodes[s.CourseID], *s.CertificateCode)
		}
		out = append(out, certificateOut{
			FullCode:    code,
			CourseID:    s.CourseID,
			CourseTitle: courseTitles[s.CourseID],
			Kind:        "automatic",
			Score:       s.PercentCorrect(),
			Status:      services.ClassifyCertificate(s, today),
		})
	}
	for i := range manuals {
		m := &manuals[i]
		out = append(out, certificateOut{
			FullCode:    m.CertificateCode,
			CourseID:    m.CourseID,
			CourseTitle: courseTitles[m.CourseID],
			Kind:        "manual",
			Score:       float64(m.Score),
			Status:      services.ClassifyCertificate(m, today),
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": out,
	})
}

// VerifyCertificate is the public lookup by full code. No authentication, so
// it reveals only what is printed on the certificate itself.
func VerifyCertificate(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedVerify").(*struct {
		CourseCode string `json:"course_code"`
		CertCode   string `json:"cert_code"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var course courseModels.Course
	err := db.Where("code = ? AND is_deleted = ?", reqData.CourseCode, false).First(&course).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	today := time.Now()
	fullCode := services.FullCertificateCode(course.Code, reqData.CertCode)

	var sitting quizModels.Sitting
	err = db.Where("course_id = ? AND certificate_code = ? AND is_deleted = ?",
		course.ID, reqData.CertCode, false).First(&sitting).Error
	if err == nil {
		var holder models.User
		holderName := ""
		if err := db.First(&holder, sitting.UserID).Error; err == nil {
			holderName = holder.Name
		}
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate verified.", fiber.Map{
			"full_code":    fullCode,
			"course_title": course.Title,
			"holder":       holderName,
			"kind":         "automatic",
			"score":        sitting.PercentCorrect(),
			"status":       services.ClassifyCertificate(&sitting, today),
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify certificate!", nil)
	}

	var manual quizModels.ManualCertificate
	err = db.Where("course_id = ? AND certificate_code = ?", course.ID, fullCode).
		First(&manual).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate verified.", fiber.Map{
		"full_code":    fullCode,
		"course_title": course.Title,
		"holder":       manual.FullName,
		"kind":         "manual",
		"score":        manual.Score,
		"status":       services.ClassifyCertificate(&manual, today),
	})
}

// ListManualCertificates is the staff listing, newest first.
func ListManualCertificates(c *fiber.Ctx) error {
	var manuals []quizModels.ManualCertificate
	err := database.Database.Db.Order("created_at DESC").Find(&manuals).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": manuals,
	})
}

// UpdateManualCertificate edits the mutable fields of a manual certificate.
// DNI, course and code are fixed at creation.
func UpdateManualCertificate(c *fiber.Ctx) error {
	certID, err := c.ParamsInt("cert_id")
	if err != nil || certID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	reqData, ok := c.Locals("validatedManualUpdate").(*struct {
		FullName  *string    `json:"full_name"`
		Score     *int       `json:"score"`
		ExpiresAt *time.Time `json:"expires_at"`
		Active    *bool      `json:"active"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var manual quizModels.ManualCertificate
	if err := db.First(&manual, certID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	if reqData.FullName != nil {
		manual.FullName = *reqData.FullName
	}
	if reqData.Score != nil {
		manual.Score = *reqData.Score
	}
	if reqData.ExpiresAt != nil {
		manual.ExpiresAt = reqData.ExpiresAt
	}
	if reqData.Active != nil {
		manual.Active = *reqData.Active
	}

	if err := db.Save(&manual).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate updated successfully!", manual)
}

// CreateManualCertificate registers a certificate for training done outside
// the platform. One per (DNI, course).
func CreateManualCertificate(c *fiber.Ctx) error {
	adminID, _ := c.Locals("userId").(uint)

	reqData, ok := c.Locals("validatedManualCert").(*struct {
		FullName   string    `json:"full_name"`
		DNI        string    `json:"dni"`
		CourseID   uint      `json:"course_id"`
		Score      int       `json:"score"`
		ApprovedAt time.Time `json:"approved_at"`
		ExpiresAt  time.Time `json:"expires_at"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", reqData.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	err := db.Where("dni = ? AND course_id = ?", reqData.DNI, reqData.CourseID).
		First(&quizModels.ManualCertificate{}).Error
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "A certificate for this DNI and course already exists!", nil)
	}

	var fullCode string
	_, err = services.IssueWithRetry(db, course.ID, config.AppConfig.CertCodeStart,
		func(tx *gorm.DB, code string) error {
			fullCode = services.FullCertificateCode(course.Code, code)
			expires := reqData.ExpiresAt
			manual := quizModels.ManualCertificate{
				FullName:        reqData.FullName,
				DNI:             reqData.DNI,
				CourseID:        course.ID,
				Score:           reqData.Score,
				ApprovedAt:      reqData.ApprovedAt,
				ExpiresAt:       &expires,
				Active:          true,
				CertificateCode: fullCode,
				IssuedBy:        adminID,
			}
			return tx.Create(&manual).Error
		})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate registered successfully!", fiber.Map{
		"full_code": fullCode,
	})
}

// DeactivateManualCertificate flips the active switch off; the record stays
// for verification history.
func DeactivateManualCertificate(c *fiber.Ctx) error {
	certID, err := c.ParamsInt("cert_id")
	if err != nil || certID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	db := database.Database.Db

	var manual quizModels.ManualCertificate
	if err := db.First(&manual, certID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	manual.Active = false
	if err := db.Save(&manual).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to deactivate certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate deactivated.", nil)
}

// OverrideApprovalDate changes a sitting's approval date by hand and records
// an audit entry with a snapshot of the row before the change.
func OverrideApprovalDate(c *fiber.Ctx) error {
	adminID, _ := c.Locals("userId").(uint)

	sittingID, err := c.ParamsInt("sitting_id")
	if err != nil || sittingID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid sitting id!", nil)
	}

	reqData, ok := c.Locals("validatedOverride").(*struct {
		NewDate time.Time `json:"new_date"`
		Note    string    `json:"note"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var sitting quizModels.Sitting
	err = db.Where("id = ? AND is_deleted = ?", sittingID, false).First(&sitting).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Sitting not found!", nil)
	}
	if sitting.ApprovedAt == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Sitting was never approved!", nil)
	}

	snapshot, err := json.Marshal(sitting)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record override!", nil)
	}

	override := quizModels.ApprovalOverride{
		AuditID:    uuid.NewString(),
		SittingID:  sitting.ID,
		ChangedBy:  adminID,
		OldDate:    sitting.ApprovedAt,
		NewDate:    reqData.NewDate,
		Details:    datatypes.JSON(snapshot),
		ChangeNote: reqData.Note,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&override).Error; err != nil {
			return err
		}
		return tx.Model(&quizModels.Sitting{}).
			Where("id = ?", sitting.ID).
			Update("approved_at", reqData.NewDate).Error
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record override!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Approval date updated.", fiber.Map{
		"audit_id": override.AuditID,
	})
}

// GetCertificateStats is the admin dashboard aggregate.
func GetCertificateStats(c *fiber.Ctx) error {
	stats, err := services.AggregateCertificateStats(database.Database.Db, time.Now())
	if err != nil {
		log.Printf("Error aggregating certificate stats: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch statistics!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Statistics fetched successfully!", stats)
}

// GetExpiringCertificates lists certificates inside the warning window.
func GetExpiringCertificates(c *fiber.Ctx) error {
	db := database.Database.Db
	today := time.Now()

	var sittings []quizModels.Sitting
	err := db.Where("approved_at IS NOT NULL AND is_deleted = ?", false).Find(&sittings).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}
	var manuals []quizModels.ManualCertificate
	if err := db.Find(&manuals).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	type expiringOut struct {
		Kind     string                     `json:"kind"`
		ID       uint                       `json:"id"`
		CourseID uint                       `json:"course_id"`
		Status   services.CertificateStatus `json:"status"`
	}

	out := make([]expiringOut, 0)
	for i := range sittings {
		status := services.ClassifyCertificate(&sittings[i], today)
		if status.Status == services.StatusExpiringSoon {
			out = append(out, expiringOut{Kind: "automatic", ID: sittings[i].ID, CourseID: sittings[i].CourseID, Status: status})
		}
	}
	for i := range manuals {
		status := services.ClassifyCertificate(&manuals[i], today)
		if status.Status == services.StatusExpiringSoon {
			out = append(out, expiringOut{Kind: "manual", ID: manuals[i].ID, CourseID: manuals[i].CourseID, Status: status})
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Expiring certificates fetched successfully!", fiber.Map{
		"certificates": out,
	})
}
