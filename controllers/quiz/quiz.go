package quizController

import (
	"log"
	"strconv"
	"strings"
	"time"

	"lms/cache"
	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	quizModels "lms/models/quiz"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func CreateQuiz(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedQuiz").(*struct {
		CourseID      uint   `json:"course_id"`
		Title         string `json:"title"`
		Description   string `json:"description"`
		PassMark      int    `json:"pass_mark"`
		SingleAttempt bool   `json:"single_attempt"`
		Draft         bool   `json:"draft"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var course courseModels.Course
	if err := db.Where("id = ? AND is_deleted = ?", reqData.CourseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if err := db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		First(&quizModels.Quiz{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course already has a quiz!", nil)
	}

	quiz := quizModels.Quiz{
		CourseID:      course.ID,
		Title:         reqData.Title,
		Description:   reqData.Description,
		PassMark:      reqData.PassMark,
		SingleAttempt: reqData.SingleAttempt,
		Draft:         reqData.Draft,
	}
	if err := db.Create(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create quiz!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Quiz created successfully!", quiz)
}

func AddQuestion(c *fiber.Ctx) error {
	quizID, err := c.ParamsInt("quiz_id")
	if err != nil || quizID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid quiz id!", nil)
	}

	reqData, ok := c.Locals("validatedQuestion").(*struct {
		Content string `json:"content"`
		Figure  string `json:"figure"`
		Choices []struct {
			Content string `json:"content"`
			Correct bool   `json:"correct"`
		} `json:"choices"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var quiz quizModels.Quiz
	if err := db.Where("id = ? AND is_deleted = ?", quizID, false).First(&quiz).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Quiz not found!", nil)
	}

	question := quizModels.Question{
		QuizID:  quiz.ID,
		Content: reqData.Content,
		Figure:  reqData.Figure,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for _, choice := range reqData.Choices {
			record := quizModels.Choice{
				QuestionID: question.ID,
				Content:    choice.Content,
				Correct:    choice.Correct,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to add question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question added successfully!", question)
}

// StartQuiz opens a sitting for the caller. The exam only unlocks once every
// piece of course material is completed.
func StartQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	db := database.Database.Db

	var quiz quizModels.Quiz
	err = db.Where("course_id = ? AND draft = ? AND is_deleted = ?", courseID, false, false).
		First(&quiz).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No exam available for this course!", nil)
	}

	statuses, err := services.GetBulkCourseStatus(db, userID, []uint{uint(courseID)})
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start exam!", nil)
	}
	switch statuses[uint(courseID)] {
	case services.CourseExamAvailable, services.CourseExamFailed:
		// ok
	case services.CourseCompleted:
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Exam already passed!", nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Complete the course material first!", nil)
	}

	var open quizModels.Sitting
	err = db.Where("user_id = ? AND quiz_id = ? AND complete = ? AND is_deleted = ?",
		userID, quiz.ID, false, false).First(&open).Error
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam resumed.", open)
	}

	if quiz.SingleAttempt {
		var finished int64
		db.Model(&quizModels.Sitting{}).
			Where("user_id = ? AND quiz_id = ? AND complete = ? AND is_deleted = ?",
				userID, quiz.ID, true, false).
			Count(&finished)
		if finished > 0 {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "This exam allows a single attempt!", nil)
		}
	}

	var questionIDs []uint
	err = db.Model(&quizModels.Question{}).
		Where("quiz_id = ? AND is_deleted = ?", quiz.ID, false).
		Order("id ASC").
		Pluck("id", &questionIDs).Error
	if err != nil || len(questionIDs) == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Exam has no questions yet!", nil)
	}

	order := make([]string, len(questionIDs))
	for i, id := range questionIDs {
		order[i] = strconv.FormatUint(uint64(id), 10)
	}

	sitting := quizModels.Sitting{
		UserID:        userID,
		QuizID:        quiz.ID,
		CourseID:      uint(courseID),
		QuestionOrder: strings.Join(order, ","),
		MaxScore:      len(questionIDs),
		Start:         time.Now(),
	}
	if err := db.Create(&sitting).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to start exam!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Exam started.", sitting)
}

// SubmitQuiz grades the open sitting against the stored question order. The
// score a sitting was graded with is frozen on the row; later quiz edits do
// not change past results.
func SubmitQuiz(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	reqData, ok := c.Locals("validatedSubmission").(*struct {
		Answers map[string]uint `json:"answers"` // question id -> chosen choice id
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var quiz quizModels.Quiz
	err = db.Where("course_id = ? AND is_deleted = ?", courseID, false).First(&quiz).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No exam available for this course!", nil)
	}

	var sitting quizModels.Sitting
	err = db.Where("user_id = ? AND quiz_id = ? AND complete = ? AND is_deleted = ?",
		userID, quiz.ID, false, false).First(&sitting).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No open exam sitting!", nil)
	}

	questionIDs := strings.Split(sitting.QuestionOrder, ",")

	score := 0
	answers := make([]string, 0, len(questionIDs))
	for _, rawID := range questionIDs {
		choiceID, answered := reqData.Answers[rawID]
		if !answered {
			answers = append(answers, "")
			continue
		}
		answers = append(answers, strconv.FormatUint(uint64(choiceID), 10))

		questionID, _ := strconv.ParseUint(rawID, 10, 64)
		var choice quizModels.Choice
		err := db.Where("id = ? AND question_id = ?", choiceID, questionID).First(&choice).Error
		if err != nil {
			continue
		}
		if choice.Correct {
			score++
		}
	}

	now := time.Now()
	sitting.CurrentScore = score
	sitting.UserAnswers = strings.Join(answers, ",")
	sitting.Complete = true
	sitting.End = &now

	if err := db.Save(&sitting).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to submit exam!", nil)
	}

	cache.InvalidateUserProgress(userID, uint(courseID))

	passed := sitting.Passed(quiz.PassMark)
	var fullCode string
	if passed {
		code, err := issueCertificate(db, &sitting, now)
		if err != nil {
			// the sitting is graded and saved; issuance can be retried by an
			// admin approving it later
			log.Printf("Error issuing certificate for sitting %d: %v", sitting.ID, err)
		} else {
			fullCode = code
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam submitted.", fiber.Map{
		"sitting":          sitting,
		"percent":          sitting.PercentCorrect(),
		"passed":           passed,
		"certificate_code": fullCode,
	})
}

// issueCertificate approves a freshly passed sitting and allocates its code.
// Approval and allocation commit together; a conflict rolls both back.
func issueCertificate(db *gorm.DB, sitting *quizModels.Sitting, approvedAt time.Time) (string, error) {
	var course courseModels.Course
	if err := db.First(&course, sitting.CourseID).Error; err != nil {
		return "", err
	}

	code, err := services.ApproveAndIssue(db, sitting.ID, course.ID, config.AppConfig.CertCodeStart, approvedAt)
	if err != nil {
		return "", err
	}

	fullCode := services.FullCertificateCode(course.Code, code)

	var user models.User
	if err := db.First(&user, sitting.UserID).Error; err == nil {
		go utils.SendCertificateEmail(user.Email, user.Name, course.Title, fullCode)
	}
	go utils.NotifyCertificateIssued(fullCode, sitting.UserID, course.ID)

	return fullCode, nil
}

// GetQuizQuestions returns the questions and choices for the caller's open
// sitting, without the correct flags.
func GetQuizQuestions(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID, err := c.ParamsInt("id")
	if err != nil || courseID < 1 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
	}

	db := database.Database.Db

	var quiz quizModels.Quiz
	err = db.Where("course_id = ? AND is_deleted = ?", courseID, false).First(&quiz).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No exam available for this course!", nil)
	}

	var sitting quizModels.Sitting
	err = db.Where("user_id = ? AND quiz_id = ? AND complete = ? AND is_deleted = ?",
		userID, quiz.ID, false, false).First(&sitting).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No open exam sitting!", nil)
	}

	type choiceOut struct {
		ID      uint   `json:"id"`
		Content string `json:"content"`
	}
	type questionOut struct {
		ID      uint        `json:"id"`
		Content string      `json:"content"`
		Figure  string      `json:"figure"`
		Choices []choiceOut `json:"choices"`
	}

	questions := make([]questionOut, 0)
	for _, rawID := range strings.Split(sitting.QuestionOrder, ",") {
		questionID, convErr := strconv.ParseUint(rawID, 10, 64)
		if convErr != nil {
			continue
		}
		var question quizModels.Question
		if err := db.First(&question, questionID).Error; err != nil {
			continue
		}
		var choices []quizModels.Choice
		if err := db.Where("question_id = ?", question.ID).Find(&choices).Error; err != nil {
			continue
		}
		out := questionOut{ID: question.ID, Content: question.Content, Figure: question.Figure}
		for _, choice := range choices {
			out.Choices = append(out.Choices, choiceOut{ID: choice.ID, Content: choice.Content})
		}
		questions = append(questions, out)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam questions fetched successfully!", fiber.Map{
		"sitting_id": sitting.ID,
		"questions":  questions,
	})
}
