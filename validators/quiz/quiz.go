package quizValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

func CreateQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID      uint   `json:"course_id"`
			Title         string `json:"title"`
			Description   string `json:"description"`
			PassMark      int    `json:"pass_mark"`
			SingleAttempt bool   `json:"single_attempt"`
			Draft         bool   `json:"draft"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.PassMark == 0 {
			reqData.PassMark = 80
		}

		errors := make(map[string]string)

		if reqData.CourseID == 0 {
			errors["course_id"] = "Course id is required!"
		}
		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.PassMark < 1 || reqData.PassMark > 100 {
			errors["pass_mark"] = "Pass mark must be between 1 and 100!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuiz", reqData)
		return c.Next()
	}
}

func AddQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Content string `json:"content"`
			Figure  string `json:"figure"`
			Choices []struct {
				Content string `json:"content"`
				Correct bool   `json:"correct"`
			} `json:"choices"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Content) == "" {
			errors["content"] = "Question content is required!"
		}
		if len(reqData.Choices) < 2 {
			errors["choices"] = "At least two choices are required!"
		} else {
			correct := 0
			for _, choice := range reqData.Choices {
				if strings.TrimSpace(choice.Content) == "" {
					errors["choices"] = "Choice content is required!"
					break
				}
				if choice.Correct {
					correct++
				}
			}
			if correct != 1 {
				errors["choices"] = "Exactly one choice must be marked correct!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedQuestion", reqData)
		return c.Next()
	}
}

func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Answers map[string]uint `json:"answers"` // question id -> chosen choice id
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.Answers) == 0 {
			errors["answers"] = "Answers are required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
}
