package courseValidator

import (
	"lms/middleware"
	"lms/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// StartExam validates the enrollment id path param for starting an attempt
func StartExam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		enrollmentID, ok := parseIDParam(c, "enrollment_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid enrollment id!", nil)
		}
		c.Locals("enrollmentId", enrollmentID)
		return c.Next()
	}
}

// SubmitExam validates the attempt id and the submitted answer sheet
func SubmitExam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		attemptID, ok := parseIDParam(c, "attempt_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attempt id!", nil)
		}

		reqData := new(struct {
			Answers []services.AnswerInput `json:"answers"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.Answers) == 0 {
			errors["answers"] = "At least one answer is required!"
		}
		for _, answer := range reqData.Answers {
			if err := validate.Struct(answer); err != nil {
				errors["answers"] = "Each answer needs a question_id and selected_option_id!"
				break
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("attemptId", attemptID)
		c.Locals("validatedAnswers", reqData.Answers)
		return c.Next()
	}
}
