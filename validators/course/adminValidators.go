package courseValidator

import (
	"strings"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CreateCourseRequest is the admin payload for creating or updating a course
type CreateCourseRequest struct {
	Title             string `json:"title" validate:"required,min=3"`
	Description       string `json:"description" validate:"required,min=5"`
	Author            string `json:"author"`
	Price             uint   `json:"price"`
	ExamQuestionCount int    `json:"examQuestionCount" validate:"omitempty,min=1"`
	AccessDays        int    `json:"accessDays" validate:"omitempty,min=0"`
}

// CreateLessonRequest is the admin payload for adding a lesson
type CreateLessonRequest struct {
	Title      string `json:"title" validate:"required,min=3"`
	Body       string `json:"body"`
	OrderIndex int    `json:"orderIndex" validate:"min=0"`
}

// QuestionOptionRequest is one answer option on a new question
type QuestionOptionRequest struct {
	OptionText string `json:"optionText" validate:"required"`
	IsCorrect  bool   `json:"isCorrect"`
	OrderIndex int    `json:"orderIndex" validate:"min=0"`
}

// CreateQuestionRequest is the admin payload for adding a question
type CreateQuestionRequest struct {
	Text        string                  `json:"text" validate:"required,min=5"`
	Explanation string                  `json:"explanation"`
	Options     []QuestionOptionRequest `json:"options" validate:"required,min=2,dive"`
}

// CreateCourse validates the admin course payload
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CreateCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fe := range err.(validator.ValidationErrors) {
				errors[strings.ToLower(fe.Field())] = "Invalid value for " + fe.Field() + "!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// UpdateCourse validates the course id and payload for updates
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
		}

		reqData := new(CreateCourseRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fe := range err.(validator.ValidationErrors) {
				errors[strings.ToLower(fe.Field())] = "Invalid value for " + fe.Field() + "!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseId", courseID)
		c.Locals("validatedCourse", reqData)
		return c.Next()
	}
}

// CreateLesson validates the course id and lesson payload
func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
		}

		reqData := new(CreateLessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fe := range err.(validator.ValidationErrors) {
				errors[strings.ToLower(fe.Field())] = "Invalid value for " + fe.Field() + "!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseId", courseID)
		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

// UpdateLesson validates the lesson id and payload for edits
func UpdateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, ok := parseIDParam(c, "lesson_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lesson id!", nil)
		}

		reqData := new(CreateLessonRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if err := validate.Struct(reqData); err != nil {
			errors := make(map[string]string)
			for _, fe := range err.(validator.ValidationErrors) {
				errors[strings.ToLower(fe.Field())] = "Invalid value for " + fe.Field() + "!"
			}
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("lessonId", lessonID)
		c.Locals("validatedLesson", reqData)
		return c.Next()
	}
}

// LessonParam validates the lesson id path param
func LessonParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, ok := parseIDParam(c, "lesson_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lesson id!", nil)
		}
		c.Locals("lessonId", lessonID)
		return c.Next()
	}
}

// QuestionParam validates the question id path param
func QuestionParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		questionID, ok := parseIDParam(c, "question_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid question id!", nil)
		}
		c.Locals("questionId", questionID)
		return c.Next()
	}
}

// CreateQuestion validates the course id and question payload. Exactly one
// option must be marked correct.
func CreateQuestion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
		}

		reqData := new(CreateQuestionRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if err := validate.Struct(reqData); err != nil {
			for _, fe := range err.(validator.ValidationErrors) {
				errors[strings.ToLower(fe.Field())] = "Invalid value for " + fe.Field() + "!"
			}
		}

		correctCount := 0
		for _, opt := range reqData.Options {
			if opt.IsCorrect {
				correctCount++
			}
		}
		if correctCount != 1 {
			errors["options"] = "Exactly one option must be marked correct!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("courseId", courseID)
		c.Locals("validatedQuestion", reqData)
		return c.Next()
	}
}
