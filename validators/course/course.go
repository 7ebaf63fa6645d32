package courseValidator

import (
	"strconv"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// parseIDParam pulls a positive integer path parameter
func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// CourseList validates pagination query params for course listing
func CourseList() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Page  *int `json:"page"`
			Limit *int `json:"limit"`
		})

		if err := c.QueryParser(reqData); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body!",
				"errors":  nil,
			})
		}

		errors := make(map[string]string)

		// Validate Page
		if reqData.Page == nil || *reqData.Page < 1 {
			errors["page"] = "Page must be greater than 0!"
		}

		// Validate Limit
		if reqData.Limit == nil || *reqData.Limit < 1 {
			errors["limit"] = "Limit must be greater than 0!"
		}

		// Respond with validation errors if any exist
		if len(errors) > 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Validation failed!",
				"errors":  errors,
			})
		}

		c.Locals("validatedList", reqData)
		return c.Next()
	}
}

// GetCourseDetail validates the course id path param
func GetCourseDetail() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := parseIDParam(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid course id!", nil)
		}
		c.Locals("courseId", courseID)
		return c.Next()
	}
}

// EnrollmentParam validates the enrollment id path param
func EnrollmentParam() fiber.Handler {
	return func(c *fiber.Ctx) error {
		enrollmentID, ok := parseIDParam(c, "enrollment_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid enrollment id!", nil)
		}
		c.Locals("enrollmentId", enrollmentID)
		return c.Next()
	}
}

// MarkLessonComplete validates the enrollment and lesson path params
func MarkLessonComplete() fiber.Handler {
	return func(c *fiber.Ctx) error {
		enrollmentID, ok := parseIDParam(c, "enrollment_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid enrollment id!", nil)
		}
		lessonID, ok := parseIDParam(c, "lesson_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid lesson id!", nil)
		}
		c.Locals("enrollmentId", enrollmentID)
		c.Locals("lessonId", lessonID)
		return c.Next()
	}
}

// VerifyCertificate validates the public verification id path param
func VerifyCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		verificationID := c.Params("verification_id")
		if len(verificationID) < 10 || len(verificationID) > 64 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid verification id!", nil)
		}
		c.Locals("verificationId", verificationID)
		return c.Next()
	}
}
