package courseController

import (
	"lms/database"
	"lms/middleware"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// MarkLessonComplete records one lesson completion for the caller's
// enrollment. Marking the same lesson again just returns current progress.
func MarkLessonComplete(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentId").(uint)
	lessonID := c.Locals("lessonId").(uint)

	if _, err := userEnrollment(c, enrollmentID); err != nil {
		return serviceError(c, err)
	}

	lc := services.NewLifecycle(database.Database.Db)
	progress, err := lc.MarkLessonComplete(enrollmentID, lessonID)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson marked complete.", progress)
}

// GetProgress returns lesson completion counts for the caller's enrollment
func GetProgress(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentId").(uint)

	if _, err := userEnrollment(c, enrollmentID); err != nil {
		return serviceError(c, err)
	}

	lc := services.NewLifecycle(database.Database.Db)
	progress, err := lc.GetProgress(enrollmentID)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully.", progress)
}

// GetEligibility reports whether the caller can start the exam and how many
// attempts remain
func GetEligibility(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentId").(uint)

	if _, err := userEnrollment(c, enrollmentID); err != nil {
		return serviceError(c, err)
	}

	lc := services.NewLifecycle(database.Database.Db)
	eligibility, err := lc.GetEligibility(enrollmentID)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Eligibility fetched successfully.", eligibility)
}
