package courseController

import (
	"log"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// StartExam opens a new attempt on the caller's enrollment. The response
// carries the frozen question set without correct answers.
func StartExam(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentId").(uint)

	if _, err := userEnrollment(c, enrollmentID); err != nil {
		return serviceError(c, err)
	}

	lc := services.NewLifecycle(database.Database.Db)
	started, err := lc.StartAttempt(enrollmentID)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Exam attempt started.", started)
}

// SubmitExam grades the caller's open attempt. Repeat submissions return the
// stored result untouched.
func SubmitExam(c *fiber.Ctx) error {
	attemptID := c.Locals("attemptId").(uint)
	answers := c.Locals("validatedAnswers").([]services.AnswerInput)
	userID := c.Locals("userId").(uint)

	db := database.Database.Db

	// The attempt must hang off one of the caller's enrollments
	var attempt courseModels.ExamAttempt
	if err := db.
		Joins("JOIN enrollments ON enrollments.id = exam_attempts.enrollment_id").
		Where("exam_attempts.id = ? AND enrollments.user_id = ?", attemptID, userID).
		First(&attempt).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attempt not found!", nil)
	}

	lc := services.NewLifecycle(db)
	result, err := lc.SubmitAttempt(attemptID, answers)
	if err != nil {
		return serviceError(c, err)
	}

	// Congratulation email only on the grading that actually issued the cert
	if result.Certificate != nil && !result.AlreadyGraded {
		cert := result.Certificate
		var student models.User
		if err := db.Where("id = ?", cert.UserID).First(&student).Error; err == nil {
			go utils.SendCertificateIssuedEmail(student.Email, cert.StudentName, cert.CourseName,
				cert.VerificationID, cert.IssuedAt)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Exam submitted.", result)
}

// GetMyAttempts lists the caller's attempts on one enrollment
func GetMyAttempts(c *fiber.Ctx) error {
	enrollmentID := c.Locals("enrollmentId").(uint)

	if _, err := userEnrollment(c, enrollmentID); err != nil {
		return serviceError(c, err)
	}

	var attempts []courseModels.ExamAttempt
	if err := database.Database.Db.
		Select("id, enrollment_id, attempt_number, started_at, submitted_at, score, passed, voucher_id").
		Where("enrollment_id = ?", enrollmentID).
		Order("attempt_number asc").Find(&attempts).Error; err != nil {
		log.Printf("Error fetching attempts: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attempts!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attempts fetched successfully.", attempts)
}
