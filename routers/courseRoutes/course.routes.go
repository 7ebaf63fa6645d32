package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Course catalog
	courseGroup.Get("/list", middleware.JWTMiddleware, validators.CourseList(), controllers.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.GetCourseDetail(), controllers.GetCourseDetails)

	// Enrollments
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.GetUserEnrollmentsList)
	userGroup.Get("/certificates", middleware.JWTMiddleware, controllers.GetUserCertificates)

	// Progress tracking
	enrollmentGroup := app.Group("/enrollment")
	enrollmentGroup.Post("/:enrollment_id/lesson/:lesson_id/complete", middleware.JWTMiddleware, validators.MarkLessonComplete(), controllers.MarkLessonComplete)
	enrollmentGroup.Get("/:enrollment_id/progress", middleware.JWTMiddleware, validators.EnrollmentParam(), controllers.GetProgress)
	enrollmentGroup.Get("/:enrollment_id/eligibility", middleware.JWTMiddleware, validators.EnrollmentParam(), controllers.GetEligibility)

	// Exam attempts
	enrollmentGroup.Post("/:enrollment_id/exam/start", middleware.JWTMiddleware, validators.StartExam(), controllers.StartExam)
	enrollmentGroup.Get("/:enrollment_id/exam/attempts", middleware.JWTMiddleware, validators.EnrollmentParam(), controllers.GetMyAttempts)

	examGroup := app.Group("/exam")
	examGroup.Post("/attempt/:attempt_id/submit", middleware.JWTMiddleware, validators.SubmitExam(), controllers.SubmitExam)

	// Certificates: public verification, authenticated download
	certGroup := app.Group("/certificate")
	certGroup.Get("/verify/:verification_id", validators.VerifyCertificate(), controllers.VerifyCertificate)
	certGroup.Get("/:verification_id/download", middleware.JWTMiddleware, validators.VerifyCertificate(), controllers.DownloadCertificate)
}
