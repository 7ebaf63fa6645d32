package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up course authoring routes for admins
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin/course", middleware.JWTMiddleware, middleware.RequireRole("ADMIN"))

	adminGroup.Post("/", validators.CreateCourse(), controllers.CreateCourse)
	adminGroup.Put("/:id", validators.UpdateCourse(), controllers.UpdateCourse)
	adminGroup.Post("/:id/publish", validators.GetCourseDetail(), controllers.PublishCourse)

	adminGroup.Post("/:id/lesson", validators.CreateLesson(), controllers.CreateLesson)
	adminGroup.Put("/lesson/:lesson_id", validators.UpdateLesson(), controllers.UpdateLesson)
	adminGroup.Delete("/lesson/:lesson_id", validators.LessonParam(), controllers.DeleteLesson)

	adminGroup.Post("/:id/question", validators.CreateQuestion(), controllers.CreateQuestion)
	adminGroup.Delete("/question/:question_id", validators.QuestionParam(), controllers.DeleteQuestion)

	adminGroup.Get("/:id/enrollments", validators.GetCourseDetail(), controllers.GetCourseEnrollments)
}
