package courseController

import (
	"log"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// CreateCourse creates a new draft course. Courses start unpublished.
func CreateCourse(c *fiber.Ctx) error {
	reqData := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	db := database.Database.Db

	newCourse := courseModels.Course{
		Title:       reqData.Title,
		Description: reqData.Description,
		Author:      reqData.Author,
		Price:       reqData.Price,
		Status:      "DRAFT",
	}
	if reqData.ExamQuestionCount > 0 {
		newCourse.ExamQuestionCount = reqData.ExamQuestionCount
	}
	if reqData.AccessDays > 0 {
		newCourse.AccessDays = reqData.AccessDays
	}

	if err := db.Create(&newCourse).Error; err != nil {
		log.Printf("Error creating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully.", newCourse)
}

// UpdateCourse updates an existing course's editable fields. Edits never
// touch question sets already frozen into attempts.
func UpdateCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)
	reqData := c.Locals("validatedCourse").(*courseValidator.CreateCourseRequest)
	db := database.Database.Db

	var crs courseModels.Course
	if err := db.Where("id = ? AND is_deleted = false", courseID).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	crs.Title = reqData.Title
	crs.Description = reqData.Description
	crs.Author = reqData.Author
	crs.Price = reqData.Price
	if reqData.ExamQuestionCount > 0 {
		crs.ExamQuestionCount = reqData.ExamQuestionCount
	}
	crs.AccessDays = reqData.AccessDays

	if err := db.Save(&crs).Error; err != nil {
		log.Printf("Error updating course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully.", crs)
}

// PublishCourse flips a course live. Requires at least one published lesson
// and at least one question, otherwise enrollments could never reach an exam.
func PublishCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)
	db := database.Database.Db

	var crs courseModels.Course
	if err := db.Where("id = ? AND is_deleted = false", courseID).First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var lessonCount int64
	if err := db.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = false AND is_published = true", courseID).
		Count(&lessonCount).Error; err != nil {
		log.Printf("Error counting lessons: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to publish course!", nil)
	}
	if lessonCount == 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course needs at least one published lesson!", nil)
	}

	var questionCount int64
	if err := db.Model(&courseModels.Question{}).
		Where("course_id = ? AND is_deleted = false", courseID).
		Count(&questionCount).Error; err != nil {
		log.Printf("Error counting questions: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to publish course!", nil)
	}
	if questionCount == 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Course needs at least one exam question!", nil)
	}

	crs.Status = "ACTIVE"
	crs.IsPublished = true
	if err := db.Save(&crs).Error; err != nil {
		log.Printf("Error publishing course: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to publish course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course published successfully.", crs)
}

// CreateLesson adds a lesson to a course
func CreateLesson(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)
	reqData := c.Locals("validatedLesson").(*courseValidator.CreateLessonRequest)
	db := database.Database.Db

	if err := db.Where("id = ? AND is_deleted = false", courseID).
		First(&courseModels.Course{}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	newLesson := courseModels.Lesson{
		CourseID:    courseID,
		Title:       reqData.Title,
		Body:        reqData.Body,
		OrderIndex:  reqData.OrderIndex,
		IsPublished: true,
	}

	if err := db.Create(&newLesson).Error; err != nil {
		log.Printf("Error creating lesson: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully.", newLesson)
}

// CreateQuestion adds an exam question with its options to a course's bank.
// New questions only affect attempts started afterwards.
func CreateQuestion(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)
	reqData := c.Locals("validatedQuestion").(*courseValidator.CreateQuestionRequest)
	db := database.Database.Db

	if err := db.Where("id = ? AND is_deleted = false", courseID).
		First(&courseModels.Course{}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	newQuestion := courseModels.Question{
		CourseID:    courseID,
		Text:        reqData.Text,
		Explanation: reqData.Explanation,
	}

	if err := db.Create(&newQuestion).Error; err != nil {
		log.Printf("Error creating question: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create question!", nil)
	}

	options := make([]courseModels.QuestionOption, 0, len(reqData.Options))
	for _, opt := range reqData.Options {
		options = append(options, courseModels.QuestionOption{
			QuestionID: newQuestion.ID,
			OptionText: opt.OptionText,
			IsCorrect:  opt.IsCorrect,
			OrderIndex: opt.OrderIndex,
		})
	}
	if err := db.Create(&options).Error; err != nil {
		log.Printf("Error creating question options: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create question!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Question created successfully.", fiber.Map{
		"question": newQuestion,
		"options":  options,
	})
}

// UpdateLesson edits a lesson's content and ordering
func UpdateLesson(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonId").(uint)
	reqData := c.Locals("validatedLesson").(*courseValidator.CreateLessonRequest)
	db := database.Database.Db

	var lesson courseModels.Lesson
	if err := db.Where("id = ? AND is_deleted = false", lessonID).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	lesson.Title = reqData.Title
	lesson.Body = reqData.Body
	lesson.OrderIndex = reqData.OrderIndex

	if err := db.Save(&lesson).Error; err != nil {
		log.Printf("Error updating lesson: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully.", lesson)
}

// DeleteLesson soft-deletes a lesson. Existing enrollments keep their
// LessonTotal snapshot, so in-flight progress is unaffected.
func DeleteLesson(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonId").(uint)
	db := database.Database.Db

	res := db.Model(&courseModels.Lesson{}).
		Where("id = ? AND is_deleted = false", lessonID).
		Update("is_deleted", true)
	if res.Error != nil {
		log.Printf("Error deleting lesson: %v", res.Error)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully.", nil)
}

// DeleteQuestion soft-deletes a bank question. Attempts already started keep
// grading against their frozen copy.
func DeleteQuestion(c *fiber.Ctx) error {
	questionID := c.Locals("questionId").(uint)
	db := database.Database.Db

	res := db.Model(&courseModels.Question{}).
		Where("id = ? AND is_deleted = false", questionID).
		Update("is_deleted", true)
	if res.Error != nil {
		log.Printf("Error deleting question: %v", res.Error)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete question!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Question not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Question deleted successfully.", nil)
}

// GetCourseEnrollments lists enrollments on a course for the admin dashboard
func GetCourseEnrollments(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)
	db := database.Database.Db

	var enrollments []courseModels.Enrollment
	if err := db.Where("course_id = ?", courseID).
		Order("enrolled_at desc").Find(&enrollments).Error; err != nil {
		log.Printf("Error fetching course enrollments: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully.", enrollments)
}
