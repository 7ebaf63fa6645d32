package courseController

import (
	"log"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps lifecycle errors to HTTP statuses. Anything unwrapped is
// treated as transient and reported as a 500.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case services.IsValidation(err):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	case services.IsConflict(err):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, err.Error(), nil)
	case services.IsNotFound(err):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, err.Error(), nil)
	default:
		log.Printf("Unexpected service error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}
}

// userEnrollment loads an enrollment and checks it belongs to the caller
func userEnrollment(c *fiber.Ctx, enrollmentID uint) (*courseModels.Enrollment, error) {
	userID := c.Locals("userId").(uint)

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.
		Where("id = ? AND user_id = ?", enrollmentID, userID).
		First(&enrollment).Error; err != nil {
		return nil, services.NewNotFoundError("enrollment not found")
	}
	return &enrollment, nil
}

// GetAllCourses lists published, active courses with pagination
func GetAllCourses(c *fiber.Ctx) error {
	reqData := c.Locals("validatedList").(*struct {
		Page  *int `json:"page"`
		Limit *int `json:"limit"`
	})

	db := database.Database.Db
	offset := (*reqData.Page - 1) * *reqData.Limit

	var courses []courseModels.Course
	var total int64

	query := db.Model(&courseModels.Course{}).
		Where("is_deleted = false AND is_published = true AND status = ?", "ACTIVE")

	if err := query.Count(&total).Error; err != nil {
		log.Printf("Error counting courses: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}
	if err := query.Order("id desc").Offset(offset).Limit(*reqData.Limit).Find(&courses).Error; err != nil {
		log.Printf("Error fetching courses: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully.", fiber.Map{
		"courses": courses,
		"total":   total,
		"page":    *reqData.Page,
		"limit":   *reqData.Limit,
	})
}

// GetCourseDetails returns one published course with its published lessons
func GetCourseDetails(c *fiber.Ctx) error {
	courseID := c.Locals("courseId").(uint)
	db := database.Database.Db

	var crs courseModels.Course
	if err := db.Where("id = ? AND is_deleted = false AND is_published = true", courseID).
		First(&crs).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var lessons []courseModels.Lesson
	if err := db.Where("course_id = ? AND is_deleted = false AND is_published = true", courseID).
		Order("order_index asc, id asc").Find(&lessons).Error; err != nil {
		log.Printf("Error fetching lessons: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully.", fiber.Map{
		"course":  crs,
		"lessons": lessons,
	})
}

// GetUserEnrollmentsList lists the caller's enrollments, newest first
func GetUserEnrollmentsList(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	db := database.Database.Db

	var enrollments []courseModels.Enrollment
	if err := db.Where("user_id = ?", userID).
		Order("enrolled_at desc").Find(&enrollments).Error; err != nil {
		log.Printf("Error fetching enrollments: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully.", enrollments)
}
