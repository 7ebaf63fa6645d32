package paymentController

import (
	"log"

	"lms/database"
	"lms/middleware"
	"lms/models"
	paymentModels "lms/models/payment"
	"lms/services"
	"lms/utils"
	paymentValidator "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

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

// CourseCheckout opens a gateway transaction for a course purchase. The
// enrollment itself is only created when the webhook confirms payment.
func CourseCheckout(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedCheckout").(*struct {
		CourseID uint `json:"courseId"`
	})

	lc := services.NewLifecycle(database.Database.Db)
	checkout, err := lc.CreateCourseCheckout(userID, reqData.CourseID)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Checkout created.", checkout)
}

// VoucherCheckout opens a gateway transaction for an extra exam attempt
func VoucherCheckout(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	reqData := c.Locals("validatedCheckout").(*struct {
		EnrollmentID uint `json:"enrollmentId"`
	})

	// Flat voucher price; per-course pricing would hang off the course row
	const voucherPrice = 500

	lc := services.NewLifecycle(database.Database.Db)
	checkout, err := lc.CreateVoucherCheckout(userID, reqData.EnrollmentID, voucherPrice)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Checkout created.", checkout)
}

// Webhook receives payment gateway notifications. Business rejections and
// duplicates still answer 200 so the gateway stops retrying; only transient
// failures answer 503 to request a redelivery.
func Webhook(c *fiber.Ctx) error {
	event := c.Locals("validatedEvent").(*paymentValidator.WebhookEvent)

	lc := services.NewLifecycle(database.Database.Db)
	outcome, err := lc.ProcessPaymentEvent(services.PaymentEventInput{
		ExternalEventID: event.ExternalEventID,
		EventType:       event.EventType,
		UserID:          event.UserID,
		CourseID:        event.CourseID,
		EnrollmentID:    event.EnrollmentID,
		Amount:          event.Amount,
		Raw:             c.Body(),
	})
	if err != nil {
		if services.IsValidation(err) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
		}
		log.Printf("Transient error processing payment event %s: %v", event.ExternalEventID, err)
		return middleware.JsonResponse(c, fiber.StatusServiceUnavailable, false, "Temporary failure, please retry.", nil)
	}

	// Welcome email on a fresh course purchase, off the request path
	if outcome.Outcome == paymentModels.OutcomeApplied &&
		event.EventType == paymentModels.EventCoursePurchase &&
		outcome.Enrollment != nil {
		go sendWelcomeEmail(outcome.Enrollment.UserID, outcome.Enrollment.CourseID)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event processed.", outcome)
}

func sendWelcomeEmail(userID, courseID uint) {
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		log.Printf("Error fetching user %d for welcome email: %v", userID, err)
		return
	}
	var crs struct {
		Title string
	}
	if err := db.Table("courses").Where("id = ?", courseID).Take(&crs).Error; err != nil {
		log.Printf("Error fetching course %d for welcome email: %v", courseID, err)
		return
	}

	utils.SendEnrollmentWelcomeEmail(user.Email, user.Name, crs.Title)
}
