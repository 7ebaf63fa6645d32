package paymentValidator

import (
	"strconv"
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// CourseCheckout validates the course purchase initiation payload
func CourseCheckout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID uint `json:"courseId"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.CourseID == 0 {
			errors["courseId"] = "Course id is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCheckout", reqData)
		return c.Next()
	}
}

// VoucherCheckout validates the voucher purchase initiation payload
func VoucherCheckout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			EnrollmentID uint `json:"enrollmentId"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.EnrollmentID == 0 {
			errors["enrollmentId"] = "Enrollment id is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCheckout", reqData)
		return c.Next()
	}
}

// WebhookEvent is the gateway notification envelope. Events missing an id or
// a known type are rejected before touching the processor.
type WebhookEvent struct {
	ExternalEventID string `json:"externalEventId"`
	EventType       string `json:"type"`
	UserID          uint   `json:"userId"`
	CourseID        uint   `json:"courseId"`
	EnrollmentID    uint   `json:"enrollmentId"`
	Amount          uint   `json:"amount"`
}

// Webhook validates the payment gateway notification body
func Webhook() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(WebhookEvent)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.ExternalEventID) == "" {
			errors["externalEventId"] = "External event id is required!"
		}

		switch reqData.EventType {
		case "course_purchase":
			if reqData.UserID == 0 {
				errors["userId"] = "User id is required!"
			}
			if reqData.CourseID == 0 {
				errors["courseId"] = "Course id is required!"
			}
		case "voucher_purchase":
			if reqData.EnrollmentID == 0 {
				errors["enrollmentId"] = "Enrollment id is required!"
			}
		case "refund":
			if reqData.EnrollmentID == 0 && (reqData.UserID == 0 || reqData.CourseID == 0) {
				errors["enrollmentId"] = "Enrollment id, or user id and course id, is required!"
			}
		default:
			errors["type"] = "Unknown event type: " + strconv.Quote(reqData.EventType)
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedEvent", reqData)
		return c.Next()
	}
}
