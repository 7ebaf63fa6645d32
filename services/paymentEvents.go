package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	paymentModels "lms/models/payment"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentEventInput is the gateway webhook envelope after signature
// verification (signature checking belongs to the receiving adapter).
// Amount is informational only; the gateway owns the money.
type PaymentEventInput struct {
	ExternalEventID string `json:"external_event_id"`
	EventType       string `json:"type"`
	UserID          uint   `json:"user_id"`
	CourseID        uint   `json:"course_id"`
	EnrollmentID    uint   `json:"enrollment_id"`
	Amount          uint   `json:"amount"`
	Raw             []byte `json:"-"`
}

// PaymentOutcome reports how an event was handled. Duplicate and rejected are
// expected outcomes, not errors: both mean the gateway must stop retrying.
type PaymentOutcome struct {
	Outcome    string                   `json:"outcome"`
	Reason     string                   `json:"reason,omitempty"`
	Enrollment *courseModels.Enrollment `json:"enrollment,omitempty"`
	Voucher    *courseModels.Voucher    `json:"voucher,omitempty"`
}

// errDuplicateEvent aborts the transaction when the dedupe insert loses
var errDuplicateEvent = errors.New("payment event already processed")

// ProcessPaymentEvent deduplicates and applies one gateway notification.
// The PaymentEventRecord insert comes before any side effect; its unique
// external_event_id is what makes at-least-once delivery safe. Permanently
// invalid events are recorded as processed (outcome rejected) so the gateway
// stops re-delivering them; only transient storage failures return an error,
// leaving no partial state behind.
func (lc *Lifecycle) ProcessPaymentEvent(in PaymentEventInput) (*PaymentOutcome, error) {
	if strings.TrimSpace(in.ExternalEventID) == "" {
		return nil, NewValidationError("external_event_id is required")
	}

	out := &PaymentOutcome{}
	err := lc.Db.Transaction(func(tx *gorm.DB) error {
		record := paymentModels.PaymentEventRecord{
			ExternalEventID: in.ExternalEventID,
			EventType:       in.EventType,
			ProcessedAt:     time.Now(),
			RawPayload:      datatypes.JSON(in.Raw),
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return errDuplicateEvent
			}
			return err
		}

		if err := lc.applyPaymentEvent(tx, in, out); err != nil {
			return err
		}

		return tx.Model(&record).
			Updates(map[string]interface{}{"outcome": out.Outcome, "reason": out.Reason}).Error
	})
	if errors.Is(err, errDuplicateEvent) {
		log.Printf("[WEBHOOK] duplicate event %s ignored", in.ExternalEventID)
		return &PaymentOutcome{Outcome: paymentModels.OutcomeDuplicate}, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Outcome == paymentModels.OutcomeRejected {
		log.Printf("[WEBHOOK] event %s rejected: %s", in.ExternalEventID, out.Reason)
	}
	return out, nil
}

// applyPaymentEvent dispatches a freshly recorded event. Business rejections
// set the outcome and return nil so the dedupe record still commits.
func (lc *Lifecycle) applyPaymentEvent(tx *gorm.DB, in PaymentEventInput, out *PaymentOutcome) error {
	switch in.EventType {
	case paymentModels.EventCoursePurchase:
		return lc.applyCoursePurchase(tx, in, out)
	case paymentModels.EventVoucherPurchase:
		return lc.applyVoucherPurchase(tx, in, out)
	case paymentModels.EventRefund:
		return lc.applyRefund(tx, in, out)
	default:
		out.Outcome = paymentModels.OutcomeRejected
		out.Reason = "unknown event type"
		return nil
	}
}

func (lc *Lifecycle) applyCoursePurchase(tx *gorm.DB, in PaymentEventInput, out *PaymentOutcome) error {
	if in.UserID == 0 || in.CourseID == 0 {
		out.Outcome = paymentModels.OutcomeRejected
		out.Reason = "user_id and course_id are required"
		return nil
	}

	var user models.User
	if err := tx.Where("id = ? AND is_deleted = false", in.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out.Outcome = paymentModels.OutcomeRejected
			out.Reason = "user not found"
			return nil
		}
		return err
	}

	var crs courseModels.Course
	if err := tx.Where("id = ? AND is_deleted = false AND status = ?", in.CourseID, "ACTIVE").
		First(&crs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out.Outcome = paymentModels.OutcomeRejected
			out.Reason = "course not found or not active"
			return nil
		}
		return err
	}

	var existing courseModels.Enrollment
	err := tx.Where("user_id = ? AND course_id = ? AND status = ?",
		in.UserID, in.CourseID, courseModels.EnrollmentActive).First(&existing).Error
	if err == nil {
		out.Outcome = paymentModels.OutcomeRejected
		out.Reason = "already enrolled"
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Snapshot the published lesson count at enroll time
	var lessonTotal int64
	if err := tx.Model(&courseModels.Lesson{}).
		Where("course_id = ? AND is_deleted = false AND is_published = true", in.CourseID).
		Count(&lessonTotal).Error; err != nil {
		return err
	}

	now := time.Now()
	enrollment := courseModels.Enrollment{
		UserID:      in.UserID,
		CourseID:    in.CourseID,
		Status:      courseModels.EnrollmentActive,
		EnrolledAt:  now,
		LessonTotal: int(lessonTotal),
	}
	if crs.AccessDays > 0 {
		expires := now.AddDate(0, 0, crs.AccessDays)
		enrollment.AccessExpiresAt = &expires
	}

	// The partial unique index backstops the check above against a racing
	// webhook with a different event id
	tx.SavePoint("apply")
	if err := tx.Create(&enrollment).Error; err != nil {
		if isUniqueViolation(err) {
			tx.RollbackTo("apply")
			out.Outcome = paymentModels.OutcomeRejected
			out.Reason = "already enrolled"
			return nil
		}
		return err
	}

	out.Outcome = paymentModels.OutcomeApplied
	out.Enrollment = &enrollment
	return nil
}

func (lc *Lifecycle) applyVoucherPurchase(tx *gorm.DB, in PaymentEventInput, out *PaymentOutcome) error {
	if in.EnrollmentID == 0 {
		out.Outcome = paymentModels.OutcomeRejected
		out.Reason = "enrollment_id is required"
		return nil
	}

	var enrollment courseModels.Enrollment
	if err := tx.Where("id = ?", in.EnrollmentID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out.Outcome = paymentModels.OutcomeRejected
			out.Reason = "enrollment not found"
			return nil
		}
		return err
	}
	if !enrollmentIsLive(enrollment.Status) {
		out.Outcome = paymentModels.OutcomeRejected
		out.Reason = "enrollment is not active"
		return nil
	}

	voucher := courseModels.Voucher{
		EnrollmentID: enrollment.ID,
		PurchasedAt:  time.Now(),
	}
	if err := tx.Create(&voucher).Error; err != nil {
		return err
	}

	out.Outcome = paymentModels.OutcomeApplied
	out.Voucher = &voucher
	return nil
}

func (lc *Lifecycle) applyRefund(tx *gorm.DB, in PaymentEventInput, out *PaymentOutcome) error {
	var enrollment courseModels.Enrollment
	var err error
	switch {
	case in.EnrollmentID != 0:
		err = tx.Where("id = ?", in.EnrollmentID).First(&enrollment).Error
	case in.UserID != 0 && in.CourseID != 0:
		err = tx.Where("user_id = ? AND course_id = ? AND status IN ?",
			in.UserID, in.CourseID,
			[]string{courseModels.EnrollmentActive, courseModels.EnrollmentCompleted}).
			First(&enrollment).Error
	default:
		out.Outcome = paymentModels.OutcomeRejected
		out.Reason = "enrollment_id or user_id+course_id is required"
		return nil
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out.Outcome = paymentModels.OutcomeRejected
			out.Reason = "enrollment not found"
			return nil
		}
		return err
	}

	// Certification, once earned, is permanent: the certificate row (if any)
	// is untouched. An open attempt is left orphaned rather than force-closed.
	if enrollment.Status != courseModels.EnrollmentCancelled {
		if err := tx.Model(&enrollment).
			Update("status", courseModels.EnrollmentCancelled).Error; err != nil {
			return err
		}
		enrollment.Status = courseModels.EnrollmentCancelled
	}

	out.Outcome = paymentModels.OutcomeApplied
	out.Enrollment = &enrollment
	return nil
}

// enrollmentIsLive reports whether the enrollment still grants access:
// cancelled and expired enrollments are dead, completed ones are not.
func enrollmentIsLive(status string) bool {
	return status == courseModels.EnrollmentActive || status == courseModels.EnrollmentCompleted
}
