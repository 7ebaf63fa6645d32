package services

import (
	"testing"

	courseModels "lms/models/course"
	paymentModels "lms/models/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoursePurchaseCreatesEnrollment(t *testing.T) {
	f := newFixture(t, 2, 3)

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-1",
		EventType:       paymentModels.EventCoursePurchase,
		UserID:          f.user.ID,
		CourseID:        f.course.ID,
		Raw:             []byte(`{"externalEventId":"evt-1"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, paymentModels.OutcomeApplied, out.Outcome)
	require.NotNil(t, out.Enrollment)
	assert.Equal(t, courseModels.EnrollmentActive, out.Enrollment.Status)
	assert.Equal(t, 2, out.Enrollment.LessonTotal)
	assert.Nil(t, out.Enrollment.AccessExpiresAt) // AccessDays = 0 means perpetual

	var record paymentModels.PaymentEventRecord
	require.NoError(t, f.db.Where("external_event_id = ?", "evt-1").First(&record).Error)
	assert.Equal(t, paymentModels.OutcomeApplied, record.Outcome)
}

func TestCoursePurchaseSetsAccessExpiry(t *testing.T) {
	f := newFixture(t, 1, 3)
	require.NoError(t, f.db.Model(&f.course).Update("access_days", 30).Error)

	enrollment := f.enroll(t)
	require.NotNil(t, enrollment.AccessExpiresAt)
	assert.True(t, enrollment.AccessExpiresAt.After(enrollment.EnrolledAt))
}

func TestDuplicateEventIsIgnored(t *testing.T) {
	f := newFixture(t, 2, 3)

	in := PaymentEventInput{
		ExternalEventID: "evt-dup",
		EventType:       paymentModels.EventCoursePurchase,
		UserID:          f.user.ID,
		CourseID:        f.course.ID,
	}

	first, err := f.lc.ProcessPaymentEvent(in)
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeApplied, first.Outcome)

	second, err := f.lc.ProcessPaymentEvent(in)
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeDuplicate, second.Outcome)

	var count int64
	require.NoError(t, f.db.Model(&courseModels.Enrollment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "replayed delivery must not create a second enrollment")
}

func TestSecondPurchaseWithFreshEventIsRejected(t *testing.T) {
	f := newFixture(t, 1, 3)
	f.enroll(t)

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-second",
		EventType:       paymentModels.EventCoursePurchase,
		UserID:          f.user.ID,
		CourseID:        f.course.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeRejected, out.Outcome)
	assert.Equal(t, "already enrolled", out.Reason)
}

func TestVoucherPurchase(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)

	voucher := f.buyVoucher(t, enrollment.ID)
	assert.Equal(t, enrollment.ID, voucher.EnrollmentID)
	assert.Nil(t, voucher.ConsumedByAttemptID)
}

func TestVoucherPurchaseForCancelledEnrollmentIsRejected(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	require.NoError(t, f.db.Model(&courseModels.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Update("status", courseModels.EnrollmentCancelled).Error)

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-voucher-dead",
		EventType:       paymentModels.EventVoucherPurchase,
		EnrollmentID:    enrollment.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeRejected, out.Outcome)
}

func TestRefundCancelsEnrollment(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-refund",
		EventType:       paymentModels.EventRefund,
		EnrollmentID:    enrollment.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeApplied, out.Outcome)
	assert.Equal(t, courseModels.EnrollmentCancelled, out.Enrollment.Status)

	// refunding again is an idempotent no-op, not an error
	again, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-refund-2",
		EventType:       paymentModels.EventRefund,
		EnrollmentID:    enrollment.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeApplied, again.Outcome)
	assert.Equal(t, courseModels.EnrollmentCancelled, again.Enrollment.Status)
}

func TestRefundByUserAndCourse(t *testing.T) {
	f := newFixture(t, 1, 3)
	f.enroll(t)

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-refund-uc",
		EventType:       paymentModels.EventRefund,
		UserID:          f.user.ID,
		CourseID:        f.course.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeApplied, out.Outcome)
	assert.Equal(t, courseModels.EnrollmentCancelled, out.Enrollment.Status)
}

func TestEventWithoutIDFailsValidation(t *testing.T) {
	f := newFixture(t, 1, 3)

	_, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		EventType: paymentModels.EventCoursePurchase,
		UserID:    f.user.ID,
		CourseID:  f.course.ID,
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestUnknownEventTypeIsRejectedAndRecorded(t *testing.T) {
	f := newFixture(t, 1, 3)

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-unknown",
		EventType:       "chargeback",
	})
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeRejected, out.Outcome)

	// the dedupe record still lands so the gateway stops retrying
	var record paymentModels.PaymentEventRecord
	require.NoError(t, f.db.Where("external_event_id = ?", "evt-unknown").First(&record).Error)
	assert.Equal(t, paymentModels.OutcomeRejected, record.Outcome)
}

func TestPurchaseOfInactiveCourseIsRejected(t *testing.T) {
	f := newFixture(t, 1, 3)
	require.NoError(t, f.db.Model(&f.course).Update("status", "INACTIVE").Error)

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-inactive",
		EventType:       paymentModels.EventCoursePurchase,
		UserID:          f.user.ID,
		CourseID:        f.course.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeRejected, out.Outcome)
}
