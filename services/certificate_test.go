package services

import (
	"regexp"
	"testing"

	courseModels "lms/models/course"
	paymentModels "lms/models/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// passExam drives an enrollment through lessons and a perfect attempt
func passExam(t *testing.T, f *fixture, enrollmentID uint) *courseModels.Certificate {
	t.Helper()
	f.completeAllLessons(t, enrollmentID)

	started, err := f.lc.StartAttempt(enrollmentID)
	require.NoError(t, err)
	result, err := f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, len(started.Questions)))
	require.NoError(t, err)
	require.True(t, result.Passed)
	require.NotNil(t, result.Certificate)
	return result.Certificate
}

func TestCertificateSnapshotsAndFormat(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	cert := passExam(t, f, enrollment.ID)

	assert.Equal(t, f.user.Name, cert.StudentName)
	assert.Equal(t, f.course.Title, cert.CourseName)
	assert.Regexp(t, regexp.MustCompile(`^CERT(-[A-Z2-9]{4}){3}$`), cert.VerificationID)

	found, err := f.lc.FindCertificateByVerificationID(cert.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)
}

func TestAtMostOneCertificatePerEnrollment(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	cert := passExam(t, f, enrollment.ID)

	// issuing again returns the existing certificate instead of a second one
	again, err := f.lc.IssueIfEligible(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, again.ID)
	assert.Equal(t, cert.VerificationID, again.VerificationID)

	var count int64
	require.NoError(t, f.db.Model(&courseModels.Certificate{}).
		Where("enrollment_id = ?", enrollment.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestNoCertificateWithoutPassingAttempt(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)
	result, err := f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, 0))
	require.NoError(t, err)
	require.False(t, result.Passed)
	assert.Nil(t, result.Certificate)

	_, err = f.lc.IssueIfEligible(enrollment.ID)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestRefundDoesNotRevokeCertificate(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	cert := passExam(t, f, enrollment.ID)

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-refund-after-cert",
		EventType:       paymentModels.EventRefund,
		EnrollmentID:    enrollment.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, paymentModels.OutcomeApplied, out.Outcome)
	assert.Equal(t, courseModels.EnrollmentCancelled, out.Enrollment.Status)

	// certification, once earned, survives the refund
	found, err := f.lc.FindCertificateByVerificationID(cert.VerificationID)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, found.ID)
}

func TestUnknownVerificationIDIsNotFound(t *testing.T) {
	f := newFixture(t, 1, 3)

	_, err := f.lc.FindCertificateByVerificationID("CERT-XXXX-XXXX-XXXX")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
