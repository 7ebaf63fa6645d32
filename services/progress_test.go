package services

import (
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkLessonCompleteTracksProgress(t *testing.T) {
	f := newFixture(t, 2, 3)
	enrollment := f.enroll(t)

	progress, err := f.lc.MarkLessonComplete(enrollment.ID, f.lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Completed)
	assert.Equal(t, 2, progress.Total)
	assert.Equal(t, 50, progress.Percentage)
	assert.False(t, progress.AllCompleted)

	progress, err = f.lc.MarkLessonComplete(enrollment.ID, f.lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.Completed)
	assert.Equal(t, 100, progress.Percentage)
	assert.True(t, progress.AllCompleted)

	// the enrollment transitioned to completed when the last lesson landed
	var updated courseModels.Enrollment
	require.NoError(t, f.db.First(&updated, enrollment.ID).Error)
	assert.Equal(t, courseModels.EnrollmentCompleted, updated.Status)
	require.NotNil(t, updated.CompletedAt)
}

func TestMarkLessonCompleteIsIdempotent(t *testing.T) {
	f := newFixture(t, 2, 3)
	enrollment := f.enroll(t)

	_, err := f.lc.MarkLessonComplete(enrollment.ID, f.lessons[0].ID)
	require.NoError(t, err)

	var original courseModels.LessonProgress
	require.NoError(t, f.db.Where("enrollment_id = ? AND lesson_id = ?",
		enrollment.ID, f.lessons[0].ID).First(&original).Error)

	progress, err := f.lc.MarkLessonComplete(enrollment.ID, f.lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Completed, "re-marking must not double count")

	var after courseModels.LessonProgress
	require.NoError(t, f.db.Where("enrollment_id = ? AND lesson_id = ?",
		enrollment.ID, f.lessons[0].ID).First(&after).Error)
	assert.Equal(t, original.ID, after.ID)
	assert.WithinDuration(t, original.CompletedAt, after.CompletedAt, 0,
		"the original completion timestamp must survive a re-mark")
}

func TestMarkLessonFromAnotherCourseFails(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)

	other := courseModels.Course{Title: "Other", Description: "Other", Status: "ACTIVE", IsPublished: true}
	require.NoError(t, f.db.Create(&other).Error)
	stray := courseModels.Lesson{CourseID: other.ID, Title: "Stray", IsPublished: true}
	require.NoError(t, f.db.Create(&stray).Error)

	_, err := f.lc.MarkLessonComplete(enrollment.ID, stray.ID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestMarkLessonOnCancelledEnrollmentFails(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	require.NoError(t, f.db.Model(&courseModels.Enrollment{}).
		Where("id = ?", enrollment.ID).
		Update("status", courseModels.EnrollmentCancelled).Error)

	_, err := f.lc.MarkLessonComplete(enrollment.ID, f.lessons[0].ID)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestEligibilityComposesProgressAndQuota(t *testing.T) {
	f := newFixture(t, 2, 3)
	enrollment := f.enroll(t)

	eligibility, err := f.lc.GetEligibility(enrollment.ID)
	require.NoError(t, err)
	assert.False(t, eligibility.AllLessonsCompleted)
	assert.Equal(t, 0, eligibility.AttemptsUsed)
	assert.Equal(t, BaseAttemptQuota, eligibility.AttemptsAvailable)

	f.completeAllLessons(t, enrollment.ID)
	f.buyVoucher(t, enrollment.ID)

	eligibility, err = f.lc.GetEligibility(enrollment.ID)
	require.NoError(t, err)
	assert.True(t, eligibility.AllLessonsCompleted)
	assert.Equal(t, BaseAttemptQuota+1, eligibility.AttemptsAvailable)
}
