package services

import (
	"encoding/json"
	"testing"

	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAttemptRequiresAllLessons(t *testing.T) {
	f := newFixture(t, 2, 3)
	enrollment := f.enroll(t)

	_, err := f.lc.MarkLessonComplete(enrollment.ID, f.lessons[0].ID)
	require.NoError(t, err)

	_, err = f.lc.StartAttempt(enrollment.ID)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestStartAttemptFreezesSanitizedQuestions(t *testing.T) {
	f := newFixture(t, 1, 4)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, started.AttemptNumber)
	assert.Len(t, started.Questions, 4)

	// the copy handed to the student must carry no grading data
	raw, err := json.Marshal(started.Questions)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "correct")
	assert.NotContains(t, string(raw), "explanation")
}

func TestSubmitGradesAndIssuesCertificate(t *testing.T) {
	f := newFixture(t, 1, 4)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)

	result, err := f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, 4))
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)
	assert.False(t, result.AlreadyGraded)
	require.NotNil(t, result.Certificate)
	assert.Equal(t, enrollment.ID, result.Certificate.EnrollmentID)
	assert.Len(t, result.Feedback, 4)
	for _, fb := range result.Feedback {
		assert.True(t, fb.Correct)
		assert.NotEmpty(t, fb.Explanation)
	}
}

func TestScoreIsFlooredAndPassBoundaryIsInclusive(t *testing.T) {
	// 2 of 3 correct floors to 66, a fail
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)
	result, err := f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, 2))
	require.NoError(t, err)
	assert.Equal(t, 66, result.Score)
	assert.False(t, result.Passed)
	assert.Nil(t, result.Certificate)

	// 4 of 5 correct is exactly 80, a pass
	f2 := newFixture(t, 1, 5)
	enrollment2 := f2.enroll(t)
	f2.completeAllLessons(t, enrollment2.ID)

	started2, err := f2.lc.StartAttempt(enrollment2.ID)
	require.NoError(t, err)
	result2, err := f2.lc.SubmitAttempt(started2.AttemptID, f2.answersFor(started2, 4))
	require.NoError(t, err)
	assert.Equal(t, 80, result2.Score)
	assert.True(t, result2.Passed)
}

func TestUnansweredQuestionsCountAsIncorrect(t *testing.T) {
	f := newFixture(t, 1, 4)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)

	// answer only the first question, correctly
	answers := f.answersFor(started, 1)[:1]
	result, err := f.lc.SubmitAttempt(started.AttemptID, answers)
	require.NoError(t, err)
	assert.Equal(t, 25, result.Score)
	assert.False(t, result.Passed)
}

func TestRepeatSubmissionReturnsStoredResult(t *testing.T) {
	f := newFixture(t, 1, 4)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)

	first, err := f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, 1))
	require.NoError(t, err)
	assert.Equal(t, 25, first.Score)

	// a second submission with a perfect sheet changes nothing
	second, err := f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, 4))
	require.NoError(t, err)
	assert.True(t, second.AlreadyGraded)
	assert.Equal(t, 25, second.Score)
	assert.False(t, second.Passed)
}

func TestOpenAttemptBlocksAnotherStart(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	_, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)

	_, err = f.lc.StartAttempt(enrollment.ID)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestQuotaThenVoucherThenExhaustion(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	failOnce := func() {
		started, err := f.lc.StartAttempt(enrollment.ID)
		require.NoError(t, err)
		result, err := f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, 0))
		require.NoError(t, err)
		require.False(t, result.Passed)
	}

	// burn both base attempts
	failOnce()
	failOnce()

	// third start needs a voucher
	_, err := f.lc.StartAttempt(enrollment.ID)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	voucher := f.buyVoucher(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, started.AttemptNumber)
	require.NotNil(t, started.VoucherID)
	assert.Equal(t, voucher.ID, *started.VoucherID)

	// the voucher is consumed by the attempt it funded
	var consumed courseModels.Voucher
	require.NoError(t, f.db.First(&consumed, voucher.ID).Error)
	require.NotNil(t, consumed.ConsumedByAttemptID)
	assert.Equal(t, started.AttemptID, *consumed.ConsumedByAttemptID)

	result, err := f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, 0))
	require.NoError(t, err)
	require.False(t, result.Passed)

	// no unconsumed voucher left, so a fourth attempt is out
	_, err = f.lc.StartAttempt(enrollment.ID)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestFrozenSetIgnoresLaterBankEdits(t *testing.T) {
	f := newFixture(t, 1, 3)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)
	answers := f.answersFor(started, 3)

	// rewrite the bank mid-attempt: new question, flipped correct options
	extra := courseModels.Question{CourseID: f.course.ID, Text: "Added later"}
	require.NoError(t, f.db.Create(&extra).Error)
	require.NoError(t, f.db.Model(&courseModels.QuestionOption{}).
		Where("question_id = ?", f.questions[0].ID).
		Update("is_correct", false).Error)

	result, err := f.lc.SubmitAttempt(started.AttemptID, answers)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score, "grading must use the frozen copy, not the live bank")
	assert.Len(t, result.Feedback, 3)
}

func TestAttemptsOnSameEnrollmentFreezeIndependently(t *testing.T) {
	f := newFixture(t, 1, 10)
	require.NoError(t, f.db.Model(&f.course).Update("exam_question_count", 4).Error)
	f.course.ExamQuestionCount = 4

	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	started, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, started.Questions, 4)
	_, err = f.lc.SubmitAttempt(started.AttemptID, f.answersFor(started, 0))
	require.NoError(t, err)

	second, err := f.lc.StartAttempt(enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, second.Questions, 4)
	assert.Equal(t, 2, second.AttemptNumber)
}

func TestStartAttemptWithEmptyBankFails(t *testing.T) {
	f := newFixture(t, 1, 0)
	enrollment := f.enroll(t)
	f.completeAllLessons(t, enrollment.ID)

	_, err := f.lc.StartAttempt(enrollment.ID)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}
