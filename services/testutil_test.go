package services

import (
	"testing"

	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	paymentModels "lms/models/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture wires an in-memory database with one user and one published course
type fixture struct {
	db        *gorm.DB
	lc        *Lifecycle
	user      models.User
	course    courseModels.Course
	lessons   []courseModels.Lesson
	questions []courseModels.Question
	correct   map[uint]uint // question id -> correct option id
	wrong     map[uint]uint // question id -> one incorrect option id
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// single connection so every query sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database.RunMigrations(db)
	return db
}

func newFixture(t *testing.T, lessonCount, questionCount int) *fixture {
	t.Helper()

	db := setupTestDB(t)
	f := &fixture{
		db:      db,
		lc:      NewLifecycle(db),
		correct: make(map[uint]uint),
		wrong:   make(map[uint]uint),
	}

	f.user = models.User{
		Name:     "Test Student",
		Email:    "student@example.com",
		Mobile:   "9876543210",
		Password: "irrelevant",
	}
	require.NoError(t, db.Create(&f.user).Error)

	f.course = courseModels.Course{
		Title:             "Practical Databases",
		Description:       "From schemas to transactions",
		Author:            "Test Author",
		Status:            "ACTIVE",
		Price:             4999,
		ExamQuestionCount: questionCount,
		IsPublished:       true,
	}
	require.NoError(t, db.Create(&f.course).Error)

	for i := 0; i < lessonCount; i++ {
		lesson := courseModels.Lesson{
			CourseID:    f.course.ID,
			Title:       "Lesson",
			Body:        "Lesson body",
			OrderIndex:  i,
			IsPublished: true,
		}
		require.NoError(t, db.Create(&lesson).Error)
		f.lessons = append(f.lessons, lesson)
	}

	for i := 0; i < questionCount; i++ {
		question := courseModels.Question{
			CourseID:    f.course.ID,
			Text:        "What does the second option say?",
			Explanation: "The second option is always right here.",
		}
		require.NoError(t, db.Create(&question).Error)
		f.questions = append(f.questions, question)

		for j := 0; j < 3; j++ {
			opt := courseModels.QuestionOption{
				QuestionID: question.ID,
				OptionText: "Option",
				IsCorrect:  j == 1,
				OrderIndex: j,
			}
			require.NoError(t, db.Create(&opt).Error)
			if opt.IsCorrect {
				f.correct[question.ID] = opt.ID
			} else if _, ok := f.wrong[question.ID]; !ok {
				f.wrong[question.ID] = opt.ID
			}
		}
	}

	return f
}

// enroll pushes a course_purchase event through the webhook processor
func (f *fixture) enroll(t *testing.T) *courseModels.Enrollment {
	t.Helper()

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-" + uuid.NewString(),
		EventType:       paymentModels.EventCoursePurchase,
		UserID:          f.user.ID,
		CourseID:        f.course.ID,
	})
	require.NoError(t, err)
	require.Equal(t, paymentModels.OutcomeApplied, out.Outcome)
	require.NotNil(t, out.Enrollment)
	return out.Enrollment
}

// buyVoucher pushes a voucher_purchase event through the webhook processor
func (f *fixture) buyVoucher(t *testing.T, enrollmentID uint) *courseModels.Voucher {
	t.Helper()

	out, err := f.lc.ProcessPaymentEvent(PaymentEventInput{
		ExternalEventID: "evt-" + uuid.NewString(),
		EventType:       paymentModels.EventVoucherPurchase,
		EnrollmentID:    enrollmentID,
	})
	require.NoError(t, err)
	require.Equal(t, paymentModels.OutcomeApplied, out.Outcome)
	require.NotNil(t, out.Voucher)
	return out.Voucher
}

// completeAllLessons marks every lesson complete for the enrollment
func (f *fixture) completeAllLessons(t *testing.T, enrollmentID uint) {
	t.Helper()
	for _, lesson := range f.lessons {
		_, err := f.lc.MarkLessonComplete(enrollmentID, lesson.ID)
		require.NoError(t, err)
	}
}

// answersFor builds an answer sheet with the given number of correct answers;
// the rest get a deliberately wrong option
func (f *fixture) answersFor(started *StartedAttempt, correctCount int) []AnswerInput {
	answers := make([]AnswerInput, 0, len(started.Questions))
	for i, q := range started.Questions {
		optID := f.wrong[q.QuestionID]
		if i < correctCount {
			optID = f.correct[q.QuestionID]
		}
		answers = append(answers, AnswerInput{QuestionID: q.QuestionID, SelectedOptionID: optID})
	}
	return answers
}
