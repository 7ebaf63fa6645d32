package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExamAttempt is one take of a course exam. The question set (including the
// correct option per question) is frozen into the row at creation and is the
// only thing grading ever reads. Score and Passed are written exactly once,
// when SubmittedAt flips from NULL; the partial unique index allows at most
// one open attempt per enrollment.
type ExamAttempt struct {
	gorm.Model
	EnrollmentID      uint           `json:"enrollment_id" gorm:"not null;uniqueIndex:uniq_attempt_number,priority:1;uniqueIndex:uniq_open_attempt,where:submitted_at IS NULL"`
	AttemptNumber     int            `json:"attempt_number" gorm:"not null;uniqueIndex:uniq_attempt_number,priority:2"`
	FrozenQuestionSet datatypes.JSON `json:"-" gorm:"not null"`
	StartedAt         time.Time      `json:"started_at"`
	SubmittedAt       *time.Time     `json:"submitted_at"`
	Score             *int           `json:"score"`  // 0-100, set by grading only
	Passed            *bool          `json:"passed"` // score >= 80
	VoucherID         *uint          `json:"voucher_id"` // set when attempt_number > 2
}

// ExamAnswer stores one submitted answer for audit. Immutable after grading.
type ExamAnswer struct {
	gorm.Model
	AttemptID        uint `json:"attempt_id" gorm:"not null;uniqueIndex:uniq_attempt_answer"`
	QuestionID       uint `json:"question_id" gorm:"not null;uniqueIndex:uniq_attempt_answer"`
	SelectedOptionID uint `json:"selected_option_id"`
}

// FrozenQuestion is the serialized shape stored in ExamAttempt.FrozenQuestionSet.
// CorrectOptionID and Explanation are captured so later question-bank edits
// cannot drift the grading of in-flight or historical attempts; both are
// stripped before the set is shown to the student.
type FrozenQuestion struct {
	QuestionID      uint           `json:"question_id"`
	Text            string         `json:"text"`
	Options         []FrozenOption `json:"options"`
	CorrectOptionID uint           `json:"correct_option_id"`
	Explanation     string         `json:"explanation"`
}

type FrozenOption struct {
	OptionID   uint   `json:"option_id"`
	OptionText string `json:"option_text"`
}
