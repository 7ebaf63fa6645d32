package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentCancelled = "cancelled"
	EnrollmentExpired   = "expired"
)

// Enrollment is a user's purchased right to access one course. Rows are only
// ever created by a validated payment event and never deleted; cancellation
// and expiry are status transitions. The partial unique index keeps at most
// one active enrollment per (user, course) even under concurrent webhooks.
type Enrollment struct {
	gorm.Model
	UserID          uint       `json:"user_id" gorm:"index;not null;uniqueIndex:uniq_active_enrollment,where:status = 'active'"`
	CourseID        uint       `json:"course_id" gorm:"index;not null;uniqueIndex:uniq_active_enrollment,where:status = 'active'"`
	Status          string     `json:"status" gorm:"not null;default:'active'"`
	EnrolledAt      time.Time  `json:"enrolled_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	AccessExpiresAt *time.Time `json:"access_expires_at"`
	LessonTotal     int        `json:"lesson_total" gorm:"not null;default:0"` // published lesson count, snapshot at enroll time
}

// LessonProgress is an immutable fact: this enrollment completed this lesson
// at this time. Re-marking is a no-op thanks to the unique pair.
type LessonProgress struct {
	gorm.Model
	EnrollmentID uint      `json:"enrollment_id" gorm:"not null;uniqueIndex:uniq_lesson_progress"`
	LessonID     uint      `json:"lesson_id" gorm:"not null;uniqueIndex:uniq_lesson_progress"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Voucher is a purchased right to one additional exam attempt beyond the base
// quota of two. Consumption happens at most once, in the same transaction
// that creates the attempt it funds.
type Voucher struct {
	gorm.Model
	EnrollmentID        uint      `json:"enrollment_id" gorm:"index;not null"`
	PurchasedAt         time.Time `json:"purchased_at"`
	ConsumedByAttemptID *uint     `json:"consumed_by_attempt_id" gorm:"uniqueIndex"`
}
