package course

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is the issued artifact for a passing enrollment. The unique
// enrollment_id is what makes issuance idempotent under concurrent grading;
// name snapshots keep later profile renames from rewriting issued paper.
type Certificate struct {
	gorm.Model
	EnrollmentID   uint      `json:"enrollment_id" gorm:"uniqueIndex;not null"`
	UserID         uint      `json:"user_id" gorm:"index;not null"`
	CourseID       uint      `json:"course_id" gorm:"index;not null"`
	VerificationID string    `json:"verification_id" gorm:"uniqueIndex;not null"`
	StudentName    string    `json:"student_name"`
	CourseName     string    `json:"course_name"`
	IssuedAt       time.Time `json:"issued_at"`
}
