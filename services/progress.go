package services

import (
	"errors"
	"time"

	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Progress is the aggregate recomputed from LessonProgress facts on every
// call. The completed count is never cached on the enrollment; only the
// lesson total is a snapshot, taken at enroll time.
type Progress struct {
	Completed    int  `json:"completed"`
	Total        int  `json:"total"`
	Percentage   int  `json:"percentage"`
	AllCompleted bool `json:"all_completed"`
}

// Eligibility is a pure read composing progress and attempt/voucher counts
type Eligibility struct {
	AllLessonsCompleted bool `json:"all_lessons_completed"`
	AttemptsUsed        int  `json:"attempts_used"`
	AttemptsAvailable   int  `json:"attempts_available"`
}

// MarkLessonComplete records the completion fact for one lesson. Re-marking
// an already completed lesson is a no-op, not an error; the stored
// completed_at keeps its original value. When the last lesson lands the
// enrollment transitions to completed, once.
func (lc *Lifecycle) MarkLessonComplete(enrollmentID, lessonID uint) (*Progress, error) {
	progress := &Progress{}
	err := lc.Db.Transaction(func(tx *gorm.DB) error {
		var enrollment courseModels.Enrollment
		if err := tx.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("enrollment not found")
			}
			return err
		}
		if !enrollmentIsLive(enrollment.Status) {
			return NewConflictError("enrollment is not active")
		}

		var lesson courseModels.Lesson
		if err := tx.Where("id = ? AND course_id = ? AND is_deleted = false AND is_published = true",
			lessonID, enrollment.CourseID).First(&lesson).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("lesson not found in this course")
			}
			return err
		}

		fact := courseModels.LessonProgress{
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
			CompletedAt:  time.Now(),
		}
		tx.SavePoint("mark")
		if err := tx.Create(&fact).Error; err != nil {
			if isUniqueViolation(err) {
				// already marked; keep the original fact
				tx.RollbackTo("mark")
			} else {
				return err
			}
		}

		p, err := computeProgress(tx, &enrollment)
		if err != nil {
			return err
		}
		*progress = *p

		if p.AllCompleted && enrollment.Status == courseModels.EnrollmentActive {
			now := time.Now()
			if err := tx.Model(&enrollment).Updates(map[string]interface{}{
				"status":       courseModels.EnrollmentCompleted,
				"completed_at": now,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// GetProgress returns the current aggregate without mutating anything
func (lc *Lifecycle) GetProgress(enrollmentID uint) (*Progress, error) {
	var enrollment courseModels.Enrollment
	if err := lc.Db.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("enrollment not found")
		}
		return nil, err
	}
	return computeProgress(lc.Db, &enrollment)
}

// GetEligibility composes lesson completion and attempt/voucher counts for
// the exam gate. Attempts available = base quota + purchased vouchers
// minus attempts used, floored at zero.
func (lc *Lifecycle) GetEligibility(enrollmentID uint) (*Eligibility, error) {
	var enrollment courseModels.Enrollment
	if err := lc.Db.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("enrollment not found")
		}
		return nil, err
	}

	progress, err := computeProgress(lc.Db, &enrollment)
	if err != nil {
		return nil, err
	}

	var attemptsUsed int64
	if err := lc.Db.Model(&courseModels.ExamAttempt{}).
		Where("enrollment_id = ?", enrollmentID).Count(&attemptsUsed).Error; err != nil {
		return nil, err
	}

	var voucherCount int64
	if err := lc.Db.Model(&courseModels.Voucher{}).
		Where("enrollment_id = ?", enrollmentID).Count(&voucherCount).Error; err != nil {
		return nil, err
	}

	available := BaseAttemptQuota + int(voucherCount) - int(attemptsUsed)
	if available < 0 {
		available = 0
	}

	return &Eligibility{
		AllLessonsCompleted: progress.AllCompleted,
		AttemptsUsed:        int(attemptsUsed),
		AttemptsAvailable:   available,
	}, nil
}

func computeProgress(tx *gorm.DB, enrollment *courseModels.Enrollment) (*Progress, error) {
	var completed int64
	if err := tx.Model(&courseModels.LessonProgress{}).
		Where("enrollment_id = ?", enrollment.ID).Count(&completed).Error; err != nil {
		return nil, err
	}

	total := enrollment.LessonTotal
	percentage := 0
	if total > 0 {
		percentage = int(completed) * 100 / total
	}

	return &Progress{
		Completed:    int(completed),
		Total:        total,
		Percentage:   percentage,
		AllCompleted: total > 0 && int(completed) >= total,
	}, nil
}
