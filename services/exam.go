package services

import (
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	courseModels "lms/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionView is a frozen question as shown to the student: no correct
// option, no explanation. Those only surface in post-grading feedback.
type QuestionView struct {
	QuestionID uint                        `json:"question_id"`
	Text       string                      `json:"text"`
	Options    []courseModels.FrozenOption `json:"options"`
}

// StartedAttempt is the result of StartAttempt
type StartedAttempt struct {
	AttemptID     uint           `json:"attempt_id"`
	AttemptNumber int            `json:"attempt_number"`
	StartedAt     time.Time      `json:"started_at"`
	VoucherID     *uint          `json:"voucher_id,omitempty"`
	Questions     []QuestionView `json:"questions"`
}

// AnswerInput is one submitted answer
type AnswerInput struct {
	QuestionID       uint `json:"question_id" validate:"required"`
	SelectedOptionID uint `json:"selected_option_id" validate:"required"`
}

// QuestionFeedback explains one graded question
type QuestionFeedback struct {
	QuestionID       uint   `json:"question_id"`
	SelectedOptionID uint   `json:"selected_option_id"`
	CorrectOptionID  uint   `json:"correct_option_id"`
	Correct          bool   `json:"correct"`
	Explanation      string `json:"explanation,omitempty"`
}

// ExamResult is the outcome of a submission. AlreadyGraded marks a repeat
// submission: the stored result is returned and nothing is re-graded.
type ExamResult struct {
	AttemptID     uint                      `json:"attempt_id"`
	AttemptNumber int                       `json:"attempt_number"`
	Score         int                       `json:"score"`
	Passed        bool                      `json:"passed"`
	AlreadyGraded bool                      `json:"already_graded"`
	Certificate   *courseModels.Certificate `json:"certificate,omitempty"`
	Feedback      []QuestionFeedback        `json:"feedback"`
}

// StartAttempt creates a new exam attempt for an enrollment. All gates run
// inside one transaction: lessons completed, no open attempt, and quota.
// Attempts beyond the two base ones need an unconsumed voucher, consumed
// atomically with the attempt it funds. Races between concurrent starts
// resolve at the partial unique index on open attempts, not at a
// check-then-act.
func (lc *Lifecycle) StartAttempt(enrollmentID uint) (*StartedAttempt, error) {
	started := &StartedAttempt{}
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

		progress, err := computeProgress(tx, &enrollment)
		if err != nil {
			return err
		}
		if !progress.AllCompleted {
			return NewConflictError("complete all lessons before starting the exam")
		}

		var open int64
		if err := tx.Model(&courseModels.ExamAttempt{}).
			Where("enrollment_id = ? AND submitted_at IS NULL", enrollmentID).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return NewConflictError("attempt already open")
		}

		var prior int64
		if err := tx.Model(&courseModels.ExamAttempt{}).
			Where("enrollment_id = ?", enrollmentID).Count(&prior).Error; err != nil {
			return err
		}
		attemptNumber := int(prior) + 1

		// Attempts beyond the base quota must be funded by an unconsumed voucher
		var voucher *courseModels.Voucher
		if attemptNumber > BaseAttemptQuota {
			var v courseModels.Voucher
			err := tx.Where("enrollment_id = ? AND consumed_by_attempt_id IS NULL", enrollmentID).
				Order("id asc").First(&v).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return NewConflictError("no attempts remaining, purchase a voucher")
				}
				return err
			}
			voucher = &v
		}

		var crs courseModels.Course
		if err := tx.Where("id = ?", enrollment.CourseID).First(&crs).Error; err != nil {
			return err
		}

		frozen, err := freezeQuestionSet(tx, &crs, enrollment.ID, attemptNumber)
		if err != nil {
			return err
		}
		frozenJSON, err := json.Marshal(frozen)
		if err != nil {
			return err
		}

		attempt := courseModels.ExamAttempt{
			EnrollmentID:      enrollmentID,
			AttemptNumber:     attemptNumber,
			FrozenQuestionSet: datatypes.JSON(frozenJSON),
			StartedAt:         time.Now(),
		}
		if err := tx.Create(&attempt).Error; err != nil {
			if isUniqueViolation(err) {
				// a concurrent start won the open-attempt or attempt-number slot
				return NewConflictError("attempt already open")
			}
			return err
		}

		if voucher != nil {
			// Conditional update so two racing starts can never share a voucher;
			// a miss rolls the whole attempt back
			res := tx.Model(&courseModels.Voucher{}).
				Where("id = ? AND consumed_by_attempt_id IS NULL", voucher.ID).
				Update("consumed_by_attempt_id", attempt.ID)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return NewConflictError("no attempts remaining, purchase a voucher")
			}
			if err := tx.Model(&attempt).Update("voucher_id", voucher.ID).Error; err != nil {
				return err
			}
			started.VoucherID = &voucher.ID
		}

		started.AttemptID = attempt.ID
		started.AttemptNumber = attemptNumber
		started.StartedAt = attempt.StartedAt
		started.Questions = sanitizeQuestionSet(frozen)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// SubmitAttempt grades an open attempt exactly once. The linearization point
// is the conditional flip of submitted_at from NULL; whoever loses that race
// gets the stored result back, regardless of what answers they sent.
func (lc *Lifecycle) SubmitAttempt(attemptID uint, answers []AnswerInput) (*ExamResult, error) {
	result := &ExamResult{}
	err := lc.Db.Transaction(func(tx *gorm.DB) error {
		var attempt courseModels.ExamAttempt
		if err := tx.Where("id = ?", attemptID).First(&attempt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("attempt not found")
			}
			return err
		}

		if attempt.SubmittedAt != nil {
			return storedResult(tx, &attempt, result)
		}

		now := time.Now()
		res := tx.Model(&courseModels.ExamAttempt{}).
			Where("id = ? AND submitted_at IS NULL", attemptID).
			Update("submitted_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the race against a concurrent submission
			if err := tx.Where("id = ?", attemptID).First(&attempt).Error; err != nil {
				return err
			}
			return storedResult(tx, &attempt, result)
		}

		var frozen []courseModels.FrozenQuestion
		if err := json.Unmarshal(attempt.FrozenQuestionSet, &frozen); err != nil {
			return err
		}

		// first answer per question wins; answers for unknown questions are dropped
		inSet := make(map[uint]bool, len(frozen))
		for _, q := range frozen {
			inSet[q.QuestionID] = true
		}
		selected := make(map[uint]uint, len(answers))
		for _, a := range answers {
			if !inSet[a.QuestionID] {
				continue
			}
			if _, dup := selected[a.QuestionID]; dup {
				continue
			}
			selected[a.QuestionID] = a.SelectedOptionID
		}

		correct := 0
		feedback := make([]QuestionFeedback, 0, len(frozen))
		for _, q := range frozen {
			chosen := selected[q.QuestionID] // zero value = unanswered = incorrect
			ok := chosen != 0 && chosen == q.CorrectOptionID
			if ok {
				correct++
			}
			feedback = append(feedback, QuestionFeedback{
				QuestionID:       q.QuestionID,
				SelectedOptionID: chosen,
				CorrectOptionID:  q.CorrectOptionID,
				Correct:          ok,
				Explanation:      q.Explanation,
			})
		}

		score := 0
		if len(frozen) > 0 {
			score = correct * 100 / len(frozen)
		}
		passed := score >= ExamPassScore

		for qid, optID := range selected {
			answer := courseModels.ExamAnswer{
				AttemptID:        attempt.ID,
				QuestionID:       qid,
				SelectedOptionID: optID,
			}
			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&attempt).Updates(map[string]interface{}{
			"score":  score,
			"passed": passed,
		}).Error; err != nil {
			return err
		}

		result.AttemptID = attempt.ID
		result.AttemptNumber = attempt.AttemptNumber
		result.Score = score
		result.Passed = passed
		result.Feedback = feedback

		if passed {
			cert, err := issueIfEligibleTx(tx, attempt.EnrollmentID)
			if err != nil {
				return err
			}
			result.Certificate = cert
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// storedResult rebuilds the result of an already graded attempt from the
// frozen set and the audited answers
func storedResult(tx *gorm.DB, attempt *courseModels.ExamAttempt, result *ExamResult) error {
	var frozen []courseModels.FrozenQuestion
	if err := json.Unmarshal(attempt.FrozenQuestionSet, &frozen); err != nil {
		return err
	}

	var stored []courseModels.ExamAnswer
	if err := tx.Where("attempt_id = ?", attempt.ID).Find(&stored).Error; err != nil {
		return err
	}
	selected := make(map[uint]uint, len(stored))
	for _, a := range stored {
		selected[a.QuestionID] = a.SelectedOptionID
	}

	feedback := make([]QuestionFeedback, 0, len(frozen))
	for _, q := range frozen {
		chosen := selected[q.QuestionID]
		feedback = append(feedback, QuestionFeedback{
			QuestionID:       q.QuestionID,
			SelectedOptionID: chosen,
			CorrectOptionID:  q.CorrectOptionID,
			Correct:          chosen != 0 && chosen == q.CorrectOptionID,
			Explanation:      q.Explanation,
		})
	}

	result.AttemptID = attempt.ID
	result.AttemptNumber = attempt.AttemptNumber
	if attempt.Score != nil {
		result.Score = *attempt.Score
	}
	if attempt.Passed != nil {
		result.Passed = *attempt.Passed
	}
	result.AlreadyGraded = true
	result.Feedback = feedback
	return nil
}

// freezeQuestionSet samples the course question bank deterministically for
// (enrollment, attemptNumber) and captures questions, options and correct
// answers into the shape stored on the attempt. Once frozen, bank edits are
// invisible to this attempt.
func freezeQuestionSet(tx *gorm.DB, crs *courseModels.Course, enrollmentID uint, attemptNumber int) ([]courseModels.FrozenQuestion, error) {
	var questions []courseModels.Question
	if err := tx.Where("course_id = ? AND is_deleted = false", crs.ID).
		Order("id asc").Find(&questions).Error; err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, NewConflictError("course has no question bank")
	}

	size := crs.ExamQuestionCount
	if size <= 0 || size > len(questions) {
		size = len(questions)
	}

	// deterministic sample keyed by (enrollment, attempt) for auditability
	rng := rand.New(rand.NewSource(int64(enrollmentID)*1_000_003 + int64(attemptNumber)))
	perm := rng.Perm(len(questions))

	frozen := make([]courseModels.FrozenQuestion, 0, size)
	for _, idx := range perm[:size] {
		q := questions[idx]

		var options []courseModels.QuestionOption
		if err := tx.Where("question_id = ? AND is_deleted = false", q.ID).
			Order("order_index asc, id asc").Find(&options).Error; err != nil {
			return nil, err
		}

		fq := courseModels.FrozenQuestion{
			QuestionID:  q.ID,
			Text:        q.Text,
			Explanation: q.Explanation,
			Options:     make([]courseModels.FrozenOption, 0, len(options)),
		}
		for _, opt := range options {
			fq.Options = append(fq.Options, courseModels.FrozenOption{
				OptionID:   opt.ID,
				OptionText: opt.OptionText,
			})
			if opt.IsCorrect {
				fq.CorrectOptionID = opt.ID
			}
		}
		if fq.CorrectOptionID == 0 {
			return nil, NewConflictError("question bank has a question without a correct option")
		}
		frozen = append(frozen, fq)
	}
	return frozen, nil
}

// sanitizeQuestionSet strips grading data before the set leaves the engine
func sanitizeQuestionSet(frozen []courseModels.FrozenQuestion) []QuestionView {
	views := make([]QuestionView, 0, len(frozen))
	for _, q := range frozen {
		views = append(views, QuestionView{
			QuestionID: q.QuestionID,
			Text:       q.Text,
			Options:    q.Options,
		})
	}
	return views
}
