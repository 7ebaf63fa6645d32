package services

import (
	"errors"
	"time"

	"lms/models"
	courseModels "lms/models/course"
	"lms/utils"

	"gorm.io/gorm"
)

// IssueIfEligible issues the certificate for a passing enrollment, or returns
// the one that already exists. Safe to call concurrently and repeatedly; the
// unique enrollment_id constraint guarantees at most one row ever persists.
func (lc *Lifecycle) IssueIfEligible(enrollmentID uint) (*courseModels.Certificate, error) {
	var cert *courseModels.Certificate
	err := lc.Db.Transaction(func(tx *gorm.DB) error {
		c, err := issueIfEligibleTx(tx, enrollmentID)
		if err != nil {
			return err
		}
		cert = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

func issueIfEligibleTx(tx *gorm.DB, enrollmentID uint) (*courseModels.Certificate, error) {
	var existing courseModels.Certificate
	err := tx.Where("enrollment_id = ?", enrollmentID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var enrollment courseModels.Enrollment
	if err := tx.Where("id = ?", enrollmentID).First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("enrollment not found")
		}
		return nil, err
	}

	// issued if and only if some attempt passed
	var passed int64
	if err := tx.Model(&courseModels.ExamAttempt{}).
		Where("enrollment_id = ? AND passed = true", enrollmentID).
		Count(&passed).Error; err != nil {
		return nil, err
	}
	if passed == 0 {
		return nil, NewConflictError("no passing exam attempt for this enrollment")
	}

	// snapshots: later renames must not rewrite issued certificates
	var user models.User
	if err := tx.Where("id = ?", enrollment.UserID).First(&user).Error; err != nil {
		return nil, err
	}
	var crs courseModels.Course
	if err := tx.Where("id = ?", enrollment.CourseID).First(&crs).Error; err != nil {
		return nil, err
	}

	// retry on the astronomically unlikely verification id collision
	for i := 0; i < 5; i++ {
		cert := courseModels.Certificate{
			EnrollmentID:   enrollmentID,
			UserID:         enrollment.UserID,
			CourseID:       enrollment.CourseID,
			VerificationID: utils.GenerateVerificationID(),
			StudentName:    user.Name,
			CourseName:     crs.Title,
			IssuedAt:       time.Now(),
		}
		tx.SavePoint("issue")
		err := tx.Create(&cert).Error
		if err == nil {
			return &cert, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		tx.RollbackTo("issue")

		// either a concurrent issuance won the enrollment_id slot...
		var winner courseModels.Certificate
		if ferr := tx.Where("enrollment_id = ?", enrollmentID).First(&winner).Error; ferr == nil {
			return &winner, nil
		}
		// ...or the verification id collided; generate a fresh one
	}
	return nil, errors.New("could not generate a unique verification id")
}

// FindCertificateByVerificationID is the public verification lookup
func (lc *Lifecycle) FindCertificateByVerificationID(verificationID string) (*courseModels.Certificate, error) {
	var cert courseModels.Certificate
	if err := lc.Db.Where("verification_id = ?", verificationID).First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("certificate not found")
		}
		return nil, err
	}
	return &cert, nil
}
