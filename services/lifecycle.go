package services

import (
	"gorm.io/gorm"
)

// Exam policy constants
const (
	BaseAttemptQuota = 2  // attempts included with every enrollment
	ExamPassScore    = 80 // minimum score (0-100) to pass
)

// Lifecycle owns the enrollment, progress, exam attempt and certification
// use cases and their transaction boundaries. Controllers and the webhook
// receiver are thin adapters over it. It keeps no state besides the DB
// handle, so any number of process instances can run concurrently: every
// cross-entity invariant is enforced by database constraints and conditional
// updates, never by in-process locks.
type Lifecycle struct {
	Db *gorm.DB
}

func NewLifecycle(db *gorm.DB) *Lifecycle {
	return &Lifecycle{Db: db}
}
