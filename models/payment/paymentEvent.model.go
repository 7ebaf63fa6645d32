package payment

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Payment event types accepted from the gateway
const (
	EventCoursePurchase  = "course_purchase"
	EventVoucherPurchase = "voucher_purchase"
	EventRefund          = "refund"
)

// Processing outcomes
const (
	OutcomeApplied   = "applied"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// PaymentEventRecord is the dedupe ledger for at-least-once webhook delivery.
// The row is inserted before any side effect; the unique external_event_id is
// the idempotency anchor for the whole enrollment lifecycle.
type PaymentEventRecord struct {
	gorm.Model
	ExternalEventID string         `json:"external_event_id" gorm:"uniqueIndex;not null"`
	EventType       string         `json:"event_type"`
	Outcome         string         `json:"outcome"`
	Reason          string         `json:"reason"`
	ProcessedAt     time.Time      `json:"processed_at"`
	RawPayload      datatypes.JSON `json:"raw_payload"`
}
