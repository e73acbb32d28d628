package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActivityActionLockDevice   = "Lock Device"
	ActivityActionUnlockDevice = "Unlock Device"
	ActivityActionLoanCreated  = "Loan Created"
	ActivityActionPayment      = "Payment Recorded"
	ActivityActionReminder     = "Payment Reminder"
)

// ActivityEntry is an audit trail record of an operator or system action.
type ActivityEntry struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	Action      string    `json:"action" db:"action"`
	Description string    `json:"description" db:"description"`
	PerformedBy string    `json:"performed_by" db:"performed_by"`
	Status      string    `json:"status" db:"status"`
}
