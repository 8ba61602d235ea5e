package ledger

import (
	"time"

	"github.com/google/uuid"
)

// LeaveBalanceEntry tracks days consumed per employee, leave type and
// calendar year. Days are reserved when a request goes PENDING and released
// when it leaves the active set via REJECTED or CANCELLED, so the balance
// check at submission already accounts for concurrently pending requests.
type LeaveBalanceEntry struct {
	EmployeeID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeaveTypeID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Year         int       `gorm:"primaryKey"`
	ConsumedDays int       `gorm:"type:int;not null;default:0"`
	UpdatedAt    time.Time
}

func (LeaveBalanceEntry) TableName() string {
	return "leave_balances"
}
