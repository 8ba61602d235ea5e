package leave

import (
	"time"

	"github.com/google/uuid"
)

// LeaveRequest is one employee's claim for a date range under a leave type.
// Rows are never deleted; the status column carries the lifecycle.
type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	TotalDays int       `gorm:"type:int;not null;default:1"`
	Reason    string    `gorm:"type:text"`

	// AttachmentRef is an opaque reference into the document store; this
	// service never dereferences it, only requires presence when the leave
	// type demands it.
	AttachmentRef *string `gorm:"type:text"`

	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_status"`
	RejectionReason *string    `gorm:"type:text"`
	DecidedBy       *uuid.UUID `gorm:"type:uuid"`
	DecidedAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
