package events

import "time"

const LeaveStatusChangedTopic = "hr.leave.status.v1"

// LeaveStatusChangedEvent is emitted on every approve/reject/cancel.
// RecipientID is the employee for approve/reject and the manager for cancel.
type LeaveStatusChangedEvent struct {
	EventType       string    `json:"event_type"`
	RequestID       string    `json:"request_id"`
	EmployeeID      string    `json:"employee_id"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	RecipientID     string    `json:"recipient_id"`
	OccurredAt      time.Time `json:"occurred_at"`
}
