package leave

import (
	"go-leave/internal/employee"
	leaveerrors "go-leave/internal/leave/errors"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

// isAllowedStatusTransition is the transition table. PENDING is the only
// non-terminal state; APPROVED, REJECTED and CANCELLED accept nothing.
func isAllowedStatusTransition(currentStatus, targetStatus string) bool {
	if currentStatus != StatusPending {
		return false
	}
	switch targetStatus {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// authorizeTransition checks the actor's right to drive the transition.
// Approve/reject need a manager or admin who is not the requester; cancel is
// reserved for the requesting employee.
func authorizeTransition(l *LeaveRequest, targetStatus string, actor Actor) error {
	switch targetStatus {
	case StatusApproved, StatusRejected:
		if actor.Role != employee.RoleManager && actor.Role != employee.RoleAdmin {
			return leaveerrors.Unauthorized(employee.RoleManager)
		}
		if actor.EmployeeID == l.EmployeeID.String() {
			return leaveerrors.ErrOwnRequestDecision
		}
	case StatusCancelled:
		if actor.EmployeeID != l.EmployeeID.String() {
			return leaveerrors.ErrNotRequestOwner
		}
	}
	return nil
}
