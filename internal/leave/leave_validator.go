package leave

import (
	"time"

	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/leavetype"
	leavetypeerrors "go-leave/internal/leavetype/errors"
)

// Draft is a proposed leave request before persistence. LeaveType is the
// resolved policy, nil when the id did not resolve.
type Draft struct {
	EmployeeID    string
	LeaveType     *leavetype.LeaveType
	StartDate     time.Time
	EndDate       time.Time
	Reason        string
	AttachmentRef *string
}

// ValidationContext carries everything the rules need so validation stays a
// pure function: no repository or clock reads happen in here.
type ValidationContext struct {
	Today time.Time
	// ActiveRequests are the employee's PENDING and APPROVED requests.
	ActiveRequests []LeaveRequest
	// ConsumedDays is the ledger balance for (employee, type, start year).
	ConsumedDays int
}

// ValidateDraft checks a draft in a fixed order and reports the first
// violated rule as a typed error.
func ValidateDraft(d Draft, vc ValidationContext) error {
	if d.LeaveType == nil {
		return leavetypeerrors.ErrLeaveTypeNotFound
	}
	if d.StartDate.After(d.EndDate) {
		return leaveerrors.ErrInvalidDateRange
	}
	if d.StartDate.Before(vc.Today) {
		return leaveerrors.ErrPastStartDate
	}
	notice := int(d.StartDate.Sub(vc.Today).Hours() / 24)
	if notice < d.LeaveType.AdvanceNoticeDays {
		return leaveerrors.InsufficientAdvanceNotice(d.LeaveType.AdvanceNoticeDays)
	}
	if d.LeaveType.RequiresAttachment && (d.AttachmentRef == nil || *d.AttachmentRef == "") {
		return leaveerrors.ErrAttachmentRequired
	}
	if d.StartDate.Year() != d.EndDate.Year() {
		return leaveerrors.ErrCrossYearSpan
	}

	days := DaysInclusive(d.StartDate, d.EndDate)
	if vc.ConsumedDays+days > d.LeaveType.MaxDaysPerYear {
		remaining := d.LeaveType.MaxDaysPerYear - vc.ConsumedDays
		if remaining < 0 {
			remaining = 0
		}
		return leaveerrors.BalanceExceeded(remaining)
	}

	for _, r := range vc.ActiveRequests {
		if rangesOverlap(d.StartDate, d.EndDate, r.StartDate, r.EndDate) {
			return leaveerrors.OverlappingRequest(r.ID.String())
		}
	}

	return nil
}

// DaysInclusive counts calendar days in [start, end], both ends included.
func DaysInclusive(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(aEnd.Before(bStart) || aStart.After(bEnd))
}
