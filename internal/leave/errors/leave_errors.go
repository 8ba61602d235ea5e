package leaveerrors

import (
	"fmt"
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrPastStartDate = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must not be in the past",
		http.StatusBadRequest,
	)
	ErrAttachmentRequired = apperror.New(
		apperror.CodeInvalidInput,
		"this leave type requires an attachment",
		http.StatusBadRequest,
	)
	ErrCrossYearSpan = apperror.New(
		apperror.CodeInvalidInput,
		"leave request must not span two calendar years",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found in directory",
		http.StatusNotFound,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already exists in overlapping period",
		http.StatusConflict,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"rejection_reason is required when rejecting",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"invalid status filter",
		http.StatusBadRequest,
	)
	ErrOwnRequestDecision = apperror.New(
		apperror.CodeForbidden,
		"you cannot approve or reject your own leave request",
		http.StatusForbidden,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requesting employee can cancel this leave request",
		http.StatusForbidden,
	)
)

// InsufficientAdvanceNotice carries the number of days the leave type
// demands between submission and start.
func InsufficientAdvanceNotice(requiredDays int) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidInput,
		fmt.Sprintf("leave must be requested at least %d days in advance", requiredDays),
		http.StatusBadRequest,
	)
}

// BalanceExceeded carries the remaining allowance for the year.
func BalanceExceeded(remainingDays int) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidInput,
		fmt.Sprintf("annual allowance exceeded, %d days remaining", remainingDays),
		http.StatusBadRequest,
	)
}

// OverlappingRequest carries the id of the conflicting request.
func OverlappingRequest(conflictingID string) *apperror.AppError {
	return apperror.New(
		apperror.CodeConflict,
		fmt.Sprintf("dates overlap with existing leave request %s", conflictingID),
		http.StatusConflict,
	)
}

// IllegalTransition names both endpoints of the refused transition.
func IllegalTransition(from, to string) *apperror.AppError {
	return apperror.New(
		apperror.CodeInvalidState,
		fmt.Sprintf("cannot transition leave request from %s to %s", from, to),
		http.StatusBadRequest,
	)
}

// Unauthorized names the role the transition requires.
func Unauthorized(requiredRole string) *apperror.AppError {
	return apperror.New(
		apperror.CodeForbidden,
		fmt.Sprintf("this action requires the %s role", requiredRole),
		http.StatusForbidden,
	)
}
