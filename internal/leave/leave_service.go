package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go-leave/internal/employee"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/leavetype"
	leavetypeerrors "go-leave/internal/leavetype/errors"
	"go-leave/internal/ledger"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/clock"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actor Actor, req SubmitLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, actor Actor, id string) (LeaveResponse, error)
	Reject(ctx context.Context, actor Actor, id, rejectionReason string) (LeaveResponse, error)
	Cancel(ctx context.Context, actor Actor, id string) (LeaveResponse, error)
	GetByID(ctx context.Context, actor Actor, id string) (LeaveResponse, error)
	GetAll(ctx context.Context, actor Actor, employeeID, status string) ([]LeaveResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	balances  ledger.Repository
	types     leavetype.Service
	employees employee.Repository
	outbox    kafka.OutboxRepository
	clk       clock.Clock
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	balances ledger.Repository,
	types leavetype.Service,
	employees employee.Repository,
	outboxRepo kafka.OutboxRepository,
	clk clock.Clock,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if clk == nil {
		clk = clock.New()
	}
	return &service{
		db:        db,
		repo:      repo,
		balances:  balances,
		types:     types,
		employees: employees,
		outbox:    outboxRepo,
		clk:       clk,
		logger:    l,
	}
}

func (s *service) Submit(ctx context.Context, actor Actor, req SubmitLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("submit leave requested",
		zap.String("request_id", rid),
		zap.String("employee_id", actor.EmployeeID),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	employeeUUID, err := uuid.Parse(actor.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	// The directory owns employee records; refuse submissions for ids it
	// does not know about.
	if s.employees != nil {
		known, err := s.employees.Exists(ctx, actor.EmployeeID)
		if err != nil {
			s.logger.Error("submit leave directory check failed", zap.Error(err))
			return LeaveResponse{}, err
		}
		if !known {
			return LeaveResponse{}, leaveerrors.ErrEmployeeNotFound
		}
	}

	lt, err := s.types.Resolve(ctx, req.LeaveTypeID)
	if err != nil {
		if !errors.Is(err, leavetypeerrors.ErrLeaveTypeNotFound) &&
			!errors.Is(err, leavetypeerrors.ErrInvalidLeaveTypeID) {
			s.logger.Error("submit leave resolve type failed", zap.Error(err))
		}
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("submit leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	balancesTx := s.balances.WithTx(tx)

	// Serialize validate-and-persist per employee so two overlapping
	// submissions cannot both pass the checks against the same snapshot.
	if err := qtx.LockEmployee(ctx, actor.EmployeeID); err != nil {
		s.logger.Error("submit leave employee lock failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	active, err := qtx.FindActiveByEmployee(ctx, actor.EmployeeID)
	if err != nil {
		s.logger.Error("submit leave load active requests failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	consumed, err := balancesTx.Consumed(ctx, actor.EmployeeID, req.LeaveTypeID, startDate.Year())
	if err != nil {
		s.logger.Error("submit leave read balance failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	draft := Draft{
		EmployeeID:    actor.EmployeeID,
		LeaveType:     lt,
		StartDate:     startDate,
		EndDate:       endDate,
		Reason:        req.Reason,
		AttachmentRef: req.AttachmentRef,
	}
	if err := ValidateDraft(draft, ValidationContext{
		Today:          s.clk.Today(),
		ActiveRequests: active,
		ConsumedDays:   consumed,
	}); err != nil {
		s.logger.Warn("submit leave validation failed",
			zap.String("employee_id", actor.EmployeeID),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	totalDays := DaysInclusive(startDate, endDate)
	if err := balancesTx.Reserve(ctx, actor.EmployeeID, req.LeaveTypeID, startDate.Year(), totalDays); err != nil {
		s.logger.Error("submit leave reserve failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	now := s.clk.Now()
	l := &LeaveRequest{
		ID:            uuid.New(),
		EmployeeID:    employeeUUID,
		LeaveTypeID:   lt.ID,
		StartDate:     startDate,
		EndDate:       endDate,
		TotalDays:     totalDays,
		Reason:        req.Reason,
		AttachmentRef: req.AttachmentRef,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := qtx.Create(ctx, l); err != nil {
		if isOverlapConstraintViolation(err) {
			return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
		}
		s.logger.Error("submit leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if s.outbox != nil {
		if err := s.enqueueRequestedEvent(ctx, tx, l); err != nil {
			s.logger.Error("submit leave outbox persist failed", zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("submit leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("submit leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", actor.EmployeeID),
		zap.Int("total_days", totalDays),
	)

	return mapToResponse(*l), nil
}

func (s *service) Approve(ctx context.Context, actor Actor, id string) (LeaveResponse, error) {
	return s.transitionStatus(ctx, actor, id, StatusApproved, nil)
}

func (s *service) Reject(ctx context.Context, actor Actor, id, rejectionReason string) (LeaveResponse, error) {
	return s.transitionStatus(ctx, actor, id, StatusRejected, &rejectionReason)
}

func (s *service) Cancel(ctx context.Context, actor Actor, id string) (LeaveResponse, error) {
	return s.transitionStatus(ctx, actor, id, StatusCancelled, nil)
}

func (s *service) transitionStatus(ctx context.Context, actor Actor, id, targetStatus string, rejectionReason *string) (LeaveResponse, error) {
	s.logger.Debug("transition leave status requested",
		zap.String("leave_id", id),
		zap.String("actor_id", actor.EmployeeID),
		zap.String("target_status", targetStatus),
	)

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}
	actorUUID, err := uuid.Parse(actor.EmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("transition leave status begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	balancesTx := s.balances.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		s.logger.Error("transition leave status load failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if !isAllowedStatusTransition(l.Status, targetStatus) {
		s.logger.Warn("transition leave status invalid",
			zap.String("leave_id", id),
			zap.String("from_status", l.Status),
			zap.String("to_status", targetStatus),
		)
		return LeaveResponse{}, leaveerrors.IllegalTransition(l.Status, targetStatus)
	}

	if err := authorizeTransition(l, targetStatus, actor); err != nil {
		s.logger.Warn("transition leave status unauthorized",
			zap.String("leave_id", id),
			zap.String("actor_id", actor.EmployeeID),
			zap.String("actor_role", actor.Role),
			zap.String("to_status", targetStatus),
		)
		return LeaveResponse{}, err
	}

	now := s.clk.Now()
	l.Status = targetStatus
	l.UpdatedAt = now
	switch targetStatus {
	case StatusApproved:
		// Days stay reserved; approval only confirms the hold.
		l.DecidedBy = &actorUUID
		l.DecidedAt = &now
		l.RejectionReason = nil
	case StatusRejected:
		if rejectionReason == nil || *rejectionReason == "" {
			return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
		}
		l.DecidedBy = &actorUUID
		l.DecidedAt = &now
		l.RejectionReason = rejectionReason
		if err := s.releaseReservation(ctx, balancesTx, l); err != nil {
			return LeaveResponse{}, err
		}
	case StatusCancelled:
		l.DecidedBy = nil
		l.DecidedAt = nil
		l.RejectionReason = nil
		if err := s.releaseReservation(ctx, balancesTx, l); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := qtx.Update(ctx, l); err != nil {
		s.logger.Error("transition leave status persist failed",
			zap.String("leave_id", id),
			zap.String("target_status", targetStatus),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	if s.outbox != nil {
		if err := s.enqueueStatusChangedEvent(ctx, tx, l); err != nil {
			s.logger.Error("transition leave status outbox persist failed", zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("transition leave status commit failed",
			zap.String("leave_id", id),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}
	s.logger.Info("transition leave status success",
		zap.String("leave_id", id),
		zap.String("status", targetStatus),
	)
	return mapToResponse(*l), nil
}

// releaseReservation returns the request's days to the ledger. Underflow is
// a broken invariant, not a user mistake: log it and abort the transition.
func (s *service) releaseReservation(ctx context.Context, balancesTx ledger.Repository, l *LeaveRequest) error {
	err := balancesTx.Release(ctx, l.EmployeeID.String(), l.LeaveTypeID.String(), l.StartDate.Year(), l.TotalDays)
	if err != nil {
		if errors.Is(err, ledger.ErrLedgerUnderflow) {
			s.logger.Error("leave balance underflow detected",
				zap.String("leave_id", l.ID.String()),
				zap.String("employee_id", l.EmployeeID.String()),
				zap.String("leave_type_id", l.LeaveTypeID.String()),
				zap.Int("days", l.TotalDays),
			)
		}
		return err
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, actor Actor, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}

	// Plain employees only see their own requests.
	if actor.Role == employee.RoleEmployee && l.EmployeeID.String() != actor.EmployeeID {
		return LeaveResponse{}, apperror.ErrForbidden
	}

	return mapToResponse(*l), nil
}

func (s *service) GetAll(ctx context.Context, actor Actor, employeeID, status string) ([]LeaveResponse, error) {
	if status != "" && !isKnownStatus(status) {
		return nil, leaveerrors.ErrInvalidStatusFilter
	}

	if actor.Role == employee.RoleEmployee {
		employeeID = actor.EmployeeID
	}

	leaves, err := s.repo.FindAll(ctx, employeeID, status)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) enqueueRequestedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest) error {
	recipient := s.managerOf(ctx, l.EmployeeID.String())
	payload, err := json.Marshal(events.LeaveRequestedEvent{
		EventType:   "leave.requested",
		RequestID:   l.ID.String(),
		EmployeeID:  l.EmployeeID.String(),
		LeaveTypeID: l.LeaveTypeID.String(),
		StartDate:   l.StartDate.Format("2006-01-02"),
		EndDate:     l.EndDate.Format("2006-01-02"),
		TotalDays:   l.TotalDays,
		RecipientID: recipient,
		OccurredAt:  s.clk.Now(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     "leave.requested",
		Topic:         events.LeaveRequestedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) enqueueStatusChangedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest) error {
	// Approve/reject notify the employee; cancel notifies the manager.
	recipient := l.EmployeeID.String()
	if l.Status == StatusCancelled {
		recipient = s.managerOf(ctx, l.EmployeeID.String())
	}

	payload, err := json.Marshal(events.LeaveStatusChangedEvent{
		EventType:       "leave.status_changed",
		RequestID:       l.ID.String(),
		EmployeeID:      l.EmployeeID.String(),
		Status:          l.Status,
		RejectionReason: l.RejectionReason,
		RecipientID:     recipient,
		OccurredAt:      s.clk.Now(),
	})
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     "leave.status_changed",
		Topic:         events.LeaveStatusChangedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

// managerOf resolves the notification recipient for manager-directed events.
// A missing manager downgrades to an unaddressed event rather than failing
// the transaction.
func (s *service) managerOf(ctx context.Context, employeeID string) string {
	if s.employees == nil {
		return ""
	}
	e, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		s.logger.Warn("resolve manager failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return ""
	}
	if e.ManagerID == nil {
		return ""
	}
	return e.ManagerID.String()
}

func isKnownStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// isOverlapConstraintViolation recognizes the exclusion constraint guarding
// active overlapping ranges; it only fires if a write slipped past the
// advisory-lock discipline.
func isOverlapConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23P01" && pgErr.ConstraintName == "ex_leave_requests_active_overlap"
	}
	return false
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}
