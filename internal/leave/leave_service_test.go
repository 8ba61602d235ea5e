package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-leave/internal/employee"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/leavetype"
	leavetypeerrors "go-leave/internal/leavetype/errors"
	"go-leave/internal/ledger"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/clock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveRepository struct {
	withTxFn               func(tx *sql.Tx) leave.Repository
	createFn               func(ctx context.Context, l *leave.LeaveRequest) error
	updateFn               func(ctx context.Context, l *leave.LeaveRequest) error
	findByIDFn             func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	findByIDForUpdateFn    func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	findAllFn              func(ctx context.Context, employeeID, status string) ([]leave.LeaveRequest, error)
	findActiveByEmployeeFn func(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error)
	lockEmployeeFn         func(ctx context.Context, employeeID string) error
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) Update(ctx context.Context, l *leave.LeaveRequest) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLeaveRepository) FindByIDForUpdate(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLeaveRepository) FindAll(ctx context.Context, employeeID, status string) ([]leave.LeaveRequest, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, employeeID, status)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindActiveByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	if f.findActiveByEmployeeFn != nil {
		return f.findActiveByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) LockEmployee(ctx context.Context, employeeID string) error {
	if f.lockEmployeeFn != nil {
		return f.lockEmployeeFn(ctx, employeeID)
	}
	return nil
}

type fakeLedgerRepository struct {
	reserveFn  func(ctx context.Context, employeeID, leaveTypeID string, year, days int) error
	releaseFn  func(ctx context.Context, employeeID, leaveTypeID string, year, days int) error
	consumedFn func(ctx context.Context, employeeID, leaveTypeID string, year int) (int, error)
}

func (f *fakeLedgerRepository) WithTx(tx *sql.Tx) ledger.Repository {
	return f
}

func (f *fakeLedgerRepository) Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
	if f.reserveFn != nil {
		return f.reserveFn(ctx, employeeID, leaveTypeID, year, days)
	}
	return nil
}

func (f *fakeLedgerRepository) Release(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, employeeID, leaveTypeID, year, days)
	}
	return nil
}

func (f *fakeLedgerRepository) Consumed(ctx context.Context, employeeID, leaveTypeID string, year int) (int, error) {
	if f.consumedFn != nil {
		return f.consumedFn(ctx, employeeID, leaveTypeID, year)
	}
	return 0, nil
}

type fakeLeaveTypeService struct {
	resolveFn func(ctx context.Context, id string) (*leavetype.LeaveType, error)
	getAllFn  func(ctx context.Context) ([]leavetype.LeaveTypeResponse, error)
}

func (f *fakeLeaveTypeService) Resolve(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, id)
	}
	return nil, leavetypeerrors.ErrLeaveTypeNotFound
}

func (f *fakeLeaveTypeService) GetAll(ctx context.Context) ([]leavetype.LeaveTypeResponse, error) {
	if f.getAllFn != nil {
		return f.getAllFn(ctx)
	}
	return nil, nil
}

type fakeEmployeeRepository struct {
	findByIDFn func(ctx context.Context, id string) (*employee.Employee, error)
	existsFn   func(ctx context.Context, id string) (bool, error)
}

func (f *fakeEmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, errors.New("employee not found")
}

func (f *fakeEmployeeRepository) Exists(ctx context.Context, id string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, id)
	}
	return true, nil
}

type fakeOutboxRepository struct {
	createFn func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository {
	return f
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

// today used by every scenario; the fixed clock keeps date math deterministic.
var testToday = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type leaveServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	service   leave.Service
	repo      *fakeLeaveRepository
	balances  *fakeLedgerRepository
	types     *fakeLeaveTypeService
	employees *fakeEmployeeRepository
	outbox    *fakeOutboxRepository
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	balances := &fakeLedgerRepository{}
	types := &fakeLeaveTypeService{}
	employees := &fakeEmployeeRepository{}
	outbox := &fakeOutboxRepository{}

	svc := leave.NewService(db, repo, balances, types, employees, outbox, clock.Fixed(testToday))

	return &leaveServiceDeps{
		db:        db,
		sqlMock:   sqlMock,
		service:   svc,
		repo:      repo,
		balances:  balances,
		types:     types,
		employees: employees,
		outbox:    outbox,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func resolvableType(lt *leavetype.LeaveType) func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	return func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
		if id != lt.ID.String() {
			return nil, leavetypeerrors.ErrLeaveTypeNotFound
		}
		return lt, nil
	}
}

func TestLeaveService_Submit(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()
	actor := leave.Actor{EmployeeID: employeeID, Role: employee.RoleEmployee}
	lt := annualType()

	t.Run("success reserves days and queues event", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.types.resolveFn = resolvableType(lt)

		var locked, reserved, created, queued bool
		deps.repo.lockEmployeeFn = func(ctx context.Context, eid string) error {
			assert.Equal(t, employeeID, eid)
			locked = true
			return nil
		}
		deps.balances.reserveFn = func(ctx context.Context, eid, ltid string, year, days int) error {
			assert.Equal(t, employeeID, eid)
			assert.Equal(t, lt.ID.String(), ltid)
			assert.Equal(t, 2024, year)
			assert.Equal(t, 3, days)
			reserved = true
			return nil
		}
		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			assert.Equal(t, employeeID, l.EmployeeID.String())
			assert.Equal(t, leave.StatusPending, l.Status)
			assert.Equal(t, 3, l.TotalDays)
			created = true
			return nil
		}
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			assert.Equal(t, "leave.requested", event.EventType)
			assert.Equal(t, "leave_request", event.AggregateType)
			assert.Equal(t, kafka.OutboxStatusPending, event.Status)
			queued = true
			return nil
		}

		resp, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{
			LeaveTypeID: lt.ID.String(),
			StartDate:   "2024-06-10",
			EndDate:     "2024-06-12",
			Reason:      "Family trip",
		})

		assert.NoError(t, err)
		assert.True(t, locked)
		assert.True(t, reserved)
		assert.True(t, created)
		assert.True(t, queued)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, 3, resp.TotalDays)
		assert.Equal(t, "2024-06-10", resp.StartDate)
		assert.Equal(t, "2024-06-12", resp.EndDate)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid date format", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{
			LeaveTypeID: lt.ID.String(),
			StartDate:   "10-06-2024",
			EndDate:     "2024-06-12",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})

	t.Run("negative unknown leave type skips tx", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.types.resolveFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return nil, leavetypeerrors.ErrLeaveTypeNotFound
		}

		_, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{
			LeaveTypeID: uuid.New().String(),
			StartDate:   "2024-06-10",
			EndDate:     "2024-06-12",
		})

		assert.ErrorIs(t, err, leavetypeerrors.ErrLeaveTypeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative validation failure rolls back without reserving", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.types.resolveFn = resolvableType(lt)
		deps.balances.reserveFn = func(ctx context.Context, eid, ltid string, year, days int) error {
			t.Fatal("reserve must not run for an invalid draft")
			return nil
		}

		_, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{
			LeaveTypeID: lt.ID.String(),
			StartDate:   "2024-05-20",
			EndDate:     "2024-05-21",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrPastStartDate)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlap against active request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.types.resolveFn = resolvableType(lt)
		conflicting := leave.LeaveRequest{
			ID:        uuid.New(),
			StartDate: time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
			Status:    leave.StatusApproved,
		}
		deps.repo.findActiveByEmployeeFn = func(ctx context.Context, eid string) ([]leave.LeaveRequest, error) {
			return []leave.LeaveRequest{conflicting}, nil
		}

		_, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{
			LeaveTypeID: lt.ID.String(),
			StartDate:   "2024-06-10",
			EndDate:     "2024-06-12",
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), conflicting.ID.String())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative balance exceeded uses ledger reading", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.types.resolveFn = resolvableType(lt)
		deps.balances.consumedFn = func(ctx context.Context, eid, ltid string, year int) (int, error) {
			assert.Equal(t, 2024, year)
			return 19, nil
		}

		_, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{
			LeaveTypeID: lt.ID.String(),
			StartDate:   "2024-06-10",
			EndDate:     "2024-06-12",
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "1 days remaining")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative persist failure rolls back", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.types.resolveFn = resolvableType(lt)
		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			return errors.New("insert failed")
		}

		_, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{
			LeaveTypeID: lt.ID.String(),
			StartDate:   "2024-06-10",
			EndDate:     "2024-06-12",
		})

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative unknown employee in directory", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.employees.existsFn = func(ctx context.Context, id string) (bool, error) {
			assert.Equal(t, employeeID, id)
			return false, nil
		}
		deps.types.resolveFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			t.Fatal("leave type must not be resolved for an unknown employee")
			return nil, nil
		}

		_, err := deps.service.Submit(ctx, actor, leave.SubmitLeaveRequest{
			LeaveTypeID: lt.ID.String(),
			StartDate:   "2024-06-10",
			EndDate:     "2024-06-12",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrEmployeeNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid actor id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Submit(ctx, leave.Actor{EmployeeID: "not-a-uuid"}, leave.SubmitLeaveRequest{
			LeaveTypeID: lt.ID.String(),
			StartDate:   "2024-06-10",
			EndDate:     "2024-06-12",
		})

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidActorID)
	})
}

func pendingRequest(employeeID uuid.UUID, lt *leavetype.LeaveType) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:          uuid.New(),
		EmployeeID:  employeeID,
		LeaveTypeID: lt.ID,
		StartDate:   time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		TotalDays:   3,
		Status:      leave.StatusPending,
		CreatedAt:   testToday,
		UpdatedAt:   testToday,
	}
}

func TestLeaveService_Approve(t *testing.T) {
	ctx := context.Background()
	requesterID := uuid.New()
	managerID := uuid.New().String()
	manager := leave.Actor{EmployeeID: managerID, Role: employee.RoleManager}
	lt := annualType()

	t.Run("success keeps reservation", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			assert.Equal(t, l.ID.String(), id)
			return l, nil
		}
		deps.balances.releaseFn = func(ctx context.Context, eid, ltid string, year, days int) error {
			t.Fatal("approve must not release the reservation")
			return nil
		}
		var updated bool
		deps.repo.updateFn = func(ctx context.Context, got *leave.LeaveRequest) error {
			assert.Equal(t, leave.StatusApproved, got.Status)
			assert.NotNil(t, got.DecidedBy)
			assert.Equal(t, managerID, got.DecidedBy.String())
			assert.NotNil(t, got.DecidedAt)
			updated = true
			return nil
		}
		var queued bool
		deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			assert.Equal(t, "leave.status_changed", event.EventType)
			queued = true
			return nil
		}

		resp, err := deps.service.Approve(ctx, manager, l.ID.String())

		assert.NoError(t, err)
		assert.True(t, updated)
		assert.True(t, queued)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.NotNil(t, resp.DecidedBy)
		assert.Equal(t, managerID, *resp.DecidedBy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative employee role cannot approve", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		peer := leave.Actor{EmployeeID: uuid.New().String(), Role: employee.RoleEmployee}
		_, err := deps.service.Approve(ctx, peer, l.ID.String())

		assert.Error(t, err)
		var appErr *apperror.AppError
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperror.CodeForbidden, appErr.Code)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative manager cannot approve own request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		selfManagerID := uuid.New()
		l := pendingRequest(selfManagerID, lt)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		self := leave.Actor{EmployeeID: selfManagerID.String(), Role: employee.RoleManager}
		_, err := deps.service.Approve(ctx, self, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrOwnRequestDecision)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already approved", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingRequest(requesterID, lt)
		l.Status = leave.StatusApproved
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.Approve(ctx, manager, l.ID.String())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "APPROVED to APPROVED")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return nil, sql.ErrNoRows
		}

		_, err := deps.service.Approve(ctx, manager, uuid.New().String())

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative invalid leave id", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Approve(ctx, manager, "nope")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidLeaveID)
	})
}

func TestLeaveService_Reject(t *testing.T) {
	ctx := context.Background()
	requesterID := uuid.New()
	manager := leave.Actor{EmployeeID: uuid.New().String(), Role: employee.RoleManager}
	lt := annualType()

	t.Run("success releases reserved days", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		var released bool
		deps.balances.releaseFn = func(ctx context.Context, eid, ltid string, year, days int) error {
			assert.Equal(t, requesterID.String(), eid)
			assert.Equal(t, lt.ID.String(), ltid)
			assert.Equal(t, 2024, year)
			assert.Equal(t, 3, days)
			released = true
			return nil
		}
		deps.repo.updateFn = func(ctx context.Context, got *leave.LeaveRequest) error {
			assert.Equal(t, leave.StatusRejected, got.Status)
			assert.NotNil(t, got.RejectionReason)
			assert.Equal(t, "coverage gap", *got.RejectionReason)
			return nil
		}

		resp, err := deps.service.Reject(ctx, manager, l.ID.String(), "coverage gap")

		assert.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.NotNil(t, resp.RejectionReason)
		assert.Equal(t, "coverage gap", *resp.RejectionReason)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative empty rejection reason", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.Reject(ctx, manager, l.ID.String(), "")

		assert.ErrorIs(t, err, leaveerrors.ErrRejectionReasonRequired)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative ledger underflow aborts transition", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.balances.releaseFn = func(ctx context.Context, eid, ltid string, year, days int) error {
			return ledger.ErrLedgerUnderflow
		}
		deps.repo.updateFn = func(ctx context.Context, got *leave.LeaveRequest) error {
			t.Fatal("update must not run after a failed release")
			return nil
		}

		_, err := deps.service.Reject(ctx, manager, l.ID.String(), "coverage gap")

		assert.ErrorIs(t, err, ledger.ErrLedgerUnderflow)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()
	requesterID := uuid.New()
	owner := leave.Actor{EmployeeID: requesterID.String(), Role: employee.RoleEmployee}
	lt := annualType()

	t.Run("success by owner releases reserved days", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		var released bool
		deps.balances.releaseFn = func(ctx context.Context, eid, ltid string, year, days int) error {
			assert.Equal(t, 3, days)
			released = true
			return nil
		}
		deps.repo.updateFn = func(ctx context.Context, got *leave.LeaveRequest) error {
			assert.Equal(t, leave.StatusCancelled, got.Status)
			assert.Nil(t, got.DecidedBy)
			assert.Nil(t, got.DecidedAt)
			return nil
		}

		resp, err := deps.service.Cancel(ctx, owner, l.ID.String())

		assert.NoError(t, err)
		assert.True(t, released)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		assert.Nil(t, resp.DecidedBy)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative manager cannot cancel another's request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		manager := leave.Actor{EmployeeID: uuid.New().String(), Role: employee.RoleManager}
		_, err := deps.service.Cancel(ctx, manager, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative cancel after approval is refused", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		l := pendingRequest(requesterID, lt)
		l.Status = leave.StatusApproved
		deps.repo.findByIDForUpdateFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, owner, l.ID.String())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "APPROVED to CANCELLED")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_GetByID(t *testing.T) {
	ctx := context.Background()
	requesterID := uuid.New()
	lt := annualType()

	t.Run("success owner reads own request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		owner := leave.Actor{EmployeeID: requesterID.String(), Role: employee.RoleEmployee}
		resp, err := deps.service.GetByID(ctx, owner, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, l.ID.String(), resp.ID)
	})

	t.Run("negative employee cannot read another's request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		stranger := leave.Actor{EmployeeID: uuid.New().String(), Role: employee.RoleEmployee}
		_, err := deps.service.GetByID(ctx, stranger, l.ID.String())

		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("manager reads any request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingRequest(requesterID, lt)
		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		manager := leave.Actor{EmployeeID: uuid.New().String(), Role: employee.RoleManager}
		resp, err := deps.service.GetByID(ctx, manager, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, l.ID.String(), resp.ID)
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*leave.LeaveRequest, error) {
			return nil, sql.ErrNoRows
		}

		manager := leave.Actor{EmployeeID: uuid.New().String(), Role: employee.RoleManager}
		_, err := deps.service.GetByID(ctx, manager, uuid.New().String())

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})
}

func TestLeaveService_GetAll(t *testing.T) {
	ctx := context.Background()
	lt := annualType()

	t.Run("employee filter forced to own requests", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		actorID := uuid.New().String()
		deps.repo.findAllFn = func(ctx context.Context, employeeID, status string) ([]leave.LeaveRequest, error) {
			assert.Equal(t, actorID, employeeID)
			return nil, nil
		}

		emp := leave.Actor{EmployeeID: actorID, Role: employee.RoleEmployee}
		_, err := deps.service.GetAll(ctx, emp, uuid.New().String(), "")

		assert.NoError(t, err)
	})

	t.Run("manager filter passes through", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		targetID := uuid.New().String()
		l := pendingRequest(uuid.MustParse(targetID), lt)
		deps.repo.findAllFn = func(ctx context.Context, employeeID, status string) ([]leave.LeaveRequest, error) {
			assert.Equal(t, targetID, employeeID)
			assert.Equal(t, leave.StatusPending, status)
			return []leave.LeaveRequest{*l}, nil
		}

		manager := leave.Actor{EmployeeID: uuid.New().String(), Role: employee.RoleManager}
		resp, err := deps.service.GetAll(ctx, manager, targetID, leave.StatusPending)

		assert.NoError(t, err)
		assert.Len(t, resp, 1)
		assert.Equal(t, targetID, resp[0].EmployeeID)
	})

	t.Run("negative unknown status filter", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		manager := leave.Actor{EmployeeID: uuid.New().String(), Role: employee.RoleManager}
		_, err := deps.service.GetAll(ctx, manager, "", "SLEEPING")

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusFilter)
	})
}
