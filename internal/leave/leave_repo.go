package leave

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	Update(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	// FindByIDForUpdate locks the row for the rest of the transaction, so
	// two concurrent transitions on the same request serialize and the
	// second one sees the first one's terminal status.
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	FindAll(ctx context.Context, employeeID, status string) ([]LeaveRequest, error)
	FindActiveByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	// LockEmployee takes a transaction-scoped advisory lock on the employee,
	// serializing validate-and-persist across concurrent submissions.
	LockEmployee(ctx context.Context, employeeID string) error
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const leaveColumns = `
	id, employee_id, leave_type_id, start_date, end_date, total_days,
	reason, attachment_ref, status, rejection_reason, decided_by, decided_at,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	query := `
INSERT INTO leave_requests (
	id, employee_id, leave_type_id, start_date, end_date, total_days,
	reason, attachment_ref, status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := r.execer().ExecContext(
		ctx, query,
		l.ID, l.EmployeeID, l.LeaveTypeID, l.StartDate, l.EndDate, l.TotalDays,
		l.Reason, l.AttachmentRef, l.Status, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

func (r *repository) Update(ctx context.Context, l *LeaveRequest) error {
	query := `
UPDATE leave_requests
SET status = $2,
	rejection_reason = $3,
	decided_by = $4,
	decided_at = $5,
	updated_at = $6
WHERE id = $1
`
	_, err := r.execer().ExecContext(
		ctx, query,
		l.ID, l.Status, l.RejectionReason, l.DecidedBy, l.DecidedAt, l.UpdatedAt,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	query := `SELECT` + leaveColumns + ` FROM leave_requests WHERE id = $1`
	return r.scanOne(r.queryer().QueryRowContext(ctx, query, id))
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	query := `SELECT` + leaveColumns + ` FROM leave_requests WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.queryer().QueryRowContext(ctx, query, id))
}

func (r *repository) FindAll(ctx context.Context, employeeID, status string) ([]LeaveRequest, error) {
	query := `SELECT` + leaveColumns + ` FROM leave_requests`
	var (
		conds []string
		args  []any
	)
	if employeeID != "" {
		args = append(args, employeeID)
		conds = append(conds, fmt.Sprintf("employee_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY start_date DESC"

	rows, err := r.queryer().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanList(rows)
}

func (r *repository) FindActiveByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	query := `SELECT` + leaveColumns + `
FROM leave_requests
WHERE employee_id = $1 AND status IN ($2, $3)
ORDER BY start_date ASC
`
	rows, err := r.queryer().QueryContext(ctx, query, employeeID, StatusPending, StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanList(rows)
}

func (r *repository) LockEmployee(ctx context.Context, employeeID string) error {
	_, err := r.execer().ExecContext(
		ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		employeeID,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeave(row rowScanner) (*LeaveRequest, error) {
	var (
		l               LeaveRequest
		attachmentRef   sql.NullString
		rejectionReason sql.NullString
		decidedBy       uuid.NullUUID
		decidedAt       sql.NullTime
	)
	err := row.Scan(
		&l.ID, &l.EmployeeID, &l.LeaveTypeID, &l.StartDate, &l.EndDate, &l.TotalDays,
		&l.Reason, &attachmentRef, &l.Status, &rejectionReason, &decidedBy, &decidedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if attachmentRef.Valid {
		l.AttachmentRef = &attachmentRef.String
	}
	if rejectionReason.Valid {
		l.RejectionReason = &rejectionReason.String
	}
	if decidedBy.Valid {
		l.DecidedBy = &decidedBy.UUID
	}
	if decidedAt.Valid {
		l.DecidedAt = &decidedAt.Time
	}
	return &l, nil
}

func (r *repository) scanOne(row *sql.Row) (*LeaveRequest, error) {
	return scanLeave(row)
}

func scanList(rows *sql.Rows) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return leaves, nil
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) queryer() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
