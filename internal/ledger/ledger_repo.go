package ledger

import (
	"context"
	"database/sql"
)

//go:generate mockgen -source=ledger_repo.go -destination=mock/ledger_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	// Reserve adds days to the consumed balance. Called when a request
	// becomes PENDING; approval keeps the reservation as-is.
	Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) error
	// Release subtracts days previously reserved. Returns ErrLedgerUnderflow
	// if the balance would go negative.
	Release(ctx context.Context, employeeID, leaveTypeID string, year, days int) error
	Consumed(ctx context.Context, employeeID, leaveTypeID string, year int) (int, error)
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

func (r *repository) Reserve(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
	// Atomic upsert keeps concurrent reservations for the same key correct
	// without a read-modify-write cycle.
	query := `
INSERT INTO leave_balances (employee_id, leave_type_id, year, consumed_days, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (employee_id, leave_type_id, year) DO UPDATE
SET consumed_days = leave_balances.consumed_days + EXCLUDED.consumed_days,
    updated_at = NOW()
`
	_, err := r.execer().ExecContext(ctx, query, employeeID, leaveTypeID, year, days)
	return err
}

func (r *repository) Release(ctx context.Context, employeeID, leaveTypeID string, year, days int) error {
	// The consumed_days >= days predicate makes underflow impossible at the
	// database level; zero rows affected means the invariant was broken.
	query := `
UPDATE leave_balances
SET consumed_days = consumed_days - $4,
    updated_at = NOW()
WHERE employee_id = $1
  AND leave_type_id = $2
  AND year = $3
  AND consumed_days >= $4
`
	res, err := r.execer().ExecContext(ctx, query, employeeID, leaveTypeID, year, days)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLedgerUnderflow
	}
	return nil
}

func (r *repository) Consumed(ctx context.Context, employeeID, leaveTypeID string, year int) (int, error) {
	query := `
SELECT COALESCE(
	(SELECT consumed_days FROM leave_balances
	 WHERE employee_id = $1 AND leave_type_id = $2 AND year = $3),
	0)
`
	var consumed int
	err := r.queryer().QueryRowContext(ctx, query, employeeID, leaveTypeID, year).Scan(&consumed)
	if err != nil {
		return 0, err
	}
	return consumed, nil
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
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
