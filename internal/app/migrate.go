package app

import (
	"go-leave/internal/employee"
	"go-leave/internal/leave"
	"go-leave/internal/leavetype"
	"go-leave/internal/ledger"

	"gorm.io/gorm"
)

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&employee.Employee{},
		&leavetype.LeaveType{},
		&leave.LeaveRequest{},
		&ledger.LeaveBalanceEntry{},
	); err != nil {
		return err
	}

	if err := db.Exec(`
CREATE TABLE IF NOT EXISTS outbox_events (
	id UUID PRIMARY KEY,
	request_id TEXT,
	aggregate_type TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	topic TEXT NOT NULL,
	payload JSONB NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	retry_count INT NOT NULL DEFAULT 0,
	error_message TEXT,
	next_retry_at TIMESTAMPTZ,
	processed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`).Error; err != nil {
		return err
	}

	// Database-level backstop for the overlap invariant: active requests of
	// one employee must not share a day, even if a write bypasses the
	// advisory-lock path.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS btree_gist`).Error; err != nil {
		return err
	}
	return db.Exec(`
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = 'ex_leave_requests_active_overlap'
	) THEN
		ALTER TABLE leave_requests
		ADD CONSTRAINT ex_leave_requests_active_overlap
		EXCLUDE USING gist (
			employee_id WITH =,
			daterange(start_date::date, end_date::date, '[]') WITH &&
		)
		WHERE (status IN ('PENDING', 'APPROVED'));
	END IF;
END
$$`).Error
}
