package leavetype

import (
	"time"

	"github.com/google/uuid"
)

// LeaveType is a named leave policy: eligibility limits for one category of
// leave. Read-only here; the admin console owns mutation.
type LeaveType struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name               string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Paid               bool      `gorm:"not null;default:true"`
	MaxDaysPerYear     int       `gorm:"type:int;not null;default:1"`
	AdvanceNoticeDays  int       `gorm:"type:int;not null;default:0"`
	RequiresAttachment bool      `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
