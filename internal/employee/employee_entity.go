package employee

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleAdmin    = "ADMIN"
)

// Employee is the directory record this service reads; the employee module
// that owns and mutates it lives elsewhere.
type Employee struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	FullName  string     `gorm:"type:varchar(150);not null"`
	Email     string     `gorm:"uniqueIndex"`
	Role      string     `gorm:"type:varchar(20);not null;default:'EMPLOYEE'"`
	ManagerID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
