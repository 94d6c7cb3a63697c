package application

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending     = "PENDING"
	StatusHODApproved = "HOD_APPROVED"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"
	StatusCancelled   = "CANCELLED"
)

const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

const (
	ActionApplied     = "Applied"
	ActionHODApproved = "HOD Approved"
	ActionApproved    = "Approved"
	ActionRejected    = "Rejected"
	ActionCancelled   = "Cancelled"
)

type LeaveApplication struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_applications_requester"`

	// DepartmentID is the requester's department at submission time; HOD
	// decisions are scoped against it.
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_applications_dept_status"`
	LeaveTypeID  uuid.UUID `gorm:"type:uuid;not null"`

	StartDate time.Time `gorm:"type:date;not null"`
	EndDate   time.Time `gorm:"type:date;not null"`

	// TotalDays is precomputed by the caller (working-day counting is not
	// this core's concern) and must be positive.
	TotalDays  float64 `gorm:"type:numeric(5,2);not null"`
	FiscalYear int     `gorm:"not null;index"`
	Reason     string  `gorm:"type:text;not null"`

	Status          string  `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_applications_dept_status"`
	RejectionReason *string `gorm:"type:text"`

	// Approval trail. Actor references are nullable: role-only approvers
	// have no first-class user record to attribute the write to.
	HODActedBy       *uuid.UUID `gorm:"type:uuid"`
	HODActedAt       *time.Time
	PrincipalActedBy *uuid.UUID `gorm:"type:uuid"`
	PrincipalActedAt *time.Time
	RejectedBy       *uuid.UUID `gorm:"type:uuid"`
	RejectedAt       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_leave_applications_deleted_at"`
}

// Terminal reports whether no further transition is defined on the status.
func Terminal(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// LeaveHistory is the append-only audit trail: one row per transition that
// mutated the application. ActorLabel is always set, so a transition by an
// approver without a user record is still audited.
type LeaveHistory struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Action        string     `gorm:"size:50;not null"`
	ActedBy       *uuid.UUID `gorm:"type:uuid"`
	ActorLabel    string     `gorm:"size:255;not null"`
	FromStatus    string     `gorm:"size:20;not null"`
	NewStatus     string     `gorm:"size:20;not null"`
	Comment       string     `gorm:"type:text"`
	CreatedAt     time.Time
}

// RequesterSnapshot is the slice of the users table the state machine reads
// at submission time.
type RequesterSnapshot struct {
	ID           uuid.UUID
	Email        string
	DepartmentID *uuid.UUID
	Active       bool
}
