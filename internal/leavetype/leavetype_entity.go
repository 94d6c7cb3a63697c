package leavetype

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FixedAllocationDays is the policy-locked annual allocation for fixed types
// (Casual Leave in the seed catalog).
const FixedAllocationDays = 12.0

type LeaveType struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"size:100;not null;uniqueIndex"`

	// DefaultDays seeds new balance rows. For fixed-allocation types it is
	// always FixedAllocationDays and cannot be edited.
	DefaultDays     float64 `gorm:"type:numeric(5,2);not null;default:0"`
	FixedAllocation bool    `gorm:"not null;default:false"`

	// RestrictedGender limits who may hold a balance row of this type.
	// Empty means unrestricted.
	RestrictedGender string `gorm:"size:20;not null;default:''"`

	Description string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Restricted reports whether the type is gender-restricted.
func (t LeaveType) Restricted() bool {
	return t.RestrictedGender != ""
}

// AllocableTo reports whether a user with the given recorded gender may hold
// a balance row of this type.
func (t LeaveType) AllocableTo(gender string) bool {
	return t.RestrictedGender == "" || t.RestrictedGender == gender
}
