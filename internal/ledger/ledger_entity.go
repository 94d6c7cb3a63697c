package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Balance is the authoritative remaining-days record for one user, leave
// type and financial year. The composite unique index guarantees at most one
// row per combination.
type Balance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balances_user_type_year"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balances_user_type_year"`
	FiscalYear  int       `gorm:"not null;uniqueIndex:idx_balances_user_type_year"`

	// Balance is remaining days; fractional values (half days) are allowed.
	Balance float64 `gorm:"type:numeric(5,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProfile is the slice of the users table the ledger needs for its
// allocation policy. Read directly from the users table so the ledger does
// not depend on the user module.
type UserProfile struct {
	ID     uuid.UUID
	Gender string
}

const fiscalYearStartMonth = time.April

// FiscalYear returns the financial year a date belongs to, keyed by the
// April-start allocation period: March 2025 is FY 2024, April 2025 is FY 2025.
func FiscalYear(t time.Time) int {
	if t.Month() < fiscalYearStartMonth {
		return t.Year() - 1
	}
	return t.Year()
}

// CurrentFiscalYear returns the financial year containing the present moment.
func CurrentFiscalYear() int {
	return FiscalYear(time.Now().UTC())
}
