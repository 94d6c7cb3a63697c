package ledger

type BalanceResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	LeaveTypeID string  `json:"leave_type_id"`
	FiscalYear  int     `json:"fiscal_year"`
	Balance     float64 `json:"balance"`
}

type AdminSetBalanceRequest struct {
	UserID      string  `json:"user_id" binding:"required,uuid"`
	LeaveTypeID string  `json:"leave_type_id" binding:"required,uuid"`
	FiscalYear  int     `json:"fiscal_year" binding:"required"`
	Balance     float64 `json:"balance" binding:"gte=0"`
}

// RenewalSummary reports what a renewal pass did. Bulk renewal is
// per-user independent, so the counts are the only completion signal; a
// partial run is repaired by re-running (idempotent).
type RenewalSummary struct {
	RenewedCount int `json:"renewed_count"`
	CreatedCount int `json:"created_count"`
	SkippedCount int `json:"skipped_count"`
	TotalUsers   int `json:"total_users"`
}
