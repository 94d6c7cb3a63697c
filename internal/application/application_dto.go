package application

// Actor is the authenticated principal acting on an application, as handed
// over by the auth layer. UserID may belong to a role-only account.
type Actor struct {
	UserID string
	Email  string
	Role   string
}

type CreateApplicationRequest struct {
	LeaveTypeID string  `json:"leave_type_id" binding:"required,uuid"`
	StartDate   string  `json:"start_date" binding:"required"`
	EndDate     string  `json:"end_date" binding:"required"`
	Days        float64 `json:"days" binding:"required,gt=0"`
	Reason      string  `json:"reason" binding:"required"`
}

type DecisionRequest struct {
	Decision        string  `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	RejectionReason *string `json:"rejection_reason"`
}

type ApplicationResponse struct {
	ID              string  `json:"id"`
	RequesterID     string  `json:"requester_id"`
	DepartmentID    string  `json:"department_id"`
	LeaveTypeID     string  `json:"leave_type_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	TotalDays       float64 `json:"total_days"`
	FiscalYear      int     `json:"fiscal_year"`
	Reason          string  `json:"reason"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason,omitempty"`

	HODActedBy       *string `json:"hod_acted_by,omitempty"`
	HODActedAt       *string `json:"hod_acted_at,omitempty"`
	PrincipalActedBy *string `json:"principal_acted_by,omitempty"`
	PrincipalActedAt *string `json:"principal_acted_at,omitempty"`
	RejectedBy       *string `json:"rejected_by,omitempty"`
	RejectedAt       *string `json:"rejected_at,omitempty"`
}

type HistoryResponse struct {
	ID            string  `json:"id"`
	ApplicationID string  `json:"application_id"`
	Action        string  `json:"action"`
	ActedBy       *string `json:"acted_by,omitempty"`
	ActorLabel    string  `json:"actor_label"`
	FromStatus    string  `json:"from_status"`
	NewStatus     string  `json:"new_status"`
	Comment       string  `json:"comment,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
