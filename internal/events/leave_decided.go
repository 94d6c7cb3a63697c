package events

const (
	LeaveDecidedEventType = "leave.decided"
	LeaveDecisionsTopic   = "leave.decisions"
)

// LeaveDecided is published through the outbox when an application reaches a
// terminal status, for the notification layer to consume.
type LeaveDecided struct {
	ApplicationID   string  `json:"application_id"`
	RequesterID     string  `json:"requester_id"`
	LeaveTypeID     string  `json:"leave_type_id"`
	Status          string  `json:"status"`
	TotalDays       float64 `json:"total_days"`
	FiscalYear      int     `json:"fiscal_year"`
	ActorLabel      string  `json:"actor_label"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	DecidedAt       string  `json:"decided_at"`
}
