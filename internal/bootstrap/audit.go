package bootstrap

import "context"

// AuditLog is an operational audit entry, distinct from the per-application
// leave history trail.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
