package port

import "context"

// AuditLogger records successful mutations for later inspection. A failed
// audit write must never fail the business operation that triggered it;
// implementations report the error and callers decide whether to log it.
type AuditLogger interface {
	// Log appends one entry: which entity kind was touched, what happened
	// to it, and an arbitrary payload (usually the entity itself).
	Log(ctx context.Context, entity, action string, data any) error
}
