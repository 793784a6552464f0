// Package staffcontext carries the authenticated staff member through a
// request. Authentication itself happens upstream; handlers trust the
// identity the practice gateway forwards.
package staffcontext

import (
	"context"
	"strings"
)

// StaffContextKey is the request context key for the acting staff member.
type StaffContextKey struct{}

// WithStaff stores the staff identifier in the context.
func WithStaff(ctx context.Context, staffID string) context.Context {
	return context.WithValue(ctx, StaffContextKey{}, staffID)
}

// StaffFromContext returns the staff identifier from context, if set.
func StaffFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	value := ctx.Value(StaffContextKey{})
	if typed, ok := value.(string); ok {
		trimmed := strings.TrimSpace(typed)
		if trimmed != "" {
			return trimmed, true
		}
	}

	raw := ctx.Value("staff_id")
	if typed, ok := raw.(string); ok {
		trimmed := strings.TrimSpace(typed)
		if trimmed != "" {
			return trimmed, true
		}
	}
	return "", false
}
