package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/youssefhamdan/tijara-backend/pkg/enums"
)

type contextKey string

const (
	ctxSubjectID contextKey = "subject_id"
	ctxRole      contextKey = "actor_role"
)

// SubjectIDFromContext returns the authenticated principal's id, uuid.Nil when
// the request is anonymous.
func SubjectIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxSubjectID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// WithSubject injects the principal into the context; used by tests.
func WithSubject(ctx context.Context, subjectID uuid.UUID, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSubjectID, subjectID)
	return context.WithValue(ctx, ctxRole, role)
}
