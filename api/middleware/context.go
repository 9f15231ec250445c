package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

type contextKey string

const (
	ctxEditorID contextKey = "editor_id"
	ctxRole     contextKey = "editor_role"
)

// EditorIDFromContext returns the authenticated editor, or uuid.Nil.
func EditorIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxEditorID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.EditorRole {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.EditorRole); ok {
		return v
	}
	return ""
}

// WithEditor injects the editor identity into the context.
func WithEditor(ctx context.Context, editorID uuid.UUID, role enums.EditorRole) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxEditorID, editorID)
	return context.WithValue(ctx, ctxRole, role)
}
