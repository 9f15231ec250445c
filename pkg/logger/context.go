package logger

import (
	"context"

	"github.com/rs/zerolog"
)

type (
	ctxKey       struct{}
	requestIDKey struct{}
)

var nopLogger = zerolog.Nop()

// loggerFromContext prefers the entry attached to ctx. A nil *Logger falls
// back to a no-op entry.
func (l *Logger) loggerFromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return entry
		}
	}
	if l == nil || l.base == nil {
		return &nopLogger
	}
	return l.base
}

func (l *Logger) with(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	entry := build(l.loggerFromContext(ctx).With()).Logger()
	return context.WithValue(ctx, ctxKey{}, &entry)
}

// WithField returns a context whose entries carry key.
func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.with(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

// WithRequestID tags entries with the request id and keeps the raw value
// reachable through RequestIDFromContext.
func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.WithField(context.WithValue(ctx, requestIDKey{}, requestID), "request_id", requestID)
}

// RequestIDFromContext returns the id stored by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (l *Logger) WithEditorID(ctx context.Context, editorID string) context.Context {
	return l.WithField(ctx, "editor_id", editorID)
}

// WithSession tags entries with the manufacturing table session they belong to.
func (l *Logger) WithSession(ctx context.Context, sessionKey string) context.Context {
	return l.WithField(ctx, "session", sessionKey)
}
