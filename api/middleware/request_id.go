package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

const (
	requestIDHeader = "X-Request-Id"
	traceHeader     = "X-Cloud-Trace-Context"
)

// RequestID keeps a caller supplied uuid request id or mints one, echoes it in
// the response and tags the request logger with it. A Cloud trace id is
// logged as "trace" when the load balancer forwards one.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if _, err := uuid.Parse(reqID); err != nil {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
				if trace := traceID(r.Header.Get(traceHeader)); trace != "" {
					ctx = logg.WithField(ctx, "trace", trace)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// traceID extracts TRACE_ID from "TRACE_ID/SPAN_ID;o=OPTIONS".
func traceID(header string) string {
	header = strings.TrimSpace(header)
	if i := strings.IndexByte(header, '/'); i >= 0 {
		header = header[:i]
	}
	return header
}
