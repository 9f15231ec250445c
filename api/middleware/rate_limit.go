package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shiplist-backend/pkg/errors"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
)

// RateLimitStore counts requests per key within a window.
type RateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// RateLimitPolicy bounds how many requests an IP or editor may send per window.
// A zero limit disables that dimension.
type RateLimitPolicy struct {
	Name        string
	Window      time.Duration
	IPLimit     int
	EditorLimit int
}

// RateLimit counts requests in fixed windows and rejects once a bucket is exhausted.
// Counter failures fail open.
func RateLimit(policy RateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || policy.Window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			bucket := windowBucket(time.Now(), policy.Window)

			if policy.IPLimit > 0 {
				if ip := clientIP(r); ip != "" {
					if exceeded(ctx, store, logg, policy, "ip:"+ip+":"+bucket, policy.IPLimit) {
						writeRateLimited(ctx, logg, w, policy, "ip")
						return
					}
				}
			}

			if policy.EditorLimit > 0 {
				if editorID := EditorIDFromContext(ctx); editorID != uuid.Nil {
					if exceeded(ctx, store, logg, policy, "editor:"+editorID.String()+":"+bucket, policy.EditorLimit) {
						writeRateLimited(ctx, logg, w, policy, "editor")
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func exceeded(ctx context.Context, store RateLimitStore, logg *logger.Logger, policy RateLimitPolicy, scope string, limit int) bool {
	key := store.RateLimitKey(policy.Name + ":" + scope)
	count, err := store.IncrWithTTL(ctx, key, policy.Window)
	if err != nil {
		logg.Error(ctx, "rate limit counter", err)
		return false
	}
	return count > int64(limit)
}

func writeRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, dimension string) {
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"rate_limit_policy":    policy.Name,
			"rate_limit_dimension": dimension,
		})
		logg.Warn(ctx, "rate limit exceeded")
	}
	retry := int(policy.Window.Seconds())
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded").WithDetails(map[string]any{
		"policy": policy.Name,
	}))
}

func windowBucket(now time.Time, window time.Duration) string {
	return strconv.FormatInt(now.UnixNano()/int64(window), 10)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
