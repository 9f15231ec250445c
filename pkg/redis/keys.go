package redis

import "strings"

const keyNamespace = "sl"

// Key segments under the namespace. Each feature owns one.
const (
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rl"
	sessionPrefix     = "session"
	tableSegment      = "table"
	lockSegment       = "lock"
	cronLockPrefix    = "cron-lock"
)

// joinKey builds "sl:part:part". Blank parts are dropped and the rest trimmed.
func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// IdempotencyKey returns the key guarding one request or event id in scope.
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(idempotencyPrefix, scope, id)
}

// RateLimitKey returns the fixed window counter key for scope.
func (c *Client) RateLimitKey(scope string) string {
	return joinKey(rateLimitPrefix, scope)
}

// TableSessionKey returns the key holding an editor's manufacturing table snapshot.
func (c *Client) TableSessionKey(editorID string) string {
	return joinKey(sessionPrefix, tableSegment, editorID)
}

// TableLockKey returns the lease key serializing transitions of one editor's table.
func (c *Client) TableLockKey(editorID string) string {
	return joinKey(sessionPrefix, lockSegment, editorID)
}

// CronLockKey returns the lease key shared by cron replicas of one environment.
func (c *Client) CronLockKey(env string) string {
	if strings.TrimSpace(env) == "" {
		env = "local"
	}
	return joinKey(cronLockPrefix, env)
}
