package instance

import (
	"os"

	"github.com/angelmondragon/shiplist-backend/pkg/env"
)

// GetID returns the process instance identifier. An explicit
// SHIPLIST_INSTANCE_ID wins, then the Cloud Run revision, then the host name,
// then "<kind>-0".
func GetID(kind string) string {
	if id := env.Lookup("SHIPLIST_INSTANCE_ID"); id != "" {
		return id
	}
	if rev := env.Lookup("K_REVISION"); rev != "" {
		return kind + "@" + rev
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return kind + "@" + host
	}
	return kind + "-0"
}
