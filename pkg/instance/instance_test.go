package instance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv("SHIPLIST_INSTANCE_ID", "publisher-7")
	require.Equal(t, "publisher-7", GetID("outbox-publisher"))
}

func TestGetIDFallsBackToKind(t *testing.T) {
	t.Setenv("SHIPLIST_INSTANCE_ID", "  ")
	t.Setenv("K_REVISION", "")
	id := GetID("activity-worker")
	require.True(t, strings.HasPrefix(id, "activity-worker"), id)
}

func TestGetIDUsesRevision(t *testing.T) {
	t.Setenv("SHIPLIST_INSTANCE_ID", "")
	t.Setenv("K_REVISION", "api-00042-xyz")
	require.Equal(t, "api@api-00042-xyz", GetID("api"))
}
