package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shiplist-backend/internal/cron"
	"github.com/angelmondragon/shiplist-backend/internal/importer"
	"github.com/angelmondragon/shiplist-backend/pkg/auth"
	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

func TestReaderOptions(t *testing.T) {
	opts, err := readerOptions("shift_jis", "tab")
	require.NoError(t, err)
	require.Equal(t, importer.EncodingShiftJIS, opts.Encoding)
	require.Equal(t, '\t', opts.Delimiter)

	opts, err = readerOptions("", ";")
	require.NoError(t, err)
	require.Equal(t, importer.EncodingUTF8, opts.Encoding)
	require.Equal(t, ';', opts.Delimiter)

	_, err = readerOptions("utf-8", ";;")
	require.Error(t, err)
	_, err = readerOptions("ebcdic", ",")
	require.Error(t, err)
}

func TestMintTokenRoundTrips(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "shiplist", ExpirationMinutes: 30}
	editorID := uuid.New()

	token, err := mintToken(cfg, editorID.String(), "viewer", "Line 2", time.Now())
	require.NoError(t, err)

	claims, err := auth.ParseAccessToken(cfg, token)
	require.NoError(t, err)
	require.Equal(t, editorID, claims.EditorID)
	require.Equal(t, enums.EditorRoleViewer, claims.Role)
}

func TestMintTokenRejectsBadInput(t *testing.T) {
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "shiplist", ExpirationMinutes: 30}

	_, err := mintToken(cfg, "not-a-uuid", "planner", "", time.Now())
	require.ErrorContains(t, err, "--editor must be a uuid")

	_, err = mintToken(cfg, "", "owner", "", time.Now())
	require.Error(t, err)
}

func TestImportDryRunDoesNotNeedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.csv")
	content := "shipment_number,type,formula,size,quantity,volume\nSH-1,Crate,F-12,L,4,1.5\nSH-2,Crate,F-12,L,zero,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cmd := newImportCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path, "--dry-run"})
	require.NoError(t, cmd.Execute())
	require.Contains(t, out.String(), "skipped line 3")
	require.Contains(t, out.String(), "1 rows would be imported")
}

func TestWriteDLQTable(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	writeDLQTable(cmd, []models.OutboxDLQ{{
		EventID:      uuid.MustParse("6f1d3c1e-5f43-4a43-9f0b-2d3a4e5f6a7b"),
		EventType:    enums.EventRowStatusChanged,
		AggregateID:  "SH-1-A",
		ErrorReason:  enums.OutboxDLQReasonMaxAttempts,
		AttemptCount: 10,
		FailedAt:     time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}})

	require.Contains(t, out.String(), "EVENT ID")
	require.Contains(t, out.String(), "SH-1-A")
	require.Contains(t, out.String(), "max_attempts")
	require.Contains(t, out.String(), "2026-02-03T04:05:06Z")
}

func TestWriteOutcomes(t *testing.T) {
	var out bytes.Buffer
	writeOutcomes(&out, []cron.JobOutcome{
		{Job: "outbox-retention", Duration: 1500 * time.Microsecond},
		{Job: "activity-retention", Err: errors.New("delete activity: timeout")},
	})

	require.Contains(t, out.String(), "JOB")
	require.Contains(t, out.String(), "outbox-retention")
	require.Contains(t, out.String(), "ok")
	require.Contains(t, out.String(), "delete activity: timeout")
}

func TestDLQFilter(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	filter, err := dlqFilter(5, "max_attempts", "row_note_added", 24*time.Hour, now)
	require.NoError(t, err)
	require.Equal(t, 5, filter.Limit)
	require.Equal(t, enums.OutboxDLQReasonMaxAttempts, filter.Reason)
	require.Equal(t, enums.EventRowNoteAdded, filter.EventType)
	require.Equal(t, now.Add(-24*time.Hour), filter.Since)

	filter, err = dlqFilter(0, "", "", 0, now)
	require.NoError(t, err)
	require.True(t, filter.Since.IsZero())

	_, err = dlqFilter(0, "timeout", "", 0, now)
	require.Error(t, err)
	_, err = dlqFilter(0, "", "order_paid", 0, now)
	require.Error(t, err)
	_, err = dlqFilter(0, "", "", -time.Hour, now)
	require.Error(t, err)
}
