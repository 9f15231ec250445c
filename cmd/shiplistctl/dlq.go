package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shiplist-backend/pkg/db/models"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

func newDLQCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect outbox events that will not be retried",
	}

	var (
		limit     int
		reason    string
		eventType string
		since     time.Duration
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List the most recent dead lettered events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := dlqFilter(limit, reason, eventType, since, time.Now())
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := outbox.NewDLQRepository(e.db.DB()).List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			writeDLQTable(cmd, entries)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	list.Flags().StringVar(&reason, "reason", "", "only entries with this error reason")
	list.Flags().StringVar(&eventType, "type", "", "only entries with this event type")
	list.Flags().DurationVar(&since, "since", 0, "only entries that failed within this window, e.g. 24h")

	show := &cobra.Command{
		Use:   "show <event-id>",
		Short: "Print one dead lettered event as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("event id must be a uuid: %w", err)
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			entry, err := outbox.NewDLQRepository(e.db.DB()).FindByEventID(cmd.Context(), eventID)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("event %s is not in the dead letter table", eventID)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		},
	}

	replay := &cobra.Command{
		Use:   "replay <event-id>...",
		Short: "Hand dead lettered events back to the outbox publisher",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("event id %q must be a uuid: %w", arg, err)
				}
				ids = append(ids, id)
			}
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			repo := outbox.NewDLQRepository(e.db.DB())
			for _, id := range ids {
				if err := repo.Replay(cmd.Context(), id); err != nil {
					return fmt.Errorf("replay %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "requeued %s\n", id)
			}
			return nil
		},
	}

	cmd.AddCommand(list, show, replay)
	return cmd
}

func writeDLQTable(cmd *cobra.Command, entries []models.OutboxDLQ) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EVENT ID\tTYPE\tAGGREGATE\tREASON\tATTEMPTS\tFAILED AT")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			entry.EventID,
			entry.EventType,
			entry.AggregateID,
			entry.ErrorReason,
			entry.AttemptCount,
			entry.FailedAt.Format(time.RFC3339),
		)
	}
	_ = w.Flush()
}

func dlqFilter(limit int, reason, eventType string, since time.Duration, now time.Time) (outbox.DLQFilter, error) {
	filter := outbox.DLQFilter{Limit: limit}
	if reason != "" {
		r, err := enums.ParseOutboxDLQErrorReason(reason)
		if err != nil {
			return filter, err
		}
		filter.Reason = r
	}
	if eventType != "" {
		t, err := enums.ParseOutboxEventType(eventType)
		if err != nil {
			return filter, err
		}
		filter.EventType = t
	}
	if since < 0 {
		return filter, fmt.Errorf("--since must be positive")
	}
	if since > 0 {
		filter.Since = now.Add(-since)
	}
	return filter, nil
}
