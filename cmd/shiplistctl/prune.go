package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/shiplist-backend/internal/cron"
)

func newPruneCmd() *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Run the retention jobs once, in process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			registry, err := cron.RetentionRegistry(e.cfg, e.logg, e.db, nil)
			if err != nil {
				return err
			}
			if only != "" {
				job, ok := registry.Lookup(only)
				if !ok {
					return fmt.Errorf("unknown job %q", only)
				}
				registry = cron.NewRegistry(job)
			}

			service, err := cron.NewService(cron.ServiceParams{
				Logger:   e.logg,
				Registry: registry,
				Lock:     cron.NewLocalLock(),
			})
			if err != nil {
				return err
			}
			outcomes, runErr := service.RunOnce(cmd.Context())
			writeOutcomes(cmd.OutOrStdout(), outcomes)
			if runErr != nil {
				return errors.New("one or more retention jobs failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "job", "", "run a single job by name (outbox-retention, activity-retention)")
	return cmd
}

func writeOutcomes(out io.Writer, outcomes []cron.JobOutcome) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "JOB\tRESULT\tDURATION")
	for _, o := range outcomes {
		result := "ok"
		if o.Err != nil {
			result = o.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.Job, result, o.Duration.Round(time.Millisecond))
	}
	_ = w.Flush()
}
