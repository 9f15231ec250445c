package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/db"
	"github.com/angelmondragon/shiplist-backend/pkg/logger"
	"github.com/angelmondragon/shiplist-backend/pkg/migrate"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:           "migrate",
	Short:         "Manage the shiplist database schema",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd.Context(), func(ctx context.Context, r *migrate.Runner) error {
			results, err := r.Up(ctx)
			printResults(cmd.OutOrStdout(), results...)
			return err
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd.Context(), func(ctx context.Context, r *migrate.Runner) error {
			result, err := r.Down(ctx)
			printResults(cmd.OutOrStdout(), result)
			return err
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print applied and pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd.Context(), func(ctx context.Context, r *migrate.Runner) error {
			statuses, err := r.Status(ctx)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version <YYYYMMDDHHMMSS>",
	Short: "Migrate up or down to the given version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd.Context(), func(ctx context.Context, r *migrate.Runner) error {
			results, err := r.To(ctx, args[0])
			printResults(cmd.OutOrStdout(), results...)
			return err
		})
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty SQL migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := migrate.CreateSQLMigration(sourceDir(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "created migration:", path)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check migration file names and goose annotations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := migrate.ValidateDir(sourceDir()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migration validation passed")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "read migrations from this directory instead of the embedded set")
	rootCmd.AddCommand(upCmd, downCmd, statusCmd, versionCmd, createCmd, validateCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withRunner loads config, opens the database and hands a goose runner to fn.
func withRunner(ctx context.Context, fn func(context.Context, *migrate.Runner) error) error {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"source": sourceLabel(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "resource not working: database", err)
		return err
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql database: %w", err)
	}

	var fsys fs.FS
	if migrationsDir != "" {
		fsys = os.DirFS(migrationsDir)
	}
	runner, err := migrate.NewRunner(sqlDB, fsys)
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate ready")
	return fn(ctx, runner)
}

func sourceDir() string {
	if migrationsDir != "" {
		return migrationsDir
	}
	return migrate.DefaultDir
}

func sourceLabel() string {
	if migrationsDir != "" {
		return migrationsDir
	}
	return "embedded"
}

func printResults(w io.Writer, results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		fmt.Fprintf(w, "%-6s %d %s (%s)\n", r.Direction, r.Source.Version, filepath.Base(r.Source.Path), r.Duration.Round(time.Millisecond))
	}
}

func printStatus(w io.Writer, statuses []*goose.MigrationStatus) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, st := range statuses {
		applied := "-"
		if !st.AppliedAt.IsZero() {
			applied = st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", st.Source.Version, st.State, applied, filepath.Base(st.Source.Path))
	}
	_ = tw.Flush()
}
