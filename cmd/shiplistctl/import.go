package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shiplist-backend/internal/importer"
	"github.com/angelmondragon/shiplist-backend/internal/shipments"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
	"github.com/angelmondragon/shiplist-backend/pkg/outbox"
)

type importFlags struct {
	encoding  string
	delimiter string
	source    string
	editor    string
	dryRun    bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Append a CSV shipment list to the production list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readerOptions(flags.encoding, flags.delimiter)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			parsed, err := importer.Read(f, opts)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, skipped := range parsed.Skipped {
				fmt.Fprintf(out, "skipped line %d: %s\n", skipped.Line, skipped.Reason)
			}
			if len(parsed.Rows) == 0 {
				return fmt.Errorf("%s has no valid rows", args[0])
			}
			if flags.dryRun {
				fmt.Fprintf(out, "%d rows would be imported\n", len(parsed.Rows))
				return nil
			}

			editorID, err := uuid.Parse(flags.editor)
			if err != nil {
				return fmt.Errorf("--editor must be a uuid: %w", err)
			}
			source := strings.TrimSpace(flags.source)
			if source == "" {
				source = filepath.Base(args[0])
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			svc, err := shipments.NewService(
				shipments.NewRepository(e.db.DB()),
				e.db,
				outbox.NewService(outbox.NewRepository(e.db.DB()), e.logg),
			)
			if err != nil {
				return err
			}
			actor := outbox.ActorRef{EditorID: editorID, Role: string(enums.EditorRoleAdmin)}
			result, err := svc.ImportRows(cmd.Context(), actor, source, parsed.Rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "imported %d rows starting at position %d\n", result.Imported, result.FirstPosition)
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.encoding, "encoding", string(importer.EncodingUTF8), "file encoding: utf-8, shift_jis or windows-1252")
	cmd.Flags().StringVar(&flags.delimiter, "delimiter", ",", `field delimiter, "tab" for TSV`)
	cmd.Flags().StringVar(&flags.source, "source", "", "source label recorded on the import event")
	cmd.Flags().StringVar(&flags.editor, "editor", "", "editor id recorded as the import actor")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "parse the file without writing")
	return cmd
}

func readerOptions(encoding, delimiter string) (importer.Options, error) {
	opts := importer.Options{Encoding: importer.EncodingUTF8}
	if strings.TrimSpace(encoding) != "" {
		enc, err := importer.ParseEncoding(encoding)
		if err != nil {
			return opts, err
		}
		opts.Encoding = enc
	}
	switch delimiter {
	case "":
	case "tab", `\t`:
		opts.Delimiter = '\t'
	default:
		if utf8.RuneCountInString(delimiter) != 1 {
			return opts, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
		}
		opts.Delimiter, _ = utf8.DecodeRuneInString(delimiter)
	}
	return opts, nil
}
