package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shiplist-backend/pkg/auth"
	"github.com/angelmondragon/shiplist-backend/pkg/config"
	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

func newTokenCmd() *cobra.Command {
	var (
		editor string
		role   string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an editor access token for local use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			token, err := mintToken(cfg.JWT, editor, role, name, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&editor, "editor", "", "editor id, generated when empty")
	cmd.Flags().StringVar(&role, "role", string(enums.EditorRolePlanner), "admin, planner or viewer")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func mintToken(cfg config.JWTConfig, editor, role, name string, now time.Time) (string, error) {
	editorID := uuid.New()
	if strings.TrimSpace(editor) != "" {
		parsed, err := uuid.Parse(editor)
		if err != nil {
			return "", fmt.Errorf("--editor must be a uuid: %w", err)
		}
		editorID = parsed
	}
	parsedRole, err := enums.ParseEditorRole(role)
	if err != nil {
		return "", err
	}
	return auth.MintAccessToken(cfg, now, auth.AccessTokenPayload{
		EditorID: editorID,
		Name:     name,
		Role:     parsedRole,
	})
}
