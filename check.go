package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TWRT/tg-asana/internal/client"
	"github.com/TWRT/tg-asana/internal/config"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the Telegram and Asana credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			me, err := a.telegram.Me(cmd.Context())
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), a.cfg, me.Username, a.asana)
		},
	}
}

func runCheck(ctx context.Context, out io.Writer, cfg *config.Config, botUsername string, projects client.ProjectLookup) error {
	fmt.Fprintf(out, "✅ Telegram bot: @%s\n", botUsername)
	if cfg.BotUsername != "" && !equalFoldUsername(cfg.BotUsername, botUsername) {
		fmt.Fprintf(out, "⚠️  TELEGRAM_BOT_USERNAME is @%s but the token belongs to @%s\n", cfg.BotUsername, botUsername)
	}

	project, err := projects.GetProject(ctx, cfg.AsanaProjectID)
	if err != nil {
		return fmt.Errorf("asana project %s: %w", cfg.AsanaProjectID, err)
	}
	fmt.Fprintf(out, "✅ Asana project: %s (%s)\n", project.Name, project.PermalinkURL)

	if len(cfg.AllowedUserIDs) == 0 {
		fmt.Fprintln(out, "⚠️  ALLOWED_USER_IDS is empty: private messages will be rejected")
	} else {
		fmt.Fprintf(out, "✅ Private chat whitelist: %d user(s)\n", len(cfg.AllowedUserIDs))
	}
	if cfg.DueInDays >= 0 {
		fmt.Fprintf(out, "✅ Due date: today + %d day(s) (%s)\n", cfg.DueInDays, cfg.DueLocation())
	}
	return nil
}

func equalFoldUsername(a, b string) bool {
	return strings.EqualFold(config.NormalizeUsername(a), config.NormalizeUsername(b))
}
