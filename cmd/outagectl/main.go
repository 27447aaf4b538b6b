// Command outagectl is the operator CLI for the outage notifier.
//
// Usage:
//
//	outagectl status --group 4.1
//	outagectl parse --file schedule.html --group 4.1 --locale uk
//	outagectl pass --digest tomorrow --dry-run
//	outagectl send --user 123456789
//	outagectl migrate
//	outagectl cleanup --retention-days 7
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/powerwatch/outage-notifier/internal/app"
	"github.com/powerwatch/outage-notifier/internal/config"
	"github.com/powerwatch/outage-notifier/internal/db"
	"github.com/powerwatch/outage-notifier/internal/logging"
	"github.com/powerwatch/outage-notifier/internal/maintenance"
	"github.com/powerwatch/outage-notifier/internal/notifications"
	"github.com/powerwatch/outage-notifier/internal/schedule"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "outagectl",
		Short:         "Outage notifier operator CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(statusCmd())
	root.AddCommand(parseCmd())
	root.AddCommand(passCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(cleanupCmd())

	if err := root.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// status command
// --------------------------------------------------------------------------

func statusCmd() *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a group has power right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, ok := schedule.NormalizeGroupCode(group)
			if !ok {
				return fmt.Errorf("invalid group %q", group)
			}
			return withApp(true, func(ctx context.Context, a *app.App) error {
				st, err := a.Engine.CurrentStatus(ctx, code)
				if err != nil {
					return err
				}
				return printJSON(st)
			})
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Outage group, e.g. 4.1")
	cmd.MarkFlagRequired("group")
	return cmd
}

// --------------------------------------------------------------------------
// parse command
// --------------------------------------------------------------------------

func parseCmd() *cobra.Command {
	var file, group, locale string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a saved schedule document for one group",
		RunE: func(cmd *cobra.Command, args []string) error {
			code, ok := schedule.NormalizeGroupCode(group)
			if !ok {
				return fmt.Errorf("invalid group %q", group)
			}
			vocab, err := schedule.VocabularyFor(locale)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}

			p := schedule.NewParser(vocab)
			res := p.Parse(string(raw), code)
			return printJSON(map[string]any{
				"group":           code.Dotted(),
				"date":            p.ExtractDate(string(raw)),
				"updated_at":      p.ExtractUpdatedAt(string(raw)),
				"found":           res.Found,
				"power_available": res.PowerAvailable,
				"intervals":       schedule.Sorted(res.Intervals),
				"fingerprint":     notifications.Fingerprint(res.Intervals),
				"dropped":         res.Dropped,
				"note":            res.Note,
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to the raw schedule markup")
	cmd.Flags().StringVar(&group, "group", "", "Outage group, e.g. 4.1")
	cmd.Flags().StringVar(&locale, "locale", "uk", "Schedule wording (uk, en)")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("group")
	return cmd
}

// --------------------------------------------------------------------------
// pass command
// --------------------------------------------------------------------------

func passCmd() *cobra.Command {
	var digest string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "pass",
		Short: "Run one notification pass over all subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := notifications.ParsePassMode(digest)
			if err != nil {
				return err
			}
			return withApp(dryRun, func(ctx context.Context, a *app.App) error {
				res := a.Engine.RunPass(ctx, mode)
				logger.Info("Pass finished", "summary", res.String())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&digest, "digest", "", "Run as a digest pass (today, tomorrow)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log messages instead of sending them")
	return cmd
}

// --------------------------------------------------------------------------
// send command
// --------------------------------------------------------------------------

func sendCmd() *cobra.Command {
	var userID int64
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send today's schedule to one user now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(dryRun, func(ctx context.Context, a *app.App) error {
				if err := a.Engine.SendScheduleNow(ctx, userID); err != nil {
					return err
				}
				logger.Info("Schedule sent", "user_id", userID)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "Messaging user ID")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log the message instead of sending it")
	cmd.MarkFlagRequired("user")
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.StoreBackend != config.StorePostgres {
				return fmt.Errorf("migrate needs STORE_BACKEND=%s", config.StorePostgres)
			}
			applied, err := db.Migrate(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			logger.Info("Migrations complete", "applied", len(applied), "files", applied)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// cleanup command
// --------------------------------------------------------------------------

func cleanupCmd() *cobra.Command {
	var retentionDays int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge old change-detection fingerprints",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(ctx context.Context, a *app.App) error {
				days := retentionDays
				if days <= 0 {
					days = a.Config.RetentionDays
				}
				n, err := maintenance.Cleanup(ctx, a.Store, time.Duration(days)*24*time.Hour, time.Now(), logger)
				if err != nil {
					return err
				}
				logger.Info("Cleanup complete", "deleted", n, "retention_days", days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&retentionDays, "retention-days", 0, "Override RETENTION_DAYS")
	return cmd
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// withApp loads configuration, wires the service graph, and runs fn with a
// signal-aware context. Commands that never message users pass dryRun.
func withApp(dryRun bool, fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.LogSilent)

	a, err := app.New(ctx, cfg, log, app.Options{DryRun: dryRun})
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
