package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nihongowow/arcade/internal/database"
	"github.com/nihongowow/arcade/internal/migrations"
	"github.com/nihongowow/arcade/internal/store"
)

// openJournal opens the configured database and brings its schema up to date.
func (a *app) openJournal(ctx context.Context) (*sql.DB, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.DBPath, err)
	}
	if _, err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending journal migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			cfg, err := a.config()
			if err != nil {
				return err
			}
			db, err := database.Open(ctx, cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening %s: %w", cfg.DBPath, err)
			}
			defer db.Close()

			version, err := migrations.Run(ctx, db)
			if err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is at schema version %d\n", cfg.DBPath, version)
			return nil
		},
	}
}

func newRoundsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rounds <username>",
		Short: "List a player's journaled rounds",
		Long: `List the rounds this server journaled for a player, newest first,
with the outcome of each score submission.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			db, err := a.openJournal(ctx)
			if err != nil {
				return err
			}
			defer db.Close()
			journal := store.New(db)

			rounds, err := journal.RecentRounds(ctx, args[0], limit)
			if err != nil {
				return fmt.Errorf("listing rounds: %w", err)
			}
			if len(rounds) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no rounds for %s\n", args[0])
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tGAME\tPHASE\tSCORE\tSUBMISSIONS\tUPDATED")
			for _, r := range rounds {
				subs, err := journal.Submissions(ctx, r.ID)
				if err != nil {
					return fmt.Errorf("listing submissions of %s: %w", r.ID, err)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", r.ID, r.Game, r.Phase, r.Score, submissionSummary(subs), r.UpdatedAt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rounds to list")
	return cmd
}

// submissionSummary renders statuses in order, e.g. "skipped,submitted".
func submissionSummary(subs []store.Submission) string {
	if len(subs) == 0 {
		return "-"
	}
	statuses := make([]string, len(subs))
	for i, s := range subs {
		statuses[i] = string(s.Status)
	}
	return strings.Join(statuses, ",")
}

func newPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journaled rounds past the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			cfg, err := a.config()
			if err != nil {
				return err
			}
			if olderThan <= 0 {
				olderThan = cfg.JournalRetention
			}

			db, err := a.openJournal(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := store.New(db).Prune(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("pruning: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d rounds older than %s\n", n, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Retention (default JOURNAL_RETENTION)")
	return cmd
}
