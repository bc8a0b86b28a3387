package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ytget/ytqueue/internal/history"
	"github.com/ytget/ytqueue/internal/logging"
	"github.com/ytget/ytqueue/internal/model"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List completed downloads, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			entries := store.All()
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "History is empty")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			fmt.Fprintln(out, renderHistoryTable(entries, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Show at most this many entries (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			count := store.Len()
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries from %s\n", count, store.Path())
			return nil
		},
	})
	return cmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		logger = logging.Discard()
	}
	return history.Open(cfg.Paths.HistoryFile, logger), nil
}

func renderHistoryTable(entries []model.HistoryEntry, now time.Time) string {
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		when := entry.Timestamp.Format(model.HistoryDateLayout)
		if !entry.Timestamp.IsZero() {
			when = humanize.RelTime(entry.Timestamp, now, "ago", "from now")
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			when,
			model.Truncate(entry.Title, 48),
			entry.Format.Label(),
			entry.Path,
		})
	}
	return renderTable(
		[]string{"#", "When", "Title", "Format", "Saved To"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}
