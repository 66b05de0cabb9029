package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"talkclip/internal/api"
	"talkclip/internal/history"
	"talkclip/internal/status"
)

const historyTimeFormat = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			if asJSON {
				return writeJSON(cmd, api.HistoryResponse{Entries: api.FromHistory(entries)})
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No exports recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func renderHistory(entries []history.Entry) string {
	columns := []column{
		{Header: "ID", Right: true},
		{Header: "Finished"},
		{Header: "Character"},
		{Header: "Result"},
		{Header: "Message", MaxWidth: 40},
		{Header: "Note", MaxWidth: 40},
		{Header: "Audio", MaxWidth: 32},
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		audio := ""
		if e.AudioPath != "" {
			audio = filepath.Base(e.AudioPath)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.ID),
			e.FinishedAt.Local().Format(historyTimeFormat),
			e.Character,
			resultLabel(e.Report),
			e.Report.Message,
			e.Report.SubMessage,
			audio,
		})
	}
	return renderTable(columns, rows)
}

func resultLabel(r status.Report) string {
	if r.HasWarning() {
		return kindLabel(r.Kind) + "/" + kindLabel(r.SubKind)
	}
	return kindLabel(r.Kind)
}
