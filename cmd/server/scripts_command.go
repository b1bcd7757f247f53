// cmd/server/scripts_command.go
package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Corphon/ScriptRehearsal/internal/app"
	"github.com/Corphon/ScriptRehearsal/internal/models"
)

func newScriptsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scripts [id]",
		Short: "List scripts, or show the lines of one script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), false, func(ctx context.Context, a *app.App) error {
				if len(args) == 0 {
					scripts, err := a.Scripts.ListScripts(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderScripts(scripts))
					return nil
				}

				id, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid script id %q", args[0])
				}
				script, err := a.Scripts.GetScript(ctx, uint(id))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", script.Title, renderDialogues(script))
				return nil
			})
		},
	}
}

func renderScripts(scripts []models.ScriptSummary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Description", "Created"})
	for _, s := range scripts {
		description := ""
		if s.Description != nil {
			description = *s.Description
		}
		tw.AppendRow(table.Row{s.ID, s.Title, description, s.CreatedAt.Format("2006-01-02 15:04")})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: 48},
	})
	return tw.Render()
}

func renderDialogues(script *models.Script) string {
	names := make(map[uint]string, len(script.Characters))
	for _, c := range script.Characters {
		names[c.ID] = c.Name
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Speaker", "Line", "Audio"})
	for _, d := range script.Dialogues {
		tw.AppendRow(table.Row{d.LineNumber, names[d.CharacterID], d.Content, d.Audio()})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, WidthMax: 60},
	})
	return tw.Render()
}
