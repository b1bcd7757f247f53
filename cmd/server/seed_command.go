// cmd/server/seed_command.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Corphon/ScriptRehearsal/internal/app"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert sample scripts into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), false, func(ctx context.Context, a *app.App) error {
				seeded, err := a.Seed(ctx)
				if err != nil {
					return err
				}
				if seeded {
					fmt.Fprintln(cmd.OutOrStdout(), "Sample scripts inserted")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Database already has scripts; nothing to do")
				}
				return nil
			})
		},
	}
}
