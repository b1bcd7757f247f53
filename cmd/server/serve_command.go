// cmd/server/serve_command.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Corphon/ScriptRehearsal/internal/app"
)

func newServeCommand() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return withApp(ctx, true, func(ctx context.Context, a *app.App) error {
				if seed {
					if _, err := a.Seed(ctx); err != nil {
						return err
					}
				}
				a.Logger.Info("rehearsal server starting", map[string]interface{}{
					"port": a.Config.Port,
					"url":  "http://localhost:" + a.Config.Port,
				})
				return a.Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", true, "Seed sample scripts and audio placeholders on an empty database")
	return cmd
}
