// cmd/server/root.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Corphon/ScriptRehearsal/internal/app"
	"github.com/Corphon/ScriptRehearsal/internal/config"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "rehearsal",
		Short:         "Script rehearsal server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFlag != "" {
				return os.Setenv("CONFIG_FILE", configFlag)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "TOML configuration file")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSeedCommand())
	rootCmd.AddCommand(newScriptsCommand())
	return rootCmd
}

// openApp loads the configuration, sets up logging and builds the application.
func openApp(logToFile bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	logger := utils.GetLogger()
	if logToFile {
		if err := utils.InitLogger(cfg.LogFile()); err != nil {
			logger.Warn("file logging disabled", map[string]interface{}{"error": err.Error()})
		}
	}
	logger.SetLevelName(cfg.LogLevel)

	return app.New(cfg, logger)
}

func withApp(ctx context.Context, logToFile bool, fn func(context.Context, *app.App) error) error {
	a, err := openApp(logToFile)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
