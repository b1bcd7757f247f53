// cmd/demo/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Corphon/ScriptRehearsal/internal/app"
	"github.com/Corphon/ScriptRehearsal/internal/config"
	"github.com/Corphon/ScriptRehearsal/internal/rehearsal"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		scriptID  uint
		role      string
		lineDelay time.Duration
		seed      bool
		noColor   bool
	)

	cmd := &cobra.Command{
		Use:           "rehearsal-demo",
		Short:         "Rehearse a script in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := utils.GetLogger()
			logger.SetLevelName("error")

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if seed {
				if _, err := a.Seed(ctx); err != nil {
					return err
				}
			}

			if scriptID == 0 {
				scripts, err := a.Scripts.ListScripts(ctx)
				if err != nil {
					return err
				}
				if len(scripts) == 0 {
					return errors.New("no scripts available; run with --seed or create one through the API")
				}
				scriptID = scripts[0].ID
			}
			script, err := a.Scripts.GetScript(ctx, scriptID)
			if err != nil {
				return err
			}
			if role == "" {
				role = rehearsal.DefaultRole(script)
			}

			lines := rehearsal.FromScript(script)
			c := newConsole(lines, role, simulatedAudio(lineDelay, a.AudioStorage.Exists), cmd.OutOrStdout(), !noColor)
			c.printf("%s\n", c.paint(script.Title, headingColors))
			return c.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().UintVar(&scriptID, "script", 0, "Script id (defaults to the first script)")
	cmd.Flags().StringVar(&role, "role", "", "Character you will read (defaults to the first character)")
	cmd.Flags().DurationVar(&lineDelay, "line-delay", 2*time.Second, "Simulated playback time per line")
	cmd.Flags().BoolVar(&seed, "seed", true, "Seed sample scripts on an empty database")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
	return cmd
}

// simulatedAudio stands in for a real audio device: each line "plays" for
// delay. A reference to a missing file fails straight away, which the
// conductor treats like a finished line.
func simulatedAudio(delay time.Duration, exists func(string) bool) rehearsal.AudioPlayer {
	return rehearsal.AudioPlayerFunc(func(ctx context.Context, src string, done func(error)) {
		if exists != nil && !exists(src) {
			done(fmt.Errorf("audio file %s not found", src))
			return
		}
		finished := make(chan struct{})
		var once sync.Once
		finish := func(err error) {
			once.Do(func() {
				close(finished)
				done(err)
			})
		}
		timer := time.AfterFunc(delay, func() { finish(nil) })
		go func() {
			select {
			case <-ctx.Done():
				timer.Stop()
				finish(ctx.Err())
			case <-finished:
			}
		}()
	})
}
