// cmd/demo/console.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Corphon/ScriptRehearsal/internal/rehearsal"
)

var (
	headingColors  = text.Colors{text.Bold, text.FgHiWhite}
	playingColors  = text.Colors{text.FgCyan}
	userTurnColors = text.Colors{text.Bold, text.FgYellow}
	doneColors     = text.Colors{text.FgGreen}
	hintColors     = text.Colors{text.Faint}
)

// console drives a Conductor from line-based keyboard input.
type console struct {
	conductor *rehearsal.Conductor
	out       io.Writer
	colors    bool

	mu   sync.Mutex
	last rehearsal.Snapshot
	seen bool
}

func newConsole(lines []rehearsal.Line, role string, audio rehearsal.AudioPlayer, out io.Writer, colors bool) *console {
	c := &console{out: out, colors: colors}
	player := rehearsal.NewPlayer(lines, role)
	player.OnChange(c.render)
	c.conductor = rehearsal.NewConductor(player, audio)
	return c
}

func (c *console) run(ctx context.Context, in io.Reader) error {
	c.printf("%s\n", c.paint("Enter: play or finish your line | r: restart | role <name>: switch role | q: quit", hintColors))
	c.render(c.conductor.Snapshot())

	inputs := make(chan string)
	go func() {
		defer close(inputs)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case inputs <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case input, ok := <-inputs:
			if !ok || c.handle(ctx, input) {
				return nil
			}
		}
	}
}

// handle applies one input line and reports whether to quit.
func (c *console) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	switch {
	case input == "q" || input == "quit":
		return true
	case input == "r" || input == "restart":
		c.conductor.Restart()
	case strings.HasPrefix(input, "role "):
		c.conductor.SelectRole(strings.TrimSpace(strings.TrimPrefix(input, "role ")))
	case input == "":
		c.next(ctx)
	default:
		c.printf("%s\n", c.paint("unknown command "+input, hintColors))
	}
	return false
}

func (c *console) next(ctx context.Context) {
	switch c.conductor.Snapshot().State {
	case rehearsal.StateAwaitingUserTurn:
		c.conductor.Advance()
		if c.conductor.Snapshot().State == rehearsal.StateAwaitingPlayback {
			c.conductor.Play(ctx)
		}
	case rehearsal.StateAwaitingPlayback:
		c.conductor.Play(ctx)
	case rehearsal.StateCompleted:
		c.printf("%s\n", c.paint("r to restart, q to quit", hintColors))
	}
}

// render prints a snapshot unless it repeats the last one shown.
func (c *console) render(s rehearsal.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen && s.State == c.last.State && s.Cursor == c.last.Cursor && s.Role == c.last.Role {
		return
	}
	c.seen = true
	c.last = s

	progress := fmt.Sprintf("[%d/%d]", s.Cursor+1, s.Total)
	switch s.State {
	case rehearsal.StateEmpty:
		fmt.Fprintln(c.out, "This script has no lines.")
	case rehearsal.StatePlaying:
		fmt.Fprintf(c.out, "%s %s\n", progress, c.paint(s.Current.Speaker+": "+s.Current.Content, playingColors))
	case rehearsal.StateAwaitingUserTurn:
		fmt.Fprintf(c.out, "%s %s %s\n", progress,
			c.paint("Your line ("+s.Role+"): "+s.Current.Content, userTurnColors),
			c.paint("(Enter when done)", hintColors))
	case rehearsal.StateAwaitingPlayback:
		fmt.Fprintf(c.out, "%s %s\n", progress, c.paint("Next: "+s.Current.Speaker+" (Enter to play)", hintColors))
	case rehearsal.StateCompleted:
		fmt.Fprintln(c.out, c.paint("Scene complete.", doneColors))
	}
}

func (c *console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *console) paint(s string, colors text.Colors) string {
	if !c.colors {
		return s
	}
	return colors.Sprint(s)
}
