// internal/rehearsal/conductor.go
package rehearsal

import (
	"context"
	"sync"

	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

// AudioPlayer plays one audio reference. done must be called exactly once
// when playback finishes or fails; it may be called from any goroutine,
// including synchronously from Play.
type AudioPlayer interface {
	Play(ctx context.Context, src string, done func(error))
}

// AudioPlayerFunc adapts a function to AudioPlayer.
type AudioPlayerFunc func(ctx context.Context, src string, done func(error))

// Play calls f.
func (f AudioPlayerFunc) Play(ctx context.Context, src string, done func(error)) {
	f(ctx, src, done)
}

// Conductor drives a Player against real audio output. It is safe for
// concurrent use.
type Conductor struct {
	mu           sync.Mutex
	player       *Player
	audio        AudioPlayer
	autoContinue bool
	logger       *utils.Logger

	// generation invalidates completions that belong to a playback
	// abandoned by Restart or Initialize.
	generation uint64
}

// ConductorOption configures a Conductor.
type ConductorOption func(*Conductor)

// WithAutoContinue makes playback run straight into the next line when it
// belongs to another character.
func WithAutoContinue(enabled bool) ConductorOption {
	return func(c *Conductor) { c.autoContinue = enabled }
}

// WithLogger sets the logger used for swallowed playback errors.
func WithLogger(logger *utils.Logger) ConductorOption {
	return func(c *Conductor) { c.logger = logger }
}

// NewConductor binds player to audio. AutoContinue is on by default.
func NewConductor(player *Player, audio AudioPlayer, opts ...ConductorOption) *Conductor {
	c := &Conductor{
		player:       player,
		audio:        audio,
		autoContinue: true,
		logger:       utils.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Play requests playback of the current line and, when the Player agrees,
// hands its audio to the AudioPlayer. It reports whether playback started.
func (c *Conductor) Play(ctx context.Context) bool {
	c.mu.Lock()
	if !c.player.RequestPlay() {
		c.mu.Unlock()
		return false
	}
	line, _ := c.player.CurrentLine()
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	if line.Audio == "" {
		c.finish(ctx, gen, nil)
		return true
	}
	c.audio.Play(ctx, line.Audio, func(err error) {
		c.finish(ctx, gen, err)
	})
	return true
}

func (c *Conductor) finish(ctx context.Context, gen uint64, err error) {
	c.mu.Lock()
	if gen != c.generation || !c.player.Playing() {
		c.mu.Unlock()
		return
	}
	if err != nil {
		line, _ := c.player.CurrentLine()
		c.logger.Debug("audio playback failed, continuing", map[string]interface{}{
			"line":  line.ID,
			"audio": line.Audio,
			"error": err.Error(),
		})
	}
	c.player.OnAudioEnded()
	next := c.autoContinue && c.player.State() == StateAwaitingPlayback
	c.mu.Unlock()

	if next && ctx.Err() == nil {
		c.Play(ctx)
	}
}

// Advance moves past the user's line. It is ignored while audio plays.
func (c *Conductor) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.player.Advance()
}

// SelectRole changes the user's role without moving the cursor.
func (c *Conductor) SelectRole(role string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.player.SelectRole(role)
}

// Restart rewinds to the first line. A playback in flight is abandoned and
// its completion ignored.
func (c *Conductor) Restart() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.player.Restart()
}

// Initialize loads new lines, abandoning any playback in flight.
func (c *Conductor) Initialize(lines []Line, defaultRole string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.player.Initialize(lines, defaultRole)
}

// Snapshot returns the Player's current state.
func (c *Conductor) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player.Snapshot()
}
