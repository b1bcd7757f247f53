// internal/rehearsal/player.go
package rehearsal

// State is the derived display state of a Player.
type State string

const (
	StateEmpty            State = "empty"
	StateAwaitingUserTurn State = "awaiting_user_turn"
	StateAwaitingPlayback State = "awaiting_playback"
	StatePlaying          State = "playing"
	StateCompleted        State = "completed"
)

// Line is one dialogue line as the Player sees it.
type Line struct {
	ID      uint   `json:"id"`
	Speaker string `json:"speaker"`
	Content string `json:"content"`
	Audio   string `json:"audio,omitempty"`
}

// Snapshot is an immutable view of a Player.
type Snapshot struct {
	State     State   `json:"state"`
	Cursor    int     `json:"cursor"`
	Total     int     `json:"total"`
	Role      string  `json:"role"`
	Playing   bool    `json:"playing"`
	Completed bool    `json:"completed"`
	Current   *Line   `json:"current,omitempty"`
	Progress  float64 `json:"progress"`
	UserTurn  bool    `json:"userTurn"`
}

// Listener receives a Snapshot after every state change.
type Listener func(Snapshot)

// Player walks a fixed list of lines for one rehearsal. Lines spoken by the
// selected role wait for the user; other lines are played back and advance
// on their own when playback ends.
//
// Player does no locking; callers that share one across goroutines must
// serialise access (see Conductor).
type Player struct {
	lines     []Line
	cursor    int
	role      string
	playing   bool
	completed bool

	listeners []Listener
}

// NewPlayer returns a Player positioned on the first line.
func NewPlayer(lines []Line, defaultRole string) *Player {
	p := &Player{}
	p.reset(lines, defaultRole)
	return p
}

// Initialize replaces the lines and role and rewinds to the first line. An
// empty list is valid and leaves the Player in StateEmpty.
func (p *Player) Initialize(lines []Line, defaultRole string) {
	p.reset(lines, defaultRole)
	p.notify()
}

func (p *Player) reset(lines []Line, role string) {
	p.lines = append([]Line(nil), lines...)
	p.cursor = 0
	p.role = role
	p.playing = false
	p.completed = false
}

// OnChange registers listener for future state changes.
func (p *Player) OnChange(listener Listener) {
	if listener != nil {
		p.listeners = append(p.listeners, listener)
	}
}

// SelectRole sets the user's role. Any value is accepted and the cursor does
// not move.
func (p *Player) SelectRole(role string) {
	if p.role == role {
		return
	}
	p.role = role
	p.notify()
}

// Role returns the selected role.
func (p *Player) Role() string { return p.role }

// Playing reports whether audio for the current line is playing.
func (p *Player) Playing() bool { return p.playing }

// Completed reports whether the rehearsal ran past its last line.
func (p *Player) Completed() bool { return p.completed }

// RequestPlay starts playback of the current line when it belongs to another
// character. It reports whether audio should now start; on the user's own
// line, when already playing, or when there is nothing to play it does
// nothing and returns false.
func (p *Player) RequestPlay() bool {
	line, ok := p.current()
	if !ok || p.completed || p.playing {
		return false
	}
	if line.Speaker == p.role {
		return false
	}
	p.playing = true
	p.notify()
	return true
}

// OnAudioEnded marks the current line's playback as finished, whether it
// completed or failed, and advances past lines that are not the user's.
func (p *Player) OnAudioEnded() {
	line, ok := p.current()
	if !ok {
		return
	}
	p.playing = false
	if line.Speaker != p.role {
		p.step()
	}
	p.notify()
}

// Advance moves to the next line on the user's behalf. It is ignored while
// audio is playing. Advancing from the last line completes the rehearsal and
// leaves the cursor in place.
func (p *Player) Advance() {
	if p.playing {
		return
	}
	if p.step() {
		p.notify()
	}
}

func (p *Player) step() bool {
	if len(p.lines) == 0 || p.completed {
		return false
	}
	if p.cursor >= len(p.lines)-1 {
		p.completed = true
		return true
	}
	p.cursor++
	p.playing = false
	return true
}

// Restart rewinds to the first line, keeping the selected role.
func (p *Player) Restart() {
	p.cursor = 0
	p.playing = false
	p.completed = false
	p.notify()
}

// State derives the display state.
func (p *Player) State() State {
	line, ok := p.current()
	switch {
	case !ok:
		return StateEmpty
	case p.completed:
		return StateCompleted
	case p.playing:
		return StatePlaying
	case line.Speaker == p.role:
		return StateAwaitingUserTurn
	default:
		return StateAwaitingPlayback
	}
}

// CurrentLine returns the line under the cursor.
func (p *Player) CurrentLine() (Line, bool) {
	return p.current()
}

// Snapshot returns a copy of the current state.
func (p *Player) Snapshot() Snapshot {
	s := Snapshot{
		State:     p.State(),
		Cursor:    p.cursor,
		Total:     len(p.lines),
		Role:      p.role,
		Playing:   p.playing,
		Completed: p.completed,
	}
	if line, ok := p.current(); ok {
		l := line
		s.Current = &l
		s.UserTurn = line.Speaker == p.role
		s.Progress = float64(p.cursor+1) / float64(len(p.lines)) * 100
	}
	return s
}

func (p *Player) current() (Line, bool) {
	if p.cursor < 0 || p.cursor >= len(p.lines) {
		return Line{}, false
	}
	return p.lines[p.cursor], true
}

func (p *Player) notify() {
	if len(p.listeners) == 0 {
		return
	}
	snap := p.Snapshot()
	for _, l := range p.listeners {
		l(snap)
	}
}
