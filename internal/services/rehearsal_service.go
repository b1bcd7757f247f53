// internal/services/rehearsal_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Corphon/ScriptRehearsal/internal/errors"
	"github.com/Corphon/ScriptRehearsal/internal/rehearsal"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

// ErrSessionNotFound is the cause of the not-found error for unknown or
// closed sessions.
var ErrSessionNotFound = errors.New("rehearsal session not found")

// RehearsalOptions configures hosted sessions.
type RehearsalOptions struct {
	// AutoContinue requests playback again after an automatic advance lands
	// on another character's line.
	AutoContinue bool
	// IdleTimeout is how long an untouched session survives. Zero keeps
	// sessions until they are closed.
	IdleTimeout time.Duration
	// CleanupInterval is how often the janitor looks for idle sessions.
	CleanupInterval time.Duration
}

// SessionView is the client-facing state of a hosted session.
type SessionView struct {
	ID          string             `json:"id"`
	ScriptID    uint               `json:"scriptId"`
	ScriptTitle string             `json:"scriptTitle"`
	Characters  []string           `json:"characters"`
	Lines       []rehearsal.Line   `json:"lines"`
	Snapshot    rehearsal.Snapshot `json:"snapshot"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// RehearsalSession is one server-hosted Player. The client plays the audio
// and reports back through AudioEnded.
type RehearsalSession struct {
	ID          string
	ScriptID    uint
	ScriptTitle string
	Characters  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	lines        []rehearsal.Line
	player       *rehearsal.Player
	autoContinue bool
	subscribers  map[chan rehearsal.Snapshot]bool
	closed       bool
	mutex        sync.Mutex
}

// RehearsalService hosts rehearsal sessions keyed by id.
type RehearsalService struct {
	scripts  *ScriptService
	options  RehearsalOptions
	logger   *utils.Logger
	sessions map[string]*RehearsalSession
	mutex    sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRehearsalService creates the service and, when both IdleTimeout and
// CleanupInterval are set, starts the idle-session janitor.
func NewRehearsalService(scripts *ScriptService, options RehearsalOptions, logger *utils.Logger) *RehearsalService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	s := &RehearsalService{
		scripts:  scripts,
		options:  options,
		logger:   logger,
		sessions: make(map[string]*RehearsalSession),
		stop:     make(chan struct{}),
	}
	if options.IdleTimeout > 0 && options.CleanupInterval > 0 {
		s.wg.Add(1)
		go s.janitor(options.CleanupInterval)
	}
	return s
}

// Start loads a script and opens a session on its first line. An empty role
// selects the script's first character.
func (s *RehearsalService) Start(ctx context.Context, scriptID uint, role string) (*SessionView, error) {
	script, err := s.scripts.GetScript(ctx, scriptID)
	if err != nil {
		return nil, err
	}

	lines := rehearsal.FromScript(script)
	if role == "" {
		role = rehearsal.DefaultRole(script)
	}
	characters := make([]string, 0, len(script.Characters))
	for _, c := range script.Characters {
		characters = append(characters, c.Name)
	}

	now := time.Now()
	session := &RehearsalSession{
		ID:           uuid.NewString(),
		ScriptID:     script.ID,
		ScriptTitle:  script.Title,
		Characters:   characters,
		CreatedAt:    now,
		UpdatedAt:    now,
		lines:        lines,
		player:       rehearsal.NewPlayer(lines, role),
		autoContinue: s.options.AutoContinue,
		subscribers:  make(map[chan rehearsal.Snapshot]bool),
	}
	session.player.OnChange(session.broadcast)
	view := session.view()

	s.mutex.Lock()
	s.sessions[session.ID] = session
	s.mutex.Unlock()

	s.logger.Info("rehearsal started", map[string]interface{}{
		"session_id": session.ID,
		"script_id":  script.ID,
		"role":       role,
		"lines":      len(lines),
	})
	return view, nil
}

// Get returns a session's current view.
func (s *RehearsalService) Get(id string) (*SessionView, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return session.view(), nil
}

// SelectRole changes the session's role without moving the cursor.
func (s *RehearsalService) SelectRole(id, role string) (*SessionView, error) {
	return s.apply(id, func(rs *RehearsalSession) {
		rs.player.SelectRole(role)
	})
}

// Play requests playback of the current line. On the user's own line this
// changes nothing. Lines without audio finish at once.
func (s *RehearsalService) Play(id string) (*SessionView, error) {
	return s.apply(id, func(rs *RehearsalSession) {
		if rs.player.RequestPlay() {
			rs.settle()
		}
	})
}

// AudioEnded reports that the client finished (or failed) playing the
// current line. Reports that arrive while nothing is playing are ignored.
func (s *RehearsalService) AudioEnded(id string) (*SessionView, error) {
	return s.apply(id, func(rs *RehearsalSession) {
		if !rs.player.Playing() {
			return
		}
		rs.player.OnAudioEnded()
		rs.continuePlayback()
	})
}

// Advance moves past the user's line; ignored while audio plays.
func (s *RehearsalService) Advance(id string) (*SessionView, error) {
	return s.apply(id, func(rs *RehearsalSession) {
		rs.player.Advance()
	})
}

// Restart rewinds the session to its first line.
func (s *RehearsalService) Restart(id string) (*SessionView, error) {
	return s.apply(id, func(rs *RehearsalSession) {
		rs.player.Restart()
	})
}

// Close ends a session and closes its subscriber channels.
func (s *RehearsalService) Close(id string) error {
	s.mutex.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mutex.Unlock()
	if !ok {
		return sessionNotFound(id)
	}
	session.close()
	s.logger.Info("rehearsal closed", map[string]interface{}{"session_id": id})
	return nil
}

// Subscribe returns a channel that receives the session's snapshots,
// starting with the current one. Slow subscribers miss updates rather than
// block the session.
func (s *RehearsalService) Subscribe(id string) (chan rehearsal.Snapshot, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mutex.Lock()
	defer session.mutex.Unlock()
	if session.closed {
		return nil, sessionNotFound(id)
	}

	subscriber := make(chan rehearsal.Snapshot, 10)
	session.subscribers[subscriber] = true
	subscriber <- session.player.Snapshot()
	return subscriber, nil
}

// Unsubscribe stops delivery to subscriber and closes it.
func (s *RehearsalService) Unsubscribe(id string, subscriber chan rehearsal.Snapshot) {
	s.mutex.RLock()
	session, ok := s.sessions[id]
	s.mutex.RUnlock()
	if !ok {
		return
	}
	session.mutex.Lock()
	defer session.mutex.Unlock()
	if session.subscribers[subscriber] {
		delete(session.subscribers, subscriber)
		close(subscriber)
	}
}

// Count returns the number of open sessions.
func (s *RehearsalService) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.sessions)
}

// CleanupIdle closes sessions untouched for longer than maxAge and returns
// how many it closed.
func (s *RehearsalService) CleanupIdle(maxAge time.Duration) int {
	s.mutex.Lock()
	now := time.Now()
	var stale []*RehearsalSession
	for id, session := range s.sessions {
		session.mutex.Lock()
		isOld := now.Sub(session.UpdatedAt) > maxAge
		session.mutex.Unlock()

		if isOld {
			delete(s.sessions, id)
			stale = append(stale, session)
		}
	}
	s.mutex.Unlock()

	for _, session := range stale {
		session.close()
	}
	if len(stale) > 0 {
		s.logger.Info("idle rehearsals closed", map[string]interface{}{"count": len(stale)})
	}
	return len(stale)
}

// Shutdown stops the janitor and closes every session.
func (s *RehearsalService) Shutdown() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()

	s.mutex.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*RehearsalSession)
	s.mutex.Unlock()

	for _, session := range sessions {
		session.close()
	}
}

func (s *RehearsalService) janitor(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.CleanupIdle(s.options.IdleTimeout)
		}
	}
}

func (s *RehearsalService) session(id string) (*RehearsalSession, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return session, nil
}

func (s *RehearsalService) apply(id string, fn func(*RehearsalSession)) (*SessionView, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mutex.Lock()
	defer session.mutex.Unlock()
	if session.closed {
		return nil, sessionNotFound(id)
	}
	fn(session)
	session.UpdatedAt = time.Now()
	return session.view(), nil
}

func sessionNotFound(id string) error {
	return apperrors.NewNotFoundError("Rehearsal session not found", fmt.Errorf("%w: %q", ErrSessionNotFound, id))
}

// settle finishes playback of lines that have no audio to play. Must be
// called with the session locked.
func (rs *RehearsalSession) settle() {
	for rs.player.Playing() {
		line, ok := rs.player.CurrentLine()
		if !ok || line.Audio != "" {
			return
		}
		rs.player.OnAudioEnded()
		if !rs.autoContinue || rs.player.State() != rehearsal.StateAwaitingPlayback {
			return
		}
		rs.player.RequestPlay()
	}
}

// continuePlayback starts the next line after an automatic advance when
// AutoContinue is on. Must be called with the session locked.
func (rs *RehearsalSession) continuePlayback() {
	if !rs.autoContinue || rs.player.State() != rehearsal.StateAwaitingPlayback {
		return
	}
	if rs.player.RequestPlay() {
		rs.settle()
	}
}

func (rs *RehearsalSession) broadcast(snap rehearsal.Snapshot) {
	for subscriber := range rs.subscribers {
		select {
		case subscriber <- snap:
		default:
		}
	}
}

func (rs *RehearsalSession) close() {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	if rs.closed {
		return
	}
	rs.closed = true
	for subscriber := range rs.subscribers {
		close(subscriber)
	}
	rs.subscribers = make(map[chan rehearsal.Snapshot]bool)
}

// view must be called with the session locked.
func (rs *RehearsalSession) view() *SessionView {
	return &SessionView{
		ID:          rs.ID,
		ScriptID:    rs.ScriptID,
		ScriptTitle: rs.ScriptTitle,
		Characters:  append([]string{}, rs.Characters...),
		Lines:       append([]rehearsal.Line{}, rs.lines...),
		Snapshot:    rs.player.Snapshot(),
		CreatedAt:   rs.CreatedAt,
		UpdatedAt:   rs.UpdatedAt,
	}
}
