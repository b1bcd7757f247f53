package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Corphon/ScriptRehearsal/internal/rehearsal"
)

// syncBuffer is a bytes.Buffer safe for the conductor's callback goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var coffeeLines = []rehearsal.Line{
	{ID: 1, Speaker: "Ali", Content: "Merhaba", Audio: "/audio/ali1.mp3"},
	{ID: 2, Speaker: "Ayşe", Content: "Selam", Audio: "/audio/ayse1.mp3"},
	{ID: 3, Speaker: "Ali", Content: "Görüşürüz", Audio: "/audio/ali2.mp3"},
}

func instantAudio() rehearsal.AudioPlayer {
	return rehearsal.AudioPlayerFunc(func(_ context.Context, _ string, done func(error)) {
		done(nil)
	})
}

func TestConsoleWalkthrough(t *testing.T) {
	out := &syncBuffer{}
	c := newConsole(coffeeLines, "Ayşe", instantAudio(), out, false)

	// Enter plays Ali, Enter finishes Ayşe's line and plays Ali again.
	err := c.run(context.Background(), strings.NewReader("\n\nq\n"))
	require.NoError(t, err)

	got := out.String()
	require.Contains(t, got, "[1/3] Next: Ali (Enter to play)")
	require.Contains(t, got, "[1/3] Ali: Merhaba")
	require.Contains(t, got, "[2/3] Your line (Ayşe): Selam (Enter when done)")
	require.Contains(t, got, "[3/3] Ali: Görüşürüz")
	require.Contains(t, got, "Scene complete.")
}

func TestConsoleRestartAndRole(t *testing.T) {
	out := &syncBuffer{}
	c := newConsole(coffeeLines, "Ali", instantAudio(), out, false)
	ctx := context.Background()

	require.Equal(t, rehearsal.StateAwaitingUserTurn, c.conductor.Snapshot().State)
	require.False(t, c.handle(ctx, "role Ayşe"))
	require.Equal(t, "Ayşe", c.conductor.Snapshot().Role)
	require.Equal(t, rehearsal.StateAwaitingPlayback, c.conductor.Snapshot().State)

	require.False(t, c.handle(ctx, ""))
	require.Equal(t, 1, c.conductor.Snapshot().Cursor)

	require.False(t, c.handle(ctx, "r"))
	require.Equal(t, 0, c.conductor.Snapshot().Cursor)

	require.False(t, c.handle(ctx, "dance"))
	require.Contains(t, out.String(), "unknown command dance")
	require.True(t, c.handle(ctx, "quit"))
}

func TestConsoleEmptyScript(t *testing.T) {
	out := &syncBuffer{}
	c := newConsole(nil, "", instantAudio(), out, false)
	require.NoError(t, c.run(context.Background(), strings.NewReader("\n")))
	require.Contains(t, out.String(), "This script has no lines.")
}

func TestSimulatedAudio(t *testing.T) {
	missing := simulatedAudio(time.Hour, func(string) bool { return false })
	errCh := make(chan error, 1)
	missing.Play(context.Background(), "/audio/x.mp3", func(err error) { errCh <- err })
	require.Error(t, <-errCh)

	played := simulatedAudio(10*time.Millisecond, func(string) bool { return true })
	played.Play(context.Background(), "/audio/x.mp3", func(err error) { errCh <- err })
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("playback never finished")
	}

	ctx, cancel := context.WithCancel(context.Background())
	long := simulatedAudio(time.Hour, nil)
	long.Play(ctx, "/audio/x.mp3", func(err error) { errCh <- err })
	cancel()
	select {
	case err := <-errCh:
		require.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("cancel did not stop playback")
	}
}
