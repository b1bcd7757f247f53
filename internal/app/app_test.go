package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Corphon/ScriptRehearsal/internal/config"
	"github.com/Corphon/ScriptRehearsal/internal/models"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(dir, "data")
	cfg.AudioDir = filepath.Join(dir, "data", "audio")
	cfg.LogDir = filepath.Join(dir, "logs")
	cfg.DatabaseURL = filepath.Join(dir, "data", "rehearsal.db")
	cfg.RateLimitPerMinute = 0
	return cfg
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(testConfig(t), utils.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = "http"
	_, err := New(cfg, utils.NewLogger(io.Discard))
	require.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	seeded, err := a.Seed(ctx)
	require.NoError(t, err)
	require.True(t, seeded)

	seeded, err = a.Seed(ctx)
	require.NoError(t, err)
	require.False(t, seeded)

	scripts, err := a.Scripts.ListScripts(ctx)
	require.NoError(t, err)
	require.Len(t, scripts, 2)

	files, err := a.Audio.List()
	require.NoError(t, err)
	require.ElementsMatch(t, config.DefaultRequiredAudioFiles, files)
}

func TestServeAndShutdown(t *testing.T) {
	a := newTestApp(t)
	_, err := a.Seed(context.Background())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	base := fmt.Sprintf("http://%s", ln.Addr().String())
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/api/scripts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var scripts []models.ScriptSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&scripts))
	require.Len(t, scripts, 2)
	require.Equal(t, "Coffee Shop Meeting", scripts[0].Title)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
