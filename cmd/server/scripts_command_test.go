package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Corphon/ScriptRehearsal/internal/models"
)

func TestRenderScripts(t *testing.T) {
	description := "Two friends"
	out := renderScripts([]models.ScriptSummary{
		{ID: 2, Title: "Coffee Shop Meeting", Description: &description, CreatedAt: time.Now()},
		{ID: 1, Title: "Romeo and Juliet Scene"},
	})
	require.Contains(t, out, "Coffee Shop Meeting")
	require.Contains(t, out, "Two friends")
	require.Contains(t, out, "Romeo and Juliet Scene")
}

func TestRenderDialogues(t *testing.T) {
	audio := "/audio/ali1.mp3"
	out := renderDialogues(&models.Script{
		Characters: []models.Character{{ID: 1, Name: "Ali"}, {ID: 2, Name: "Ayşe"}},
		Dialogues: []models.Dialogue{
			{LineNumber: 1, CharacterID: 1, Content: "Merhaba", AudioPath: &audio},
			{LineNumber: 2, CharacterID: 2, Content: "Selam"},
		},
	})
	require.Contains(t, out, "Ali")
	require.Contains(t, out, "Ayşe")
	require.Contains(t, out, "/audio/ali1.mp3")
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"serve", "seed", "scripts"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, cmd.Name())
	}
}
