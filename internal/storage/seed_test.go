package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Corphon/ScriptRehearsal/internal/models"
)

func TestSeedPopulatesEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seeded, err := Seed(ctx, store)
	require.NoError(t, err)
	require.True(t, seeded)

	list, err := store.ListScripts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Coffee Shop Meeting", list[0].Title)
	require.Equal(t, "Romeo and Juliet Scene", list[1].Title)

	coffee, err := store.GetScript(ctx, list[0].ID)
	require.NoError(t, err)
	require.Len(t, coffee.Characters, 2)
	require.Len(t, coffee.Dialogues, 4)
	require.Equal(t, "Ali", coffee.Dialogues[0].Character.Name)
	require.Equal(t, "Ayşe", coffee.Dialogues[1].Character.Name)
	require.Equal(t, "/audio/ayse2.mp3", coffee.Dialogues[3].Audio())

	// Appending after seeding continues the numbering.
	d := &models.Dialogue{ScriptID: coffee.ID, CharacterID: coffee.Characters[0].ID, Content: "Great!"}
	require.NoError(t, store.CreateDialogue(ctx, d))
	require.Equal(t, 5, d.LineNumber)
}

func TestSeedSkipsNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateScript(ctx, &models.Script{Title: "Mine"}))

	seeded, err := SeedLocked(ctx, store, filepath.Join(t.TempDir(), "seed.lock"))
	require.NoError(t, err)
	require.False(t, seeded)

	n, err := store.CountScripts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}
