package storage

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Corphon/ScriptRehearsal/internal/models"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

func newTestStore(t *testing.T) *ScriptStore {
	t.Helper()

	db, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"), utils.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDatabase(db) })

	store := NewScriptStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func strPtr(s string) *string { return &s }

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("/tmp/x.db")
	require.Contains(t, dsn, "file:/tmp/x.db?")
	require.Contains(t, dsn, "_pragma=foreign_keys(1)")

	require.Equal(t, "file::memory:?cache=shared", buildDSN("file::memory:?cache=shared"))
}

func TestCreateAndGetScript(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	script := &models.Script{Title: "Hamlet", Description: strPtr("Act 3")}
	require.NoError(t, store.CreateScript(ctx, script))
	require.NotZero(t, script.ID)
	require.False(t, script.CreatedAt.IsZero())

	got, err := store.GetScript(ctx, script.ID)
	require.NoError(t, err)
	require.Equal(t, "Hamlet", got.Title)
	require.Equal(t, "Act 3", *got.Description)
	require.NotNil(t, got.Characters)
	require.Empty(t, got.Characters)
	require.NotNil(t, got.Dialogues)
	require.Empty(t, got.Dialogues)
}

func TestGetScriptNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetScript(context.Background(), 999)
	require.ErrorIs(t, err, ErrScriptNotFound)
}

func TestListScriptsOrderedByTitle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, title := range []string{"Zeta", "Alpha", "Mid"} {
		require.NoError(t, store.CreateScript(ctx, &models.Script{Title: title}))
	}

	list, err := store.ListScripts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "Alpha", list[0].Title)
	require.Equal(t, "Mid", list[1].Title)
	require.Equal(t, "Zeta", list[2].Title)

	n, err := store.CountScripts(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestCreateCharacterRequiresScript(t *testing.T) {
	store := newTestStore(t)
	err := store.CreateCharacter(context.Background(), &models.Character{ScriptID: 42, Name: "Ghost"})
	require.ErrorIs(t, err, ErrScriptNotFound)
}

func TestCreateDialogueNumbersLines(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	script := &models.Script{Title: "Two Hander"}
	require.NoError(t, store.CreateScript(ctx, script))
	a := &models.Character{ScriptID: script.ID, Name: "Ali"}
	b := &models.Character{ScriptID: script.ID, Name: "Ayşe"}
	require.NoError(t, store.CreateCharacter(ctx, a))
	require.NoError(t, store.CreateCharacter(ctx, b))

	first := &models.Dialogue{ScriptID: script.ID, CharacterID: a.ID, Content: "Hi"}
	require.NoError(t, store.CreateDialogue(ctx, first))
	require.Equal(t, 1, first.LineNumber)
	require.NotNil(t, first.Character)
	require.Equal(t, "Ali", first.Character.Name)

	second := &models.Dialogue{ScriptID: script.ID, CharacterID: b.ID, Content: "Hello", AudioPath: strPtr("/audio/ayse1.mp3")}
	require.NoError(t, store.CreateDialogue(ctx, second))
	require.Equal(t, 2, second.LineNumber)

	got, err := store.GetScript(ctx, script.ID)
	require.NoError(t, err)
	require.Len(t, got.Characters, 2)
	require.Len(t, got.Dialogues, 2)
	require.Equal(t, "Hi", got.Dialogues[0].Content)
	require.Equal(t, "Ayşe", got.Dialogues[1].Character.Name)
	require.Equal(t, "/audio/ayse1.mp3", got.Dialogues[1].Audio())
}

func TestCreateDialogueRejectsForeignCharacter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	one := &models.Script{Title: "One"}
	two := &models.Script{Title: "Two"}
	require.NoError(t, store.CreateScript(ctx, one))
	require.NoError(t, store.CreateScript(ctx, two))
	outsider := &models.Character{ScriptID: two.ID, Name: "Outsider"}
	require.NoError(t, store.CreateCharacter(ctx, outsider))

	err := store.CreateDialogue(ctx, &models.Dialogue{ScriptID: one.ID, CharacterID: outsider.ID, Content: "?"})
	require.ErrorIs(t, err, ErrCharacterNotFound)

	err = store.CreateDialogue(ctx, &models.Dialogue{ScriptID: 999, CharacterID: outsider.ID, Content: "?"})
	require.ErrorIs(t, err, ErrScriptNotFound)
}

func TestCreateDialogueConcurrentAppendsAreDense(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	script := &models.Script{Title: "Crowd"}
	require.NoError(t, store.CreateScript(ctx, script))
	c := &models.Character{ScriptID: script.ID, Name: "Chorus"}
	require.NoError(t, store.CreateCharacter(ctx, c))

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.CreateDialogue(ctx, &models.Dialogue{ScriptID: script.ID, CharacterID: c.ID, Content: "la"})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.GetScript(ctx, script.ID)
	require.NoError(t, err)
	require.Len(t, got.Dialogues, n)
	for i, d := range got.Dialogues {
		require.Equal(t, i+1, d.LineNumber)
	}
}

func TestUpdateDialogue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	script := &models.Script{Title: "Edit"}
	require.NoError(t, store.CreateScript(ctx, script))
	c := &models.Character{ScriptID: script.ID, Name: "Ed"}
	require.NoError(t, store.CreateCharacter(ctx, c))
	d := &models.Dialogue{ScriptID: script.ID, CharacterID: c.ID, Content: "old", AudioPath: strPtr("/audio/ed.mp3")}
	require.NoError(t, store.CreateDialogue(ctx, d))

	updated, err := store.UpdateDialogue(ctx, d.ID, strPtr("new"), nil)
	require.NoError(t, err)
	require.Equal(t, "new", updated.Content)
	require.Equal(t, "/audio/ed.mp3", updated.Audio())
	require.Equal(t, 1, updated.LineNumber)

	cleared, err := store.UpdateDialogue(ctx, d.ID, nil, strPtr(""))
	require.NoError(t, err)
	require.Nil(t, cleared.AudioPath)
	require.Equal(t, "new", cleared.Content)

	_, err = store.UpdateDialogue(ctx, 999, strPtr("x"), nil)
	require.ErrorIs(t, err, ErrDialogueNotFound)
}
