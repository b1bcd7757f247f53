package services

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/ScriptRehearsal/internal/errors"
	"github.com/Corphon/ScriptRehearsal/internal/models"
	"github.com/Corphon/ScriptRehearsal/internal/storage"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

func quietLogger() *utils.Logger {
	return utils.NewLogger(io.Discard)
}

func newTestScriptService(t *testing.T) (*ScriptService, *storage.ScriptStore) {
	t.Helper()

	db, err := storage.OpenDatabase(filepath.Join(t.TempDir(), "svc.db"), quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.CloseDatabase(db) })

	store := storage.NewScriptStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return NewScriptService(store, quietLogger()), store
}

func strPtr(s string) *string { return &s }

func messagesByField(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	out := make(map[string]string, len(appErr.Fields))
	for _, f := range appErr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestCreateScriptValidation(t *testing.T) {
	svc, _ := newTestScriptService(t)
	ctx := context.Background()

	_, err := svc.CreateScript(ctx, models.CreateScriptRequest{Title: "ab"})
	require.True(t, apperrors.IsValidationError(err))
	require.Equal(t, "Title must be at least 3 characters", messagesByField(t, err)["title"])

	// Whitespace does not count towards the minimum.
	_, err = svc.CreateScript(ctx, models.CreateScriptRequest{Title: "  ab  "})
	require.True(t, apperrors.IsValidationError(err))

	// Length is measured in characters, not bytes.
	script, err := svc.CreateScript(ctx, models.CreateScriptRequest{Title: "Ayş", Description: strPtr("  ")})
	require.NoError(t, err)
	require.Equal(t, "Ayş", script.Title)
	require.Nil(t, script.Description)
}

func TestGetScriptNotFound(t *testing.T) {
	svc, _ := newTestScriptService(t)

	_, err := svc.GetScript(context.Background(), 9999)
	require.True(t, apperrors.IsNotFoundError(err))

	_, err = svc.GetScript(context.Background(), 0)
	require.True(t, apperrors.IsNotFoundError(err))
}

func TestListScriptsEmpty(t *testing.T) {
	svc, _ := newTestScriptService(t)
	list, err := svc.ListScripts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestAddCharacter(t *testing.T) {
	svc, _ := newTestScriptService(t)
	ctx := context.Background()

	_, err := svc.AddCharacter(ctx, 77, models.CreateCharacterRequest{Name: "Romeo"})
	require.True(t, apperrors.IsNotFoundError(err))

	script, err := svc.CreateScript(ctx, models.CreateScriptRequest{Title: "Verona"})
	require.NoError(t, err)

	_, err = svc.AddCharacter(ctx, script.ID, models.CreateCharacterRequest{Name: "R"})
	require.True(t, apperrors.IsValidationError(err))
	require.Equal(t, "Character name must be at least 2 characters", messagesByField(t, err)["name"])

	c, err := svc.AddCharacter(ctx, script.ID, models.CreateCharacterRequest{Name: " Romeo "})
	require.NoError(t, err)
	require.Equal(t, "Romeo", c.Name)
	require.Equal(t, script.ID, c.ScriptID)
}

func TestAddDialogue(t *testing.T) {
	svc, _ := newTestScriptService(t)
	ctx := context.Background()

	script, err := svc.CreateScript(ctx, models.CreateScriptRequest{Title: "Verona"})
	require.NoError(t, err)
	romeo, err := svc.AddCharacter(ctx, script.ID, models.CreateCharacterRequest{Name: "Romeo"})
	require.NoError(t, err)

	_, err = svc.AddDialogue(ctx, script.ID, models.CreateDialogueRequest{CharacterID: romeo.ID, Content: "   "})
	require.True(t, apperrors.IsValidationError(err))
	require.Equal(t, "Dialogue content cannot be empty", messagesByField(t, err)["content"])

	_, err = svc.AddDialogue(ctx, script.ID, models.CreateDialogueRequest{Content: "Hello"})
	require.True(t, apperrors.IsValidationError(err))
	require.Contains(t, messagesByField(t, err), "characterId")

	_, err = svc.AddDialogue(ctx, 999, models.CreateDialogueRequest{CharacterID: romeo.ID, Content: "Hello"})
	require.True(t, apperrors.IsNotFoundError(err))

	_, err = svc.AddDialogue(ctx, script.ID, models.CreateDialogueRequest{CharacterID: 999, Content: "Hello"})
	require.True(t, apperrors.IsNotFoundError(err))

	for want := 1; want <= 3; want++ {
		d, err := svc.AddDialogue(ctx, script.ID, models.CreateDialogueRequest{CharacterID: romeo.ID, Content: "Line"})
		require.NoError(t, err)
		require.Equal(t, want, d.LineNumber)
	}
}

func TestUpdateDialogue(t *testing.T) {
	svc, _ := newTestScriptService(t)
	ctx := context.Background()

	script, err := svc.CreateScript(ctx, models.CreateScriptRequest{Title: "Verona"})
	require.NoError(t, err)
	romeo, err := svc.AddCharacter(ctx, script.ID, models.CreateCharacterRequest{Name: "Romeo"})
	require.NoError(t, err)
	d, err := svc.AddDialogue(ctx, script.ID, models.CreateDialogueRequest{
		CharacterID: romeo.ID, Content: "Hello", AudioPath: strPtr("/audio/romeo1.mp3"),
	})
	require.NoError(t, err)

	_, err = svc.UpdateDialogue(ctx, d.ID, models.UpdateDialogueRequest{Content: strPtr(" ")})
	require.True(t, apperrors.IsValidationError(err))

	updated, err := svc.UpdateDialogue(ctx, d.ID, models.UpdateDialogueRequest{Content: strPtr("Goodbye")})
	require.NoError(t, err)
	require.Equal(t, "Goodbye", updated.Content)
	require.Equal(t, "/audio/romeo1.mp3", updated.Audio())

	cleared, err := svc.UpdateDialogue(ctx, d.ID, models.UpdateDialogueRequest{AudioPath: strPtr("")})
	require.NoError(t, err)
	require.Nil(t, cleared.AudioPath)

	_, err = svc.UpdateDialogue(ctx, 12345, models.UpdateDialogueRequest{Content: strPtr("x")})
	require.True(t, apperrors.IsNotFoundError(err))

	got, err := svc.GetDialogue(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "Romeo", got.Character.Name)
}

func TestStoreFailureIsProcessingError(t *testing.T) {
	svc, store := newTestScriptService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ListScripts(ctx)
	require.Error(t, err)
	require.Equal(t, apperrors.ErrorTypeError, apperrors.TypeOf(err))

	_, err = store.CountScripts(context.Background())
	require.NoError(t, err)
}
