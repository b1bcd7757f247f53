// internal/services/script_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Corphon/ScriptRehearsal/internal/errors"
	"github.com/Corphon/ScriptRehearsal/internal/models"
	"github.com/Corphon/ScriptRehearsal/internal/storage"
	"github.com/Corphon/ScriptRehearsal/internal/utils"
)

// ScriptService validates authoring requests and maps storage failures onto
// the application error taxonomy.
type ScriptService struct {
	store    *storage.ScriptStore
	validate *validator.Validate
	logger   *utils.Logger
}

// NewScriptService creates a ScriptService over store.
func NewScriptService(store *storage.ScriptStore, logger *utils.Logger) *ScriptService {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &ScriptService{
		store:    store,
		validate: newValidator(),
		logger:   logger,
	}
}

// ListScripts returns script summaries sorted by title.
func (s *ScriptService) ListScripts(ctx context.Context) ([]models.ScriptSummary, error) {
	scripts, err := s.store.ListScripts(ctx)
	if err != nil {
		return nil, s.mapError(err, "failed to list scripts")
	}
	return scripts, nil
}

// GetScript returns the script with its characters and ordered dialogue.
func (s *ScriptService) GetScript(ctx context.Context, id uint) (*models.Script, error) {
	if id == 0 {
		return nil, apperrors.NewNotFoundError("Script not found", storage.ErrScriptNotFound)
	}
	script, err := s.store.GetScript(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "failed to load script")
	}
	return script, nil
}

// CreateScript validates and stores a new script.
func (s *ScriptService) CreateScript(ctx context.Context, req models.CreateScriptRequest) (*models.Script, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = trimOptional(req.Description)
	if err := validateStruct(s.validate, "Invalid script", &req); err != nil {
		return nil, err
	}

	script := &models.Script{Title: req.Title, Description: req.Description}
	if err := s.store.CreateScript(ctx, script); err != nil {
		return nil, s.mapError(err, "failed to create script")
	}
	s.logger.Info("script created", map[string]interface{}{"script_id": script.ID, "title": script.Title})
	return script, nil
}

// AddCharacter validates and stores a character for an existing script.
func (s *ScriptService) AddCharacter(ctx context.Context, scriptID uint, req models.CreateCharacterRequest) (*models.Character, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = trimOptional(req.Description)
	if err := validateStruct(s.validate, "Invalid character", &req); err != nil {
		return nil, err
	}
	if scriptID == 0 {
		return nil, apperrors.NewNotFoundError("Script not found", storage.ErrScriptNotFound)
	}

	character := &models.Character{ScriptID: scriptID, Name: req.Name, Description: req.Description}
	if err := s.store.CreateCharacter(ctx, character); err != nil {
		return nil, s.mapError(err, "failed to create character")
	}
	s.logger.Info("character created", map[string]interface{}{"script_id": scriptID, "character_id": character.ID})
	return character, nil
}

// AddDialogue validates and appends a dialogue line; its line number is one
// past the script's current last line.
func (s *ScriptService) AddDialogue(ctx context.Context, scriptID uint, req models.CreateDialogueRequest) (*models.Dialogue, error) {
	req.Content = strings.TrimSpace(req.Content)
	req.AudioPath = trimOptional(req.AudioPath)
	if err := validateStruct(s.validate, "Invalid dialogue", &req); err != nil {
		return nil, err
	}
	if scriptID == 0 {
		return nil, apperrors.NewNotFoundError("Script not found", storage.ErrScriptNotFound)
	}

	dialogue := &models.Dialogue{
		ScriptID:    scriptID,
		CharacterID: req.CharacterID,
		Content:     req.Content,
		AudioPath:   req.AudioPath,
	}
	if err := s.store.CreateDialogue(ctx, dialogue); err != nil {
		return nil, s.mapError(err, "failed to create dialogue")
	}
	s.logger.Info("dialogue created", map[string]interface{}{
		"script_id":   scriptID,
		"dialogue_id": dialogue.ID,
		"line_number": dialogue.LineNumber,
	})
	return dialogue, nil
}

// GetDialogue returns one dialogue line.
func (s *ScriptService) GetDialogue(ctx context.Context, id uint) (*models.Dialogue, error) {
	if id == 0 {
		return nil, apperrors.NewNotFoundError("Dialogue not found", storage.ErrDialogueNotFound)
	}
	dialogue, err := s.store.GetDialogue(ctx, id)
	if err != nil {
		return nil, s.mapError(err, "failed to load dialogue")
	}
	return dialogue, nil
}

// UpdateDialogue edits a line's content and audio reference in place.
func (s *ScriptService) UpdateDialogue(ctx context.Context, id uint, req models.UpdateDialogueRequest) (*models.Dialogue, error) {
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		check := struct {
			Content string `json:"content" validate:"min=1"`
		}{Content: content}
		if err := validateStruct(s.validate, "Invalid dialogue", &check); err != nil {
			return nil, err
		}
		req.Content = &content
	}
	if req.AudioPath != nil {
		audio := strings.TrimSpace(*req.AudioPath)
		req.AudioPath = &audio
	}
	if id == 0 {
		return nil, apperrors.NewNotFoundError("Dialogue not found", storage.ErrDialogueNotFound)
	}

	dialogue, err := s.store.UpdateDialogue(ctx, id, req.Content, req.AudioPath)
	if err != nil {
		return nil, s.mapError(err, "failed to update dialogue")
	}
	s.logger.Info("dialogue updated", map[string]interface{}{"dialogue_id": id})
	return dialogue, nil
}

func (s *ScriptService) mapError(err error, message string) error {
	switch {
	case errors.Is(err, storage.ErrScriptNotFound):
		return apperrors.NewNotFoundError("Script not found", err)
	case errors.Is(err, storage.ErrCharacterNotFound):
		return apperrors.NewNotFoundError("Character not found in this script", err)
	case errors.Is(err, storage.ErrDialogueNotFound):
		return apperrors.NewNotFoundError("Dialogue not found", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewProcessingError("request cancelled", err)
	}
	s.logger.Error(message, map[string]interface{}{"error": err.Error()})
	return apperrors.NewProcessingError(message, fmt.Errorf("store: %w", err))
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
