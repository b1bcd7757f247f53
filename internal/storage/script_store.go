// internal/storage/script_store.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Corphon/ScriptRehearsal/internal/models"
)

var (
	ErrScriptNotFound    = errors.New("script not found")
	ErrCharacterNotFound = errors.New("character not found in script")
	ErrDialogueNotFound  = errors.New("dialogue not found")
)

// ScriptStore persists scripts, characters and dialogue lines.
type ScriptStore struct {
	db *gorm.DB
}

// NewScriptStore wraps an open database.
func NewScriptStore(db *gorm.DB) *ScriptStore {
	return &ScriptStore{db: db}
}

// Migrate creates or updates the schema.
func (s *ScriptStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.Script{}, &models.Character{}, &models.Dialogue{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// CountScripts returns the number of stored scripts.
func (s *ScriptStore) CountScripts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Script{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count scripts: %w", err)
	}
	return n, nil
}

// ListScripts returns all scripts ordered by title.
func (s *ScriptStore) ListScripts(ctx context.Context) ([]models.ScriptSummary, error) {
	var scripts []models.Script
	if err := s.db.WithContext(ctx).Order("title").Order("id").Find(&scripts).Error; err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}

	summaries := make([]models.ScriptSummary, 0, len(scripts))
	for i := range scripts {
		summaries = append(summaries, scripts[i].Summary())
	}
	return summaries, nil
}

// GetScript loads a script with its characters and its dialogue lines in line
// order, each line carrying its character.
func (s *ScriptStore) GetScript(ctx context.Context, id uint) (*models.Script, error) {
	var script models.Script
	err := s.db.WithContext(ctx).
		Preload("Characters", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Dialogues", func(db *gorm.DB) *gorm.DB { return db.Order("line_number") }).
		Preload("Dialogues.Character").
		First(&script, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScriptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get script %d: %w", id, err)
	}
	normalize(&script)
	return &script, nil
}

// CreateScript inserts script and fills in its ID and timestamp.
func (s *ScriptStore) CreateScript(ctx context.Context, script *models.Script) error {
	if err := s.db.WithContext(ctx).Omit("Characters", "Dialogues").Create(script).Error; err != nil {
		return fmt.Errorf("insert script: %w", err)
	}
	normalize(script)
	return nil
}

// CreateCharacter inserts character into its script.
func (s *ScriptStore) CreateCharacter(ctx context.Context, character *models.Character) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scriptExists(tx, character.ScriptID); err != nil {
			return err
		}
		if err := tx.Create(character).Error; err != nil {
			return fmt.Errorf("insert character: %w", err)
		}
		return nil
	})
}

// CreateDialogue appends dialogue to its script. The line number is assigned
// as the script's current maximum plus one inside the same transaction.
func (s *ScriptStore) CreateDialogue(ctx context.Context, dialogue *models.Dialogue) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scriptExists(tx, dialogue.ScriptID); err != nil {
			return err
		}

		var character models.Character
		err := tx.Where("id = ? AND script_id = ?", dialogue.CharacterID, dialogue.ScriptID).First(&character).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCharacterNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup character %d: %w", dialogue.CharacterID, err)
		}

		var maxLine int
		row := tx.Model(&models.Dialogue{}).
			Where("script_id = ?", dialogue.ScriptID).
			Select("COALESCE(MAX(line_number), 0)").
			Row()
		if err := row.Scan(&maxLine); err != nil {
			return fmt.Errorf("next line number: %w", err)
		}

		dialogue.LineNumber = maxLine + 1
		dialogue.Character = nil
		if err := tx.Create(dialogue).Error; err != nil {
			return fmt.Errorf("insert dialogue: %w", err)
		}
		dialogue.Character = &character
		return nil
	})
}

// GetDialogue loads one dialogue line with its character.
func (s *ScriptStore) GetDialogue(ctx context.Context, id uint) (*models.Dialogue, error) {
	var dialogue models.Dialogue
	err := s.db.WithContext(ctx).Preload("Character").First(&dialogue, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDialogueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dialogue %d: %w", id, err)
	}
	return &dialogue, nil
}

// UpdateDialogue applies content and audio changes to a dialogue line. A nil
// argument leaves the column untouched; an empty audioPath clears it.
func (s *ScriptStore) UpdateDialogue(ctx context.Context, id uint, content, audioPath *string) (*models.Dialogue, error) {
	updates := map[string]interface{}{}
	if content != nil {
		updates["content"] = *content
	}
	if audioPath != nil {
		if *audioPath == "" {
			updates["audio_path"] = nil
		} else {
			updates["audio_path"] = *audioPath
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Dialogue
		err := tx.First(&existing, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDialogueNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup dialogue %d: %w", id, err)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("update dialogue %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetDialogue(ctx, id)
}

func scriptExists(tx *gorm.DB, id uint) error {
	var n int64
	if err := tx.Model(&models.Script{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return fmt.Errorf("lookup script %d: %w", id, err)
	}
	if n == 0 {
		return ErrScriptNotFound
	}
	return nil
}

// normalize replaces nil slices so the JSON shape always has arrays.
func normalize(script *models.Script) {
	if script.Characters == nil {
		script.Characters = []models.Character{}
	}
	if script.Dialogues == nil {
		script.Dialogues = []models.Dialogue{}
	}
}
