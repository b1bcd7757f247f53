// internal/models/script.go
package models

import (
	"time"
)

// Script is a multi-speaker scene that can be rehearsed.
type Script struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"not null"`
	Description *string     `json:"description"`
	CreatedAt   time.Time   `json:"createdAt" gorm:"not null;autoCreateTime"`
	Characters  []Character `json:"characters" gorm:"constraint:OnDelete:CASCADE"`
	Dialogues   []Dialogue  `json:"dialogues" gorm:"constraint:OnDelete:CASCADE"`
}

// ScriptSummary is the list view of a script.
type ScriptSummary struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Summary returns the list view of s.
func (s *Script) Summary() ScriptSummary {
	return ScriptSummary{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
	}
}

// Dialogue is one line of a script, spoken by one character.
type Dialogue struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	ScriptID    uint       `json:"scriptId" gorm:"not null;uniqueIndex:idx_dialogues_script_line"`
	CharacterID uint       `json:"characterId" gorm:"not null;index"`
	LineNumber  int        `json:"lineNumber" gorm:"not null;uniqueIndex:idx_dialogues_script_line"`
	Content     string     `json:"content" gorm:"not null"`
	AudioPath   *string    `json:"audioPath"`
	Character   *Character `json:"character,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// Audio returns the audio reference or "" when none is attached.
func (d *Dialogue) Audio() string {
	if d.AudioPath == nil {
		return ""
	}
	return *d.AudioPath
}

// CreateScriptRequest is the body of POST /api/scripts.
type CreateScriptRequest struct {
	Title       string  `json:"title" validate:"min=3"`
	Description *string `json:"description"`
}

// CreateCharacterRequest is the body of POST /api/scripts/:id/characters.
type CreateCharacterRequest struct {
	Name        string  `json:"name" validate:"min=2"`
	Description *string `json:"description"`
}

// CreateDialogueRequest is the body of POST /api/scripts/:id/dialogues.
type CreateDialogueRequest struct {
	CharacterID uint    `json:"characterId" validate:"required"`
	Content     string  `json:"content" validate:"min=1"`
	AudioPath   *string `json:"audioPath"`
}

// UpdateDialogueRequest is the body of PATCH /api/dialogues/:id. Nil fields
// are left unchanged; an empty AudioPath clears the reference.
type UpdateDialogueRequest struct {
	Content   *string `json:"content"`
	AudioPath *string `json:"audioPath"`
}
