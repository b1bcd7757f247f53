// internal/models/character.go
package models

// Character is a speaking role within a script.
type Character struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	ScriptID    uint    `json:"scriptId" gorm:"not null;index"`
	Name        string  `json:"name" gorm:"not null"`
	Description *string `json:"description"`
}
