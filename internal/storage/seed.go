// internal/storage/seed.go
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
	"gorm.io/gorm"

	"github.com/Corphon/ScriptRehearsal/internal/models"
)

type seedLine struct {
	speaker string
	content string
	audio   string
}

type seedCharacter struct {
	name        string
	description string
}

type seedScript struct {
	title       string
	description string
	characters  []seedCharacter
	lines       []seedLine
}

var sampleScripts = []seedScript{
	{
		title:       "Romeo and Juliet Scene",
		description: "A famous scene from Shakespeare's Romeo and Juliet",
		characters: []seedCharacter{
			{"Romeo", "Young man from the Montague family"},
			{"Juliet", "Young woman from the Capulet family"},
		},
		lines: []seedLine{
			{"Romeo", "But, soft! what light through yonder window breaks? It is the east, and Juliet is the sun.", "/audio/romeo1.mp3"},
			{"Juliet", "O Romeo, Romeo! wherefore art thou Romeo? Deny thy father and refuse thy name.", "/audio/juliet1.mp3"},
			{"Romeo", "I take thee at thy word: Call me but love, and I'll be new baptized.", "/audio/romeo2.mp3"},
			{"Juliet", "What man art thou that thus bescreen'd in night so stumblest on my counsel?", "/audio/juliet2.mp3"},
		},
	},
	{
		title:       "Coffee Shop Meeting",
		description: "A modern scene in a coffee shop",
		characters: []seedCharacter{
			{"Ali", "A software developer"},
			{"Ayşe", "A graphic designer"},
		},
		lines: []seedLine{
			{"Ali", "Hi there! Is this seat taken?", "/audio/ali1.mp3"},
			{"Ayşe", "No, please feel free to join me. I'm just finishing some design work.", "/audio/ayse1.mp3"},
			{"Ali", "Oh, you're a designer? I'm a developer myself. I've been looking for someone to collaborate with.", "/audio/ali2.mp3"},
			{"Ayşe", "What a coincidence! I've been searching for a developer to work on a project I have in mind.", "/audio/ayse2.mp3"},
		},
	},
}

// Seed inserts the sample scripts when the store holds no scripts at all. It
// reports whether anything was inserted.
func Seed(ctx context.Context, store *ScriptStore) (bool, error) {
	seeded := false
	err := store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Script{}).Count(&n).Error; err != nil {
			return fmt.Errorf("count scripts: %w", err)
		}
		if n > 0 {
			return nil
		}
		for _, sample := range sampleScripts {
			if err := insertSample(tx, sample); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}

// SeedLocked runs Seed while holding an exclusive file lock at lockPath so
// concurrent processes sharing a database do not seed twice.
func SeedLocked(ctx context.Context, store *ScriptStore, lockPath string) (bool, error) {
	lock := flock.New(lockPath)
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return false, fmt.Errorf("acquire seed lock: %w", err)
	}
	if !locked {
		return false, fmt.Errorf("acquire seed lock: %s is held", lockPath)
	}
	defer func() { _ = lock.Unlock() }()

	return Seed(ctx, store)
}

func insertSample(tx *gorm.DB, sample seedScript) error {
	description := sample.description
	script := models.Script{Title: sample.title, Description: &description}
	if err := tx.Omit("Characters", "Dialogues").Create(&script).Error; err != nil {
		return fmt.Errorf("seed script %q: %w", sample.title, err)
	}

	ids := make(map[string]uint, len(sample.characters))
	for _, c := range sample.characters {
		desc := c.description
		character := models.Character{ScriptID: script.ID, Name: c.name, Description: &desc}
		if err := tx.Create(&character).Error; err != nil {
			return fmt.Errorf("seed character %q: %w", c.name, err)
		}
		ids[c.name] = character.ID
	}

	for i, line := range sample.lines {
		audio := line.audio
		dialogue := models.Dialogue{
			ScriptID:    script.ID,
			CharacterID: ids[line.speaker],
			LineNumber:  i + 1,
			Content:     line.content,
			AudioPath:   &audio,
		}
		if err := tx.Create(&dialogue).Error; err != nil {
			return fmt.Errorf("seed line %d of %q: %w", i+1, sample.title, err)
		}
	}
	return nil
}
