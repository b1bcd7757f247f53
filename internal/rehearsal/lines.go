package rehearsal

import (
	"sort"

	"github.com/Corphon/ScriptRehearsal/internal/models"
)

// FromScript converts a stored script into playback order. Speakers are
// resolved from each dialogue's character, falling back to the script's
// character list.
func FromScript(script *models.Script) []Line {
	if script == nil || len(script.Dialogues) == 0 {
		return nil
	}

	names := make(map[uint]string, len(script.Characters))
	for _, c := range script.Characters {
		names[c.ID] = c.Name
	}

	dialogues := append([]models.Dialogue(nil), script.Dialogues...)
	sort.SliceStable(dialogues, func(i, j int) bool {
		return dialogues[i].LineNumber < dialogues[j].LineNumber
	})

	lines := make([]Line, 0, len(dialogues))
	for i := range dialogues {
		d := &dialogues[i]
		speaker := names[d.CharacterID]
		if d.Character != nil {
			speaker = d.Character.Name
		}
		lines = append(lines, Line{
			ID:      d.ID,
			Speaker: speaker,
			Content: d.Content,
			Audio:   d.Audio(),
		})
	}
	return lines
}

// DefaultRole is the first character's name, or "" for a script without
// characters.
func DefaultRole(script *models.Script) string {
	if script == nil || len(script.Characters) == 0 {
		return ""
	}
	return script.Characters[0].Name
}

// Speakers lists the distinct speakers of lines in first-appearance order.
func Speakers(lines []Line) []string {
	seen := make(map[string]bool, len(lines))
	var out []string
	for _, l := range lines {
		if !seen[l.Speaker] {
			seen[l.Speaker] = true
			out = append(out, l.Speaker)
		}
	}
	return out
}
