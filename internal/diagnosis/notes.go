package diagnosis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/symptom-checker/backend/pkg/apperr"
)

// NormalizeNotes trims surrounding whitespace and otherwise keeps the note
// exactly as typed. Notes longer than maxRunes are rejected; 0 disables the
// limit.
func NormalizeNotes(raw string, maxRunes int) (string, error) {
	notes := strings.TrimSpace(raw)
	if maxRunes > 0 && utf8.RuneCountInString(notes) > maxRunes {
		return "", apperr.Validation("diagnosis.build",
			fmt.Sprintf("Additional information must be at most %d characters", maxRunes))
	}
	return notes, nil
}
