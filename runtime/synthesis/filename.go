package synthesis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	slugWords     = 4
	slugMaxRunes  = 30
	slugFallback  = "audio"
	timestampForm = "20060102_150405"
)

// SanitizeFilename builds a file-safe slug from the first four words of text.
// Only letters, digits, '_' and '-' survive; the result is at most 30 runes.
func SanitizeFilename(text string) string {
	words := strings.Fields(text)
	if len(words) > slugWords {
		words = words[:slugWords]
	}

	var b strings.Builder
	n := 0
	for _, r := range strings.Join(words, "_") {
		if n >= slugMaxRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
			n++
		}
	}
	if b.Len() == 0 {
		return slugFallback
	}
	return b.String()
}

// TrainingFilename returns train_<YYYYMMDD_HHMMSS>_<slug>.wav.
func TrainingFilename(text string, now time.Time) string {
	return fmt.Sprintf("train_%s_%s.wav", now.Format(timestampForm), SanitizeFilename(text))
}

// WordDir returns the folder holding the audio of word: root joined with the
// lower-cased word. Path separators in the word are replaced.
func WordDir(root, word string) string {
	name := strings.ToLower(strings.TrimSpace(word))
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return filepath.Join(root, name)
}

// uniquePath returns path, or path with a numeric suffix before the extension
// when a file of that name already exists.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
