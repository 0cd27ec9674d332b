// Package export packages generated training items for TTS model training.
//
// Two manifest layouts are produced:
//
//	sentence|1.wav          bundle manifest, audio renamed and numbered from 1
//	/data/out/su/a.wav|Su   full export manifest, audio referenced in place
//
// Fields are escaped so that a '|' or a line break inside a sentence cannot
// split a record. ParseManifestLine reverses the escaping.
package export

import (
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
	"github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/runtime/persistence"
)

const (
	component = "export"

	// Delimiter separates the fields of a manifest record.
	Delimiter = '|'

	// ManifestName is the manifest file inside a bundle.
	ManifestName = "metadata.csv"

	escapeChar = '\\'
)

var fieldEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	"\r\n", " ",
	"\r", " ",
	"\n", " ",
)

// EscapeField escapes the delimiter and backslashes in s and collapses line
// breaks to spaces.
func EscapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// FormatRecord joins escaped fields with the delimiter.
func FormatRecord(fields ...string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = EscapeField(f)
	}
	return strings.Join(escaped, string(Delimiter))
}

// ParseManifestLine splits a manifest record into unescaped fields.
func ParseManifestLine(line string) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	var (
		fields []string
		cur    strings.Builder
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch c {
		case escapeChar:
			if i+1 >= len(line) {
				return nil, pkgerrors.New(component, "ParseManifestLine",
					fmt.Errorf("dangling escape at end of %q", line)).WithKind(pkgerrors.KindParse)
			}
			i++
			cur.WriteByte(line[i])
		case Delimiter:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String()), nil
}

// Entry pairs an item with its file name inside a bundle.
type Entry struct {
	Item     persistence.TrainingItem
	Filename string
}

// Manifest is a numbered bundle listing.
type Manifest struct {
	Entries []Entry
	Lines   []string
}

// BuildManifest numbers items from start in iteration order and renders one
// "sentence|N.wav" line per item.
func BuildManifest(items []persistence.TrainingItem, start int) Manifest {
	m := Manifest{
		Entries: make([]Entry, 0, len(items)),
		Lines:   make([]string, 0, len(items)),
	}
	for i, item := range items {
		name := strconv.Itoa(start+i) + ".wav"
		m.Entries = append(m.Entries, Entry{Item: item, Filename: name})
		m.Lines = append(m.Lines, FormatRecord(strings.TrimSpace(item.Sentence), name))
	}
	return m
}

// Len returns the number of entries.
func (m Manifest) Len() int {
	return len(m.Entries)
}

// Append adds the entries and lines of other.
func (m *Manifest) Append(other Manifest) {
	m.Entries = append(m.Entries, other.Entries...)
	m.Lines = append(m.Lines, other.Lines...)
}

// Bytes renders the manifest with one newline-terminated record per line.
func (m Manifest) Bytes() []byte {
	if len(m.Lines) == 0 {
		return nil
	}
	return []byte(strings.Join(m.Lines, "\n") + "\n")
}
