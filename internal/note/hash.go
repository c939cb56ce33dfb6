// Package note derives stable identifiers for parsed notes. A note's id is
// the SHA-256 of its normalized content, so renaming or moving the source
// file never loses scheduling history, while editing the content does.
package note

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/studydeck/internal/domain"
)

// Normalize concatenates the note's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(n domain.Note) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	title := normalizePart(n.Title)
	front := normalizePart(n.FrontText)
	back := normalizePart(n.BackText)

	// We join with a newline to ensure separation between fields,
	// preventing accidental joining of words. e.g. "front" and "back"
	// becoming "frontback".
	return strings.Join([]string{title, front, back}, "\n")
}

// Hash takes a note, normalizes it, and returns its SHA-256 hash as a hex string.
func Hash(n domain.Note) string {
	normalized := Normalize(n)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}

// CardID names the ordinal-th sibling card of a note.
func CardID(noteID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", noteID, ordinal)
}
