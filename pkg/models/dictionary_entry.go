package models

import "strings"

// DictionaryEntry is a cached word definition shared between all users.
// Entries are written once by the lookup pipeline and never mutated.
type DictionaryEntry struct {
	Word           string `json:"word" db:"word"` // Normalized lookup key (lower-cased, trimmed)
	Definition     string `json:"definition" db:"definition"`
	Example        string `json:"example" db:"example"`
	Pronunciation  string `json:"pronunciation" db:"pronunciation"` // IPA transcription
	Level          string `json:"level" db:"level"`                 // CEFR level (B1-C2)
	ImportanceRate string `json:"importance_rate" db:"importance_rate"`
	Synonyms       string `json:"synonyms" db:"synonyms"` // Comma-separated
}

// NormalizeWord converts raw user input into the dictionary lookup key
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
