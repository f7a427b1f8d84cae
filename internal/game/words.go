// internal/game/words.go
package game

import "strings"

// normalizeWords trims, uppercases, and drops empty entries.
func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// defaultWordList backs rooms created without a client-supplied word list.
func defaultWordList() []string {
	return []string{"GLADIATOR", "ARENA", "TROPHY", "SHIELD", "VICTORY"}
}

// maskWord renders an unrevealed word: one placeholder per letter, spaces between.
func maskWord(word string) string {
	runes := []rune(word)
	parts := make([]string, len(runes))
	for i := range runes {
		parts[i] = "_"
	}
	return strings.Join(parts, " ")
}

// revealMask renders word with every guessed letter shown and the rest masked.
func revealMask(word string, guessed []string) string {
	runes := []rune(word)
	parts := make([]string, len(runes))
	for i, ch := range runes {
		if containsLetter(guessed, string(ch)) {
			parts[i] = string(ch)
		} else {
			parts[i] = "_"
		}
	}
	return strings.Join(parts, " ")
}

// revealWord renders the fully disclosed word in mask format.
func revealWord(word string) string {
	runes := []rune(word)
	parts := make([]string, len(runes))
	for i, ch := range runes {
		parts[i] = string(ch)
	}
	return strings.Join(parts, " ")
}

// maskComplete reports whether every letter of word has been guessed.
func maskComplete(word string, guessed []string) bool {
	for _, ch := range word {
		if !containsLetter(guessed, string(ch)) {
			return false
		}
	}
	return true
}

func containsLetter(letters []string, letter string) bool {
	for _, l := range letters {
		if l == letter {
			return true
		}
	}
	return false
}
