// Package themes holds the curated narrative theme dictionary used to link
// tokens that share a cultural reference without sharing substrings.
package themes

import (
	"sort"
	"strings"

	"solana-derivative-lab/internal/textnorm"
)

// Dictionary maps a theme key to its ordered keyword list. The first keyword
// in each list is the canonical term for the theme: theme matching only
// counts a runner as the "main token" of a theme when its own text contains
// that canonical term.
type Dictionary map[string][]string

// defaultDict is the process-wide immutable theme table. Never mutated at
// runtime; tests inject their own Dictionary instead.
var defaultDict = Dictionary{
	"pepe":     {"pepe", "frog", "kek", "apu", "groyper", "ribbit", "toad"},
	"doge":     {"doge", "shiba", "shib", "kabosu", "suchwow"},
	"inu":      {"inu", "puppy", "woof", "pup"},
	"cat":      {"cat", "kitty", "kitten", "meow", "popcat"},
	"trump":    {"trump", "donald", "maga", "potus", "melania"},
	"elon":     {"elon", "musk", "tesla", "spacex", "grok"},
	"ai":       {"ai", "gpt", "agent", "neural", "sentient"},
	"moon":     {"moon", "lunar", "luna", "moonshot"},
	"wojak":    {"wojak", "chad", "doomer", "bobo", "mumu"},
	"bonk":     {"bonk", "bat"},
	"wif":      {"wif", "dogwifhat", "hat"},
	"hamster":  {"hamster", "hammy"},
	"bear":     {"bear", "bera", "grizzly"},
	"bull":     {"bull", "horns", "toro"},
	"pnut":     {"pnut", "squirrel", "peanut"},
	"moodeng":  {"moodeng", "hippo"},
	"politics": {"biden", "kamala", "obama", "congress"},
	"goat":     {"goat", "goatseus", "billy"},
	"penguin":  {"pengu", "penguin", "pudgy"},
	"sloth":    {"slerf", "sloth"},
	"duck":     {"duck", "quack"},
	"ape":      {"ape", "monkey", "gorilla", "kong"},
	"rocket":   {"rocket", "launch", "blastoff"},
	"king":     {"king", "crown", "royal"},
	"food":     {"burger", "pizza", "taco", "nugget"},
}

// Default returns the built-in theme dictionary.
func Default() Dictionary {
	return defaultDict
}

// Themes returns every theme whose keyword list has at least one substring
// match in the lowercased, punctuation-stripped text. Keys are returned in
// sorted order for determinism.
func (d Dictionary) Themes(text string) []string {
	norm := textnorm.Normalize(text)
	if norm == "" {
		return nil
	}

	var matched []string
	for theme, keywords := range d {
		for _, kw := range keywords {
			if strings.Contains(norm, kw) {
				matched = append(matched, theme)
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

// Canonical returns the canonical (first) keyword for a theme, or "" when
// the theme is unknown or empty.
func (d Dictionary) Canonical(theme string) string {
	keywords := d[theme]
	if len(keywords) == 0 {
		return ""
	}
	return keywords[0]
}
