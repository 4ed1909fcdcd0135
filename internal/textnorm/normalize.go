// Package textnorm canonicalizes raw token names and symbols for comparison.
// Every function is pure and total: malformed or empty input yields empty or
// minimal output, never an error.
package textnorm

import "strings"

// leetTable maps leet-speak characters to their alphabetic equivalents.
// Unmapped characters pass through unchanged.
var leetTable = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
	'@': 'a',
	'$': 's',
	'!': 'i',
}

// Normalize lowercases s and strips every character outside [a-z0-9].
// Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Derepeat collapses any run of 3+ identical characters down to exactly two.
// "peeeepe" becomes "peepe", not "pepe": downstream comparisons were tuned
// against the collapse-to-two output, so the remaining double letter is left
// for edit-distance methods to absorb.
func Derepeat(s string) string {
	runes := []rune(s)
	var sb strings.Builder
	sb.Grow(len(s))
	runLen := 0
	for i, r := range runes {
		if i > 0 && r == runes[i-1] {
			runLen++
		} else {
			runLen = 1
		}
		if runLen <= 2 {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// Deleet substitutes leet-speak characters using a fixed table:
// 0→o 1→i 3→e 4→a 5→s 7→t 8→b @→a $→s !→i.
func Deleet(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if mapped, ok := leetTable[r]; ok {
			sb.WriteRune(mapped)
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SplitCompound splits camel-case and separator-delimited text into lowercase
// word tokens: "BabyPepeKing" yields ["baby", "pepe", "king"].
func SplitCompound(s string) []string {
	var words []string
	var sb strings.Builder

	flush := func() {
		if sb.Len() > 0 {
			words = append(words, strings.ToLower(sb.String()))
			sb.Reset()
		}
	}

	var prev rune
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			// Camel-case boundary: lowercase followed by uppercase
			if prev >= 'a' && prev <= 'z' {
				flush()
			}
			sb.WriteRune(r)
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			sb.WriteRune(r)
		default:
			// Separator: space, punctuation, anything non-alphanumeric
			flush()
		}
		prev = r
	}
	flush()

	return words
}

// NGrams returns all contiguous substrings of length n from the normalized
// form of s. Empty when the normalized string is shorter than n or n < 1.
func NGrams(s string, n int) []string {
	norm := Normalize(s)
	if n < 1 || len(norm) < n {
		return nil
	}
	grams := make([]string, 0, len(norm)-n+1)
	for i := 0; i+n <= len(norm); i++ {
		grams = append(grams, norm[i:i+n])
	}
	return grams
}
