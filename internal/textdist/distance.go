// Package textdist provides string-distance utilities for derivative
// detection: edit distance, common-substring length, n-gram overlap, and
// anagram/reversal checks. All functions are pure.
package textdist

import (
	"sort"

	"github.com/hbollon/go-edlib"

	"solana-derivative-lab/internal/textnorm"
)

// Levenshtein returns the classic unit-cost edit distance between a and b.
// Symmetric; Levenshtein(a, a) == 0.
func Levenshtein(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}

// LongestCommonSubstring returns the length of the longest contiguous run
// common to a and b.
func LongestCommonSubstring(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Single-row DP over bytes; inputs are normalized ASCII in practice.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	best := 0

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > best {
					best = curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return best
}

// NGramOverlap returns the size of the intersection of the two strings'
// n-gram sets divided by the size of the larger set. The denominator is the
// max of the two set sizes, not their union. Returns 0 when either string
// produces no n-grams.
func NGramOverlap(a, b string, n int) float64 {
	gramsA := textnorm.NGrams(a, n)
	gramsB := textnorm.NGrams(b, n)
	if len(gramsA) == 0 || len(gramsB) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(gramsA))
	for _, g := range gramsA {
		setA[g] = struct{}{}
	}
	setB := make(map[string]struct{}, len(gramsB))
	for _, g := range gramsB {
		setB[g] = struct{}{}
	}

	shared := 0
	for g := range setA {
		if _, ok := setB[g]; ok {
			shared++
		}
	}

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}

	return float64(shared) / float64(larger)
}

// IsAnagram reports whether a and b contain the same character multiset
// while differing as strings.
func IsAnagram(a, b string) bool {
	if a == b || len(a) != len(b) {
		return false
	}
	sortedA := sortChars(a)
	sortedB := sortChars(b)
	return sortedA == sortedB
}

// IsReverse reports whether a read backwards equals b.
func IsReverse(a, b string) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	runes := []rune(a)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes) == b
}

func sortChars(s string) string {
	chars := []byte(s)
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return string(chars)
}
