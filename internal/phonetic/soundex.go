// Package phonetic provides sound-alike codings for token names: standard
// Soundex and a simplified Metaphone transform. Both are deterministic and
// stable; neither attempts to be a faithful linguistic model.
package phonetic

import "strings"

// Soundex returns the standard 4-character Soundex code for s: first letter
// retained, subsequent letters mapped to digit groups, consecutive duplicate
// codes collapsed, padded or truncated to length 4. Returns "" when s has no
// letters.
func Soundex(s string) string {
	letters := lettersOnly(s)
	if letters == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteByte(letters[0])

	lastCode := soundexCode(letters[0])
	for i := 1; i < len(letters) && sb.Len() < 4; i++ {
		code := soundexCode(letters[i])
		if code != '0' && code != lastCode {
			sb.WriteByte(code)
		}
		lastCode = code
	}

	result := sb.String()
	for len(result) < 4 {
		result += "0"
	}
	return result
}

// soundexCode maps a letter to its Soundex digit group.
// Vowels and h/w/y return '0' (skipped).
func soundexCode(c byte) byte {
	switch c {
	case 'b', 'f', 'p', 'v':
		return '1'
	case 'c', 'g', 'j', 'k', 'q', 's', 'x', 'z':
		return '2'
	case 'd', 't':
		return '3'
	case 'l':
		return '4'
	case 'm', 'n':
		return '5'
	case 'r':
		return '6'
	default:
		return '0'
	}
}

// lettersOnly lowercases s and strips everything outside [a-z].
func lettersOnly(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
