package phonetic

import "strings"

// Metaphone returns a simplified metaphone code for s. The transform is
// intentionally lossy and does not match canonical Metaphone; it only needs
// to be stable so that equal codes mean "sounds alike" for short token
// symbols. Codes are truncated to 4 characters.
func Metaphone(s string) string {
	word := lettersOnly(s)
	if word == "" {
		return ""
	}

	// Silent head patterns lose their first letter
	for _, head := range []string{"kn", "gn", "pn", "ae", "wr"} {
		if strings.HasPrefix(word, head) {
			word = word[1:]
			break
		}
	}

	// Trailing mb loses the b
	if strings.HasSuffix(word, "mb") {
		word = word[:len(word)-1]
	}

	word = strings.ReplaceAll(word, "sch", "sk")
	word = strings.ReplaceAll(word, "ck", "k")
	word = strings.ReplaceAll(word, "ph", "f")
	word = strings.ReplaceAll(word, "gh", "")
	word = strings.ReplaceAll(word, "x", "ks")

	// Drop vowels, collapse consecutive duplicates
	var sb strings.Builder
	var last rune
	for _, r := range word {
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			continue
		}
		if r != last {
			sb.WriteRune(r)
			last = r
		}
	}

	code := sb.String()
	if len(code) > 4 {
		code = code[:4]
	}
	return code
}
