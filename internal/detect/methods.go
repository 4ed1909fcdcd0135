package detect

import (
	"fmt"
	"strings"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/phonetic"
	"solana-derivative-lab/internal/textdist"
	"solana-derivative-lab/internal/textnorm"
)

// pair holds one (runner, candidate) comparison with pre-normalized fields,
// computed once per Detect call.
type pair struct {
	runnerName   string
	runnerSymbol string
	tokenName    string
	tokenSymbol  string

	runnerSym      string // normalized runner symbol
	tokenSym       string // normalized candidate symbol
	runnerNameNorm string
	tokenNameNorm  string

	runnerText string // name + symbol + keywords, raw
	tokenText  string
}

func newPair(runner, token domain.TokenDescriptor) pair {
	return pair{
		runnerName:     runner.Name,
		runnerSymbol:   runner.Symbol,
		tokenName:      token.Name,
		tokenSymbol:    token.Symbol,
		runnerSym:      textnorm.Normalize(runner.Symbol),
		tokenSym:       textnorm.Normalize(token.Symbol),
		runnerNameNorm: textnorm.Normalize(runner.Name),
		tokenNameNorm:  textnorm.Normalize(token.Name),
		runnerText:     descriptorText(runner),
		tokenText:      descriptorText(token),
	}
}

func descriptorText(d domain.TokenDescriptor) string {
	parts := append([]string{d.Name, d.Symbol}, d.Keywords...)
	return strings.Join(parts, " ")
}

// symbolsDistinct is the shared trivial-case guard: a method never fires when
// the normalized symbols are identical (a token is not its own derivative) or
// the runner symbol is shorter than the method's minimum meaningful length.
func (p pair) symbolsDistinct(minRunnerLen int) bool {
	return p.runnerSym != p.tokenSym && len(p.runnerSym) >= minRunnerLen
}

func noMatch(method string) domain.DetectionResult {
	return domain.DetectionResult{Method: method}
}

func match(method string, confidence int, explanation string) domain.DetectionResult {
	return domain.DetectionResult{
		Matched:     true,
		Method:      method,
		Confidence:  confidence,
		Explanation: explanation,
	}
}

// detectDirect fires when the runner symbol appears verbatim inside the
// candidate symbol or name.
func (d *Detector) detectDirect(p pair) domain.DetectionResult {
	const method = "direct"
	if !p.symbolsDistinct(3) {
		return noMatch(method)
	}

	if strings.Contains(p.tokenSym, p.runnerSym) {
		return match(method, 98,
			fmt.Sprintf("symbol %q contains runner symbol %q", p.tokenSymbol, p.runnerSymbol))
	}
	if strings.Contains(p.tokenNameNorm, p.runnerSym) {
		return match(method, 95,
			fmt.Sprintf("name %q contains runner symbol %q", p.tokenName, p.runnerSymbol))
	}
	return noMatch(method)
}

// detectPattern fires when the candidate equals a curated prefix+runner or
// runner+suffix form exactly.
func (d *Detector) detectPattern(p pair) domain.DetectionResult {
	const method = "pattern"
	if !p.symbolsDistinct(2) {
		return noMatch(method)
	}

	for _, target := range []string{p.tokenSym, p.tokenNameNorm} {
		if target == "" {
			continue
		}
		for _, prefix := range d.cfg.Prefixes {
			if target == prefix+p.runnerSym {
				return match(method, 94,
					fmt.Sprintf("%q is prefix %q + runner symbol %q", target, prefix, p.runnerSymbol))
			}
		}
		for _, suffix := range d.cfg.Suffixes {
			if target == p.runnerSym+suffix {
				return match(method, 94,
					fmt.Sprintf("%q is runner symbol %q + suffix %q", target, p.runnerSymbol, suffix))
			}
		}
	}
	return noMatch(method)
}

// detectBoundary fires when the runner symbol appears as a whole word in the
// candidate's compound-split name, or the candidate starts or ends with it.
func (d *Detector) detectBoundary(p pair) domain.DetectionResult {
	const method = "boundary"
	if !p.symbolsDistinct(3) {
		return noMatch(method)
	}

	for _, word := range textnorm.SplitCompound(p.tokenName) {
		if word == p.runnerSym {
			return match(method, 92,
				fmt.Sprintf("name %q contains runner symbol %q as a whole word", p.tokenName, p.runnerSymbol))
		}
	}

	for _, target := range []string{p.tokenSym, p.tokenNameNorm} {
		if target == "" || target == p.runnerSym {
			continue
		}
		if strings.HasPrefix(target, p.runnerSym) || strings.HasSuffix(target, p.runnerSym) {
			return match(method, 90,
				fmt.Sprintf("%q starts or ends with runner symbol %q", target, p.runnerSymbol))
		}
	}
	return noMatch(method)
}

// letterSwaps are common sound-preserving spelling transforms.
var letterSwaps = [][2]string{
	{"ph", "f"},
	{"ck", "k"},
	{"c", "k"},
	{"z", "s"},
	{"y", "i"},
	{"w", "v"},
}

// detectMisspelling fires on deliberate small misspellings of the runner
// symbol: a known letter-swap transform or an edit distance of 1-2.
func (d *Detector) detectMisspelling(p pair) domain.DetectionResult {
	const method = "misspelling"
	if !p.symbolsDistinct(3) {
		return noMatch(method)
	}

	lenDiff := len(p.runnerSym) - len(p.tokenSym)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > 2 {
		return noMatch(method)
	}

	for _, swap := range letterSwaps {
		if applySwap(p.runnerSym, swap) == p.tokenSym || applySwap(p.tokenSym, swap) == p.runnerSym {
			return match(method, 90,
				fmt.Sprintf("symbol %q is a %s/%s swap of runner symbol %q",
					p.tokenSymbol, swap[0], swap[1], p.runnerSymbol))
		}
	}

	dist := textdist.Levenshtein(p.runnerSym, p.tokenSym)
	switch {
	case dist == 1:
		return match(method, 85,
			fmt.Sprintf("symbol %q is edit distance 1 from runner symbol %q", p.tokenSymbol, p.runnerSymbol))
	case dist == 2 && len(p.runnerSym) >= 5:
		return match(method, 78,
			fmt.Sprintf("symbol %q is edit distance 2 from runner symbol %q", p.tokenSymbol, p.runnerSymbol))
	}
	return noMatch(method)
}

func applySwap(s string, swap [2]string) string {
	return strings.ReplaceAll(s, swap[0], swap[1])
}

// detectPhonetic fires when symbols (or the first words of the names) start
// with the same letter and share a Soundex or Metaphone code.
func (d *Detector) detectPhonetic(p pair) domain.DetectionResult {
	const method = "phonetic"
	if !p.symbolsDistinct(3) {
		return noMatch(method)
	}

	if len(p.tokenSym) >= 3 && soundsAlike(p.runnerSym, p.tokenSym) {
		return match(method, 85,
			fmt.Sprintf("symbol %q sounds like runner symbol %q", p.tokenSymbol, p.runnerSymbol))
	}

	runnerWord := firstWord(p.runnerName)
	tokenWord := firstWord(p.tokenName)
	if len(runnerWord) >= 4 && len(tokenWord) >= 4 && runnerWord != tokenWord &&
		soundsAlike(runnerWord, tokenWord) {
		return match(method, 80,
			fmt.Sprintf("name %q sounds like runner name %q", p.tokenName, p.runnerName))
	}
	return noMatch(method)
}

func soundsAlike(a, b string) bool {
	if a == "" || b == "" || a[0] != b[0] {
		return false
	}
	if phonetic.Soundex(a) == phonetic.Soundex(b) {
		return true
	}
	return phonetic.Metaphone(a) == phonetic.Metaphone(b)
}

func firstWord(name string) string {
	words := textnorm.SplitCompound(name)
	if len(words) == 0 {
		return ""
	}
	return words[0]
}

// detectLeet fires when decoding leet-speak and/or collapsing repeated
// characters in the candidate symbol recovers the runner symbol.
func (d *Detector) detectLeet(p pair) domain.DetectionResult {
	const method = "leet"
	if !p.symbolsDistinct(3) {
		return noMatch(method)
	}

	deleeted := textnorm.Normalize(textnorm.Deleet(p.tokenSymbol))
	derepeated := textnorm.Normalize(textnorm.Derepeat(p.tokenSymbol))
	both := textnorm.Normalize(textnorm.Derepeat(textnorm.Deleet(p.tokenSymbol)))

	switch p.runnerSym {
	case deleeted:
		return match(method, 88,
			fmt.Sprintf("symbol %q de-leets to runner symbol %q", p.tokenSymbol, p.runnerSymbol))
	case derepeated:
		return match(method, 86,
			fmt.Sprintf("symbol %q de-repeats to runner symbol %q", p.tokenSymbol, p.runnerSymbol))
	case both:
		return match(method, 84,
			fmt.Sprintf("symbol %q de-leets and de-repeats to runner symbol %q", p.tokenSymbol, p.runnerSymbol))
	}
	return noMatch(method)
}

// detectNGram fires when the symbols' trigram sets overlap at 0.70 or above.
func (d *Detector) detectNGram(p pair) domain.DetectionResult {
	const method = "ngram"
	if !p.symbolsDistinct(4) || len(p.tokenSym) < 4 {
		return noMatch(method)
	}

	overlap := textdist.NGramOverlap(p.runnerSym, p.tokenSym, 3)
	if overlap < 0.70 {
		return noMatch(method)
	}

	// Scale 0.70..1.0 onto 75..95
	confidence := 75 + int((overlap-0.70)/0.30*20+0.5)
	if confidence > 95 {
		confidence = 95
	}
	return match(method, confidence,
		fmt.Sprintf("symbols %q and %q share %.0f%% of trigrams", p.tokenSymbol, p.runnerSymbol, overlap*100))
}

// detectFuzzy fires when normalized edit similarity reaches 0.80.
func (d *Detector) detectFuzzy(p pair) domain.DetectionResult {
	const method = "fuzzy"
	if !p.symbolsDistinct(4) || len(p.tokenSym) < 4 {
		return noMatch(method)
	}

	maxLen := len(p.runnerSym)
	if len(p.tokenSym) > maxLen {
		maxLen = len(p.tokenSym)
	}
	dist := textdist.Levenshtein(p.runnerSym, p.tokenSym)
	similarity := 1 - float64(dist)/float64(maxLen)
	if similarity < 0.80 {
		return noMatch(method)
	}

	confidence := int(similarity * 95)
	return match(method, confidence,
		fmt.Sprintf("symbols %q and %q are %.0f%% similar", p.tokenSymbol, p.runnerSymbol, similarity*100))
}

// detectReverse fires when the candidate symbol is the runner symbol
// reversed, or an anagram of it.
func (d *Detector) detectReverse(p pair) domain.DetectionResult {
	const method = "reverse"
	if !p.symbolsDistinct(3) {
		return noMatch(method)
	}

	if textdist.IsReverse(p.runnerSym, p.tokenSym) {
		return match(method, 82,
			fmt.Sprintf("symbol %q is runner symbol %q reversed", p.tokenSymbol, p.runnerSymbol))
	}
	if textdist.IsAnagram(p.runnerSym, p.tokenSym) {
		return match(method, 75,
			fmt.Sprintf("symbol %q is an anagram of runner symbol %q", p.tokenSymbol, p.runnerSymbol))
	}
	return noMatch(method)
}

// detectSubstring fires when a long common substring covers at least 75% of
// the runner symbol.
func (d *Detector) detectSubstring(p pair) domain.DetectionResult {
	const method = "substring"
	if !p.symbolsDistinct(3) {
		return noMatch(method)
	}

	best := textdist.LongestCommonSubstring(p.runnerSym, p.tokenSym)
	if nameLen := textdist.LongestCommonSubstring(p.runnerSym, p.tokenNameNorm); nameLen > best {
		best = nameLen
	}
	if best < 3 {
		return noMatch(method)
	}

	ratio := float64(best) / float64(len(p.runnerSym))
	if ratio < 0.75 {
		return noMatch(method)
	}

	// Scale 0.75..1.0 onto 70..90
	confidence := 70 + int((ratio-0.75)/0.25*20+0.5)
	if confidence > 90 {
		confidence = 90
	}
	return match(method, confidence,
		fmt.Sprintf("candidate shares a %d-character run with runner symbol %q", best, p.runnerSymbol))
}

// detectTheme fires when runner and candidate share a narrative theme and
// the runner's own text carries that theme's canonical keyword, i.e. the
// runner is the main token for the theme.
func (d *Detector) detectTheme(p pair) domain.DetectionResult {
	const method = "theme"
	if !p.symbolsDistinct(2) {
		return noMatch(method)
	}

	runnerThemes := d.cfg.Themes.Themes(p.runnerText)
	if len(runnerThemes) == 0 {
		return noMatch(method)
	}
	tokenThemes := make(map[string]struct{})
	for _, theme := range d.cfg.Themes.Themes(p.tokenText) {
		tokenThemes[theme] = struct{}{}
	}

	runnerNorm := textnorm.Normalize(p.runnerText)
	for _, theme := range runnerThemes {
		if _, shared := tokenThemes[theme]; !shared {
			continue
		}
		if strings.Contains(runnerNorm, d.cfg.Themes.Canonical(theme)) {
			return match(method, 72,
				fmt.Sprintf("runner and candidate share the %q theme", theme))
		}
	}
	return noMatch(method)
}

// detectKeyword fires when the candidate text contains a generic derivative
// keyword and one of the candidate's own words points back at the runner
// symbol.
func (d *Detector) detectKeyword(p pair) domain.DetectionResult {
	const method = "keyword"
	if !p.symbolsDistinct(3) {
		return noMatch(method)
	}

	tokenNorm := textnorm.Normalize(p.tokenText)
	var hit string
	for _, kw := range d.cfg.DerivativeKeywords {
		if strings.Contains(tokenNorm, kw) {
			hit = kw
			break
		}
	}
	if hit == "" {
		return noMatch(method)
	}

	for _, word := range textnorm.SplitCompound(p.tokenText) {
		if len(word) >= 3 && strings.Contains(p.runnerSym, word) {
			return match(method, 78,
				fmt.Sprintf("candidate carries derivative keyword %q and word %q from runner symbol %q",
					hit, word, p.runnerSymbol))
		}
	}
	return noMatch(method)
}
