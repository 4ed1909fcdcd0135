package detect

import "solana-derivative-lab/internal/themes"

// Config carries the curated tables the detection methods consult. The
// defaults are process-wide immutable data; tests inject trimmed tables
// instead of mutating them.
type Config struct {
	// Prefixes and Suffixes are normalized (lowercase alphanumeric) affixes
	// commonly glued onto a runner symbol to mint a derivative.
	Prefixes []string
	Suffixes []string

	// DerivativeKeywords are generic terms whose presence in a candidate's
	// text marks it as a likely copy of something.
	DerivativeKeywords []string

	// Themes is the narrative theme dictionary.
	Themes themes.Dictionary
}

// DefaultConfig returns the built-in curated tables.
func DefaultConfig() Config {
	return Config{
		Prefixes:           defaultPrefixes,
		Suffixes:           defaultSuffixes,
		DerivativeKeywords: defaultDerivativeKeywords,
		Themes:             themes.Default(),
	}
}

var defaultPrefixes = []string{
	"baby", "mini", "micro", "nano", "mega", "giga", "ultra", "super",
	"hyper", "turbo", "king", "queen", "lord", "lady", "sir", "young",
	"lil", "little", "big", "fat", "meta", "moon", "space", "rocket",
	"based", "real", "official", "og", "original", "wrapped", "dark",
	"evil", "golden", "shadow", "cyber", "crypto", "ai", "robo", "astro",
	"cosmic", "alpha", "beta", "omega", "doctor", "captain", "professor",
	"saint", "holy", "ghost", "zombie", "mutant", "retro", "pixel",
	"anime", "smol", "tiny", "happy", "sad", "angry", "crazy",
}

var defaultSuffixes = []string{
	"2", "20", "inu", "coin", "token", "cash", "moon", "mars", "killer",
	"king", "queen", "jr", "junior", "classic", "pro", "max", "plus",
	"ai", "dao", "fi", "swap", "verse", "land", "world", "chain", "pad",
	"army", "gang", "mafia", "cult", "club", "squad", "fam", "ceo",
	"cto", "god", "lord", "boss", "baby", "son", "daughter", "wife",
	"girlfriend", "gf", "bro", "sis", "dad", "mom", "maxi", "whale",
	"pump", "bull", "szn", "sol", "eth", "returns", "reborn", "rises",
	"lives", "forever",
}

var defaultDerivativeKeywords = []string{
	"baby", "king", "queen", "mini", "20", "jr", "junior", "son",
	"wife", "girlfriend", "returns", "reborn", "revenge", "strikes",
	"classic", "original", "official", "wrapped", "killer", "cto",
	"v2", "new", "legacy", "remix", "tribute",
}
