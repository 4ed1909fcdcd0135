package detect

import (
	"testing"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/themes"
)

func pairOf(runnerName, runnerSymbol, tokenName, tokenSymbol string) pair {
	return newPair(
		domain.TokenDescriptor{Name: runnerName, Symbol: runnerSymbol},
		domain.TokenDescriptor{Name: tokenName, Symbol: tokenSymbol},
	)
}

func TestDetectDirect(t *testing.T) {
	d := New(DefaultConfig())

	tests := []struct {
		name    string
		p       pair
		matched bool
		minConf int
	}{
		{"symbol containment", pairOf("Pepe", "PEPE", "Baby Pepe", "BABYPEPE"), true, 98},
		{"name containment", pairOf("Pepe", "PEPE", "The Pepe Killer", "TPK"), true, 95},
		{"identical symbols", pairOf("Pepe", "PEPE", "Fake Pepe", "PEPE"), false, 0},
		{"short runner symbol", pairOf("X", "X", "XX Token", "XX"), false, 0},
		{"no containment", pairOf("Pepe", "PEPE", "Bonk", "BONK"), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.detectDirect(tt.p)
			if got.Matched != tt.matched {
				t.Fatalf("matched = %v, want %v (%+v)", got.Matched, tt.matched, got)
			}
			if got.Matched && got.Confidence < tt.minConf {
				t.Errorf("confidence = %d, want >= %d", got.Confidence, tt.minConf)
			}
		})
	}
}

func TestDetectPattern(t *testing.T) {
	d := New(DefaultConfig())

	if got := d.detectPattern(pairOf("Pepe", "PEPE", "Baby Pepe", "BABYPEPE")); !got.Matched || got.Confidence != 94 {
		t.Errorf("prefix form should match at 94, got %+v", got)
	}
	if got := d.detectPattern(pairOf("Doge", "DOGE", "Doge Killer", "DOGEKILLER")); !got.Matched {
		t.Errorf("suffix form should match, got %+v", got)
	}
	if got := d.detectPattern(pairOf("Pepe", "PEPE", "Grand Pepe Fan", "GRANDPEPEFAN")); got.Matched {
		t.Errorf("non-curated affix should not match pattern, got %+v", got)
	}
}

func TestDetectBoundary(t *testing.T) {
	d := New(DefaultConfig())

	if got := d.detectBoundary(pairOf("Pepe", "PEPE", "Super Pepe World", "SPW")); !got.Matched || got.Confidence != 92 {
		t.Errorf("whole-word match should score 92, got %+v", got)
	}
	if got := d.detectBoundary(pairOf("Pepe", "PEPE", "Pepeverse", "PEPEVERSE")); !got.Matched {
		t.Errorf("prefix match should fire, got %+v", got)
	}
	if got := d.detectBoundary(pairOf("Pepe", "PEPE", "Carpet Token", "CARPET")); got.Matched {
		t.Errorf("mid-word containment is not a boundary match, got %+v", got)
	}
}

func TestDetectMisspelling(t *testing.T) {
	d := New(DefaultConfig())

	if got := d.detectMisspelling(pairOf("Pepe", "PEPE", "Pepa", "PEPA")); !got.Matched {
		t.Errorf("edit distance 1 should match, got %+v", got)
	}
	if got := d.detectMisspelling(pairOf("Popcat", "POPCAT", "Popkat", "POPKAT")); !got.Matched || got.Confidence != 90 {
		t.Errorf("c/k swap should match at 90, got %+v", got)
	}
	// Distance 2 requires runner symbol length >= 5
	if got := d.detectMisspelling(pairOf("Pepe", "PEPE", "Papa", "PAPA")); got.Matched {
		t.Errorf("distance 2 on a 4-char symbol should not match, got %+v", got)
	}
	if got := d.detectMisspelling(pairOf("Dogwifhat", "DOGWIFHAT", "Dogwfhat", "DOGWFHT")); !got.Matched {
		t.Errorf("distance 2 on a long symbol should match, got %+v", got)
	}
	// Length gap above 2 is rejected before any comparison
	if got := d.detectMisspelling(pairOf("Pepe", "PEPE", "Pepepepe", "PEPEPEPE")); got.Matched {
		t.Errorf("length diff > 2 should not match, got %+v", got)
	}
}

func TestDetectPhonetic(t *testing.T) {
	d := New(DefaultConfig())

	if got := d.detectPhonetic(pairOf("Doge", "DOGE", "Doje", "DOJE")); !got.Matched || got.Confidence != 85 {
		t.Errorf("sound-alike symbols should score 85, got %+v", got)
	}
	// First letters must match
	if got := d.detectPhonetic(pairOf("Floki", "FLOKI", "Phloki", "PHLOKI")); got.Matched {
		t.Errorf("different first letters should not match, got %+v", got)
	}
	if got := d.detectPhonetic(pairOf("Bonk", "BONK", "Pepe", "PEPE")); got.Matched {
		t.Errorf("unrelated symbols should not match, got %+v", got)
	}
}

func TestDetectLeet(t *testing.T) {
	d := New(DefaultConfig())

	if got := d.detectLeet(pairOf("Pepe", "PEPE", "P3P3", "P3P3")); !got.Matched || got.Confidence != 88 {
		t.Errorf("de-leet should match at 88, got %+v", got)
	}
	if got := d.detectLeet(pairOf("Moon", "MOON", "Moooon", "MOOOON")); !got.Matched {
		t.Errorf("de-repeat should match, got %+v", got)
	}
	if got := d.detectLeet(pairOf("Pepe", "PEPE", "Bonk", "BONK")); got.Matched {
		t.Errorf("unrelated symbol should not match, got %+v", got)
	}
}

func TestDetectNGram(t *testing.T) {
	d := New(DefaultConfig())

	if got := d.detectNGram(pairOf("Dogwifhat", "DOGWIFHAT", "Dogwifhats", "DOGWIFHATS")); !got.Matched {
		t.Errorf("high trigram overlap should match, got %+v", got)
	}
	if got := d.detectNGram(pairOf("Pepe", "PEPE", "Bonk", "BONK")); got.Matched {
		t.Errorf("zero overlap should not match, got %+v", got)
	}
	if got := d.detectNGram(pairOf("Sol", "SOL", "Sols", "SOLS")); got.Matched {
		t.Errorf("3-char runner symbol is below the ngram floor, got %+v", got)
	}
}

func TestDetectFuzzy(t *testing.T) {
	d := New(DefaultConfig())

	got := d.detectFuzzy(pairOf("Dogwifhat", "DOGWIFHAT", "Dogwifhet", "DOGWIFHET"))
	if !got.Matched {
		t.Fatalf("8/9 similarity should match, got %+v", got)
	}
	if got.Confidence > 95 {
		t.Errorf("fuzzy confidence must stay <= 95, got %d", got.Confidence)
	}

	if got := d.detectFuzzy(pairOf("Pepe", "PEPE", "Bonk", "BONK")); got.Matched {
		t.Errorf("dissimilar symbols should not match, got %+v", got)
	}
}

func TestDetectReverse(t *testing.T) {
	d := New(DefaultConfig())

	if got := d.detectReverse(pairOf("Doge", "DOGE", "Egod", "EGOD")); !got.Matched || got.Confidence != 82 {
		t.Errorf("reversal should match at 82, got %+v", got)
	}
	if got := d.detectReverse(pairOf("Doge", "DOGE", "Geod", "GEOD")); !got.Matched || got.Confidence != 75 {
		t.Errorf("anagram should match at 75, got %+v", got)
	}
	if got := d.detectReverse(pairOf("Doge", "DOGE", "Doge", "DOGE")); got.Matched {
		t.Errorf("identical symbols should not match, got %+v", got)
	}
}

func TestDetectSubstring(t *testing.T) {
	d := New(DefaultConfig())

	// "dogwifha" shares 8 of 9 runner chars contiguously
	if got := d.detectSubstring(pairOf("Dogwifhat", "DOGWIFHAT", "Dogwifha", "DOGWIFHA")); !got.Matched {
		t.Errorf("75%%+ common run should match, got %+v", got)
	}
	// 2 of 4 is under the ratio floor
	if got := d.detectSubstring(pairOf("Pepe", "PEPE", "Peak", "PEAK")); got.Matched {
		t.Errorf("short common run should not match, got %+v", got)
	}
}

func TestDetectTheme_CanonicalGate(t *testing.T) {
	d := New(DefaultConfig())

	// Runner text contains "pepe", the canonical theme term: gate open
	open := d.detectTheme(pairOf("Pepe", "PEPE", "Kek Lord", "KEK"))
	if !open.Matched || open.Confidence != 72 {
		t.Errorf("canonical runner should theme-match, got %+v", open)
	}

	// Runner only carries a secondary keyword ("kek"), so it is not the main
	// token of the theme and the gate stays closed
	closed := d.detectTheme(pairOf("Kek Token", "KEK", "Froggy", "FROGGY"))
	if closed.Matched {
		t.Errorf("non-canonical runner should not theme-match, got %+v", closed)
	}
}

func TestDetectKeyword(t *testing.T) {
	d := New(DefaultConfig())

	if got := d.detectKeyword(pairOf("Pepe", "PEPE", "Pepe Junior", "PJR")); !got.Matched || got.Confidence != 78 {
		t.Errorf("derivative keyword + runner word should match at 78, got %+v", got)
	}
	// Keyword present but no candidate word points at the runner symbol
	if got := d.detectKeyword(pairOf("Bonk", "BONK", "Pepe Junior", "PJR")); got.Matched {
		t.Errorf("keyword without runner linkage should not match, got %+v", got)
	}
}

func TestMethods_InjectedTables(t *testing.T) {
	cfg := Config{
		Prefixes:           []string{"proto"},
		Suffixes:           []string{"ling"},
		DerivativeKeywords: []string{"spawn"},
		Themes:             themes.Dictionary{"fish": {"fish", "carp"}},
	}
	d := New(cfg)

	if got := d.detectPattern(pairOf("Wave", "WAVE", "ProtoWave", "PROTOWAVE")); !got.Matched {
		t.Errorf("injected prefix should drive pattern, got %+v", got)
	}
	if got := d.detectPattern(pairOf("Wave", "WAVE", "Baby Wave", "BABYWAVE")); got.Matched {
		t.Errorf("default prefixes should be absent with injected tables, got %+v", got)
	}
	if got := d.detectTheme(pairOf("Fish Token", "FISH", "Carp Coin", "CARP")); !got.Matched {
		t.Errorf("injected theme should drive theme method, got %+v", got)
	}
}
