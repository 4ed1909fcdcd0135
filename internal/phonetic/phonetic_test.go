package phonetic

import "testing"

func TestSoundex(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"pepe", "p100"},
		{"doge", "d200"},
		{"", ""},
		{"123", ""},
		{"bonk", "b520"},
	}

	for _, tt := range tests {
		if got := Soundex(tt.input); got != tt.want {
			t.Errorf("Soundex(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSoundex_SoundAlikes(t *testing.T) {
	pairs := [][2]string{
		{"pepe", "pepa"},
		{"doge", "doje"},
		{"floki", "phloki"}, // no: different first letter
	}

	if Soundex(pairs[0][0]) != Soundex(pairs[0][1]) {
		t.Errorf("pepe and pepa should share a Soundex code")
	}
	if Soundex(pairs[1][0]) != Soundex(pairs[1][1]) {
		t.Errorf("doge and doje should share a Soundex code")
	}
	if Soundex(pairs[2][0]) == Soundex(pairs[2][1]) {
		t.Errorf("floki and phloki start with different letters, codes must differ")
	}
}

func TestSoundex_Length(t *testing.T) {
	for _, s := range []string{"a", "pepe", "extraordinarily", "bcdfgh"} {
		if code := Soundex(s); len(code) != 4 {
			t.Errorf("Soundex(%q) = %q, want length 4", s, code)
		}
	}
}

func TestMetaphone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"pepe", "p"}, // vowels dropped, duplicate consonants collapsed
		{"phepe", "fp"},    // ph -> f
		{"knight", "nt"},   // silent k head, gh dropped
		{"box", "bks"},     // x -> ks
		{"school", "skl"},  // sch -> sk
		{"rocket", "rkt"},  // ck -> k
	}

	for _, tt := range tests {
		if got := Metaphone(tt.input); got != tt.want {
			t.Errorf("Metaphone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMetaphone_Stable(t *testing.T) {
	for _, s := range []string{"pepe", "dogwifhat", "bonk", "trump"} {
		if Metaphone(s) != Metaphone(s) {
			t.Errorf("Metaphone(%q) not deterministic", s)
		}
	}
}

func TestMetaphone_SoundAlikes(t *testing.T) {
	if Metaphone("pepe") != Metaphone("peepee") {
		t.Errorf("pepe and peepee should share a metaphone code, got %q vs %q",
			Metaphone("pepe"), Metaphone("peepee"))
	}
}
