package matcher

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"solana-derivative-lab/internal/detect"
	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

func testRunners() []domain.RunnerToken {
	return []domain.RunnerToken{
		{TokenID: "r-pepe", Descriptor: domain.TokenDescriptor{Name: "Pepe", Symbol: "PEPE"}, MarketCap: 5e9},
		{TokenID: "r-doge", Descriptor: domain.TokenDescriptor{Name: "Doge", Symbol: "DOGE"}, MarketCap: 2e10},
		{TokenID: "r-wif", Descriptor: domain.TokenDescriptor{Name: "Dogwifhat", Symbol: "WIF"}, MarketCap: 2e9},
	}
}

func testCandidates() []domain.CandidateToken {
	return []domain.CandidateToken{
		{TokenID: "c-babypepe", Descriptor: domain.TokenDescriptor{Name: "Baby Pepe", Symbol: "BABYPEPE"}},
		{TokenID: "c-doje", Descriptor: domain.TokenDescriptor{Name: "Doje Coin", Symbol: "DOJE"}},
		{TokenID: "c-novel", Descriptor: domain.TokenDescriptor{Name: "Quantum Ledger", Symbol: "QLX"}},
	}
}

func TestMatch_BestRunnerPerCandidate(t *testing.T) {
	m := New(detect.New(detect.DefaultConfig()))

	matches, err := m.Match(context.Background(), testRunners(), testCandidates(), 70)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	byCandidate := make(map[string]domain.Match)
	for _, match := range matches {
		byCandidate[match.CandidateID] = match
	}

	if match, ok := byCandidate["c-babypepe"]; !ok {
		t.Error("Expected BABYPEPE to match a runner")
	} else if match.RunnerID != "r-pepe" {
		t.Errorf("Expected BABYPEPE to match PEPE, got %s", match.RunnerID)
	}

	if match, ok := byCandidate["c-doje"]; !ok {
		t.Error("Expected DOJE to match a runner")
	} else if match.RunnerID != "r-doge" {
		t.Errorf("Expected DOJE to match DOGE, got %s", match.RunnerID)
	}

	// Genuinely novel tokens stay unlinked
	if _, ok := byCandidate["c-novel"]; ok {
		t.Error("Novel token should not produce a match")
	}
}

func TestMatch_SelfExclusion(t *testing.T) {
	m := New(detect.New(detect.DefaultConfig()))

	// The runner set overlaps the candidate set: PEPE is both
	runners := testRunners()
	candidates := append(testCandidates(), domain.CandidateToken{
		TokenID:    "r-pepe",
		Descriptor: domain.TokenDescriptor{Name: "Pepe", Symbol: "PEPE"},
	})

	matches, err := m.Match(context.Background(), runners, candidates, 70)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	for _, match := range matches {
		if match.CandidateID == match.RunnerID {
			t.Errorf("Candidate matched itself: %+v", match)
		}
	}
}

func TestMatch_SortedByConfidenceDescending(t *testing.T) {
	m := New(detect.New(detect.DefaultConfig()))

	matches, err := m.Match(context.Background(), testRunners(), testCandidates(), 70)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Confidence > matches[i-1].Confidence {
			t.Errorf("Matches not sorted by confidence: %+v", matches)
		}
	}
}

func TestMatch_Idempotent(t *testing.T) {
	m := New(detect.New(detect.DefaultConfig()))
	ctx := context.Background()

	first, err := m.Match(ctx, testRunners(), testCandidates(), 70)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	second, err := m.Match(ctx, testRunners(), testCandidates(), 70)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated runs differ:\n%+v\n%+v", first, second)
	}
}

func TestMatch_ThresholdMonotonic(t *testing.T) {
	m := New(detect.New(detect.DefaultConfig()))
	ctx := context.Background()

	prev := -1
	for _, minConfidence := range []int{0, 50, 70, 85, 95, 100} {
		matches, err := m.Match(ctx, testRunners(), testCandidates(), minConfidence)
		if err != nil {
			t.Fatalf("Match failed at threshold %d: %v", minConfidence, err)
		}
		if prev >= 0 && len(matches) > prev {
			t.Errorf("Raising threshold to %d increased matches from %d to %d",
				minConfidence, prev, len(matches))
		}
		prev = len(matches)
	}
}

func TestMatch_TieBreakConsistent(t *testing.T) {
	m := New(detect.New(detect.DefaultConfig()))
	ctx := context.Background()

	// Two runners with identical descriptors produce identical confidence;
	// only consistency across runs is required, not a specific winner.
	runners := []domain.RunnerToken{
		{TokenID: "r-a", Descriptor: domain.TokenDescriptor{Name: "Pepe", Symbol: "PEPE"}},
		{TokenID: "r-b", Descriptor: domain.TokenDescriptor{Name: "Pepe", Symbol: "PEPE"}},
	}
	candidates := []domain.CandidateToken{
		{TokenID: "c-1", Descriptor: domain.TokenDescriptor{Name: "Baby Pepe", Symbol: "BABYPEPE"}},
	}

	first, err := m.Match(ctx, runners, candidates, 70)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("Expected exactly one match, got %d", len(first))
	}

	for i := 0; i < 10; i++ {
		again, err := m.Match(ctx, runners, candidates, 70)
		if err != nil {
			t.Fatalf("Match failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Tie-break not consistent: %+v vs %+v", first, again)
		}
	}
}

func TestMatch_ParallelMatchesSequential(t *testing.T) {
	ctx := context.Background()
	sequential := New(detect.New(detect.DefaultConfig()))
	parallel := New(detect.New(detect.DefaultConfig()), WithWorkers(4))

	want, err := sequential.Match(ctx, testRunners(), testCandidates(), 70)
	if err != nil {
		t.Fatalf("sequential Match failed: %v", err)
	}
	got, err := parallel.Match(ctx, testRunners(), testCandidates(), 70)
	if err != nil {
		t.Fatalf("parallel Match failed: %v", err)
	}

	if !reflect.DeepEqual(want, got) {
		t.Errorf("Parallel output differs from sequential:\n%+v\n%+v", want, got)
	}
}

func TestMatch_RejectsMalformedInput(t *testing.T) {
	m := New(detect.New(detect.DefaultConfig()))
	ctx := context.Background()

	_, err := m.Match(ctx, testRunners(), []domain.CandidateToken{
		{TokenID: "c-1", Descriptor: domain.TokenDescriptor{Name: "No Symbol"}},
	}, 70)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing symbol, got %v", err)
	}

	_, err = m.Match(ctx, []domain.RunnerToken{
		{Descriptor: domain.TokenDescriptor{Name: "Pepe", Symbol: "PEPE"}},
	}, testCandidates(), 70)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing runner id, got %v", err)
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	m := New(detect.New(detect.DefaultConfig()))
	ctx := context.Background()

	matches, err := m.Match(ctx, nil, testCandidates(), 70)
	if err != nil {
		t.Fatalf("Match with no runners failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("No runners should produce no matches, got %+v", matches)
	}

	matches, err = m.Match(ctx, testRunners(), nil, 70)
	if err != nil {
		t.Fatalf("Match with no candidates failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("No candidates should produce no matches, got %+v", matches)
	}
}
