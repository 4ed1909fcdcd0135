// Package matcher assigns each candidate token to at most one best-matching
// runner using the detection engine. The matcher holds no state between runs;
// persisting the outcome belongs to the caller.
package matcher

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"solana-derivative-lab/internal/detect"
	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

// Matcher runs batch derivative matching.
type Matcher struct {
	detector *detect.Detector
	workers  int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWorkers bounds the number of concurrent candidate evaluations.
// Values below 1 fall back to sequential evaluation. Output is identical
// regardless of worker count.
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		m.workers = n
	}
}

// New creates a Matcher on top of a detector.
func New(detector *detect.Detector, opts ...Option) *Matcher {
	m := &Matcher{detector: detector, workers: 1}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match computes the best runner match for every candidate. A candidate is
// never compared against itself (by TokenID), and candidates whose best
// confidence falls below minConfidence are omitted: an unlinked candidate is
// the expected steady state for a genuinely novel token, not an error.
//
// Tie-break: when two runners produce identical confidence for a candidate,
// the first-encountered runner in the input order wins.
//
// The result is sorted by confidence descending; equal confidences keep
// candidate input order. Returns ErrInvalidInput when any descriptor lacks a
// symbol or any TokenID is empty, before any comparison runs.
func (m *Matcher) Match(
	ctx context.Context,
	runners []domain.RunnerToken,
	candidates []domain.CandidateToken,
	minConfidence int,
) ([]domain.Match, error) {
	if err := validateInputs(runners, candidates); err != nil {
		return nil, err
	}

	found := make([]*domain.Match, len(candidates))

	if m.workers > 1 {
		if err := m.matchParallel(ctx, runners, candidates, minConfidence, found); err != nil {
			return nil, err
		}
	} else {
		for i, cand := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			found[i] = m.bestMatch(runners, cand, minConfidence)
		}
	}

	// Assemble in candidate input order, then sort by confidence. The stable
	// sort keeps input order among equal confidences, so repeated runs over
	// the same inputs yield identical lists.
	matches := make([]domain.Match, 0, len(candidates))
	for _, match := range found {
		if match != nil {
			matches = append(matches, *match)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return matches, nil
}

// matchParallel fans candidates out over a bounded worker pool. Each
// candidate's evaluation is independent; results land at the candidate's
// index, so ordering is unaffected by scheduling.
func (m *Matcher) matchParallel(
	ctx context.Context,
	runners []domain.RunnerToken,
	candidates []domain.CandidateToken,
	minConfidence int,
	found []*domain.Match,
) error {
	indexes := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < m.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				found[i] = m.bestMatch(runners, candidates[i], minConfidence)
			}
		}()
	}

	var err error
	for i := range candidates {
		if err = ctx.Err(); err != nil {
			break
		}
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return err
}

// bestMatch evaluates one candidate against every runner except itself and
// keeps the highest-confidence qualifying result.
func (m *Matcher) bestMatch(
	runners []domain.RunnerToken,
	cand domain.CandidateToken,
	minConfidence int,
) *domain.Match {
	var best *domain.Match

	for _, runner := range runners {
		if runner.TokenID == cand.TokenID {
			continue
		}

		result := m.detector.DetectDescriptors(runner.Descriptor, cand.Descriptor)
		if !result.IsDerivative || result.Confidence < minConfidence {
			continue
		}
		// Strict greater-than keeps the first-encountered runner on ties
		if best != nil && result.Confidence <= best.Confidence {
			continue
		}

		best = &domain.Match{
			CandidateID:    cand.TokenID,
			RunnerID:       runner.TokenID,
			Method:         result.BestMethod,
			Confidence:     result.Confidence,
			Explanation:    result.Explanation,
			AgreementCount: result.AgreementCount,
		}
	}

	return best
}

// validateInputs rejects malformed descriptors at the batch boundary rather
// than mid-batch.
func validateInputs(runners []domain.RunnerToken, candidates []domain.CandidateToken) error {
	for _, r := range runners {
		if r.TokenID == "" || r.Descriptor.Symbol == "" {
			return fmt.Errorf("%w: runner %q missing id or symbol", storage.ErrInvalidInput, r.Descriptor.Name)
		}
	}
	for _, c := range candidates {
		if c.TokenID == "" || c.Descriptor.Symbol == "" {
			return fmt.Errorf("%w: candidate %q missing id or symbol", storage.ErrInvalidInput, c.Descriptor.Name)
		}
	}
	return nil
}
