package reporting

import (
	"context"
	"errors"
	"sort"
	"time"

	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/storage"
)

// Generator produces reports from stored data.
type Generator struct {
	tokenStore storage.TokenStore
	matchStore storage.MatchStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(tokenStore storage.TokenStore, matchStore storage.MatchStore) *Generator {
	return &Generator{
		tokenStore: tokenStore,
		matchStore: matchStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete derivative report for matches recorded in
// [start, end] (Unix ms, inclusive). topLimit caps the top-matches table.
func (g *Generator) Generate(ctx context.Context, start, end int64, topLimit int) (*Report, error) {
	runners, err := g.tokenStore.ListRunners(ctx, 0)
	if err != nil {
		return nil, err
	}

	candidates, err := g.tokenStore.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}

	matches, err := g.matchStore.GetByTimeRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	top, err := g.matchStore.GetTop(ctx, start, end, topLimit)
	if err != nil {
		return nil, err
	}

	symbols, names := g.resolveTokenLabels(ctx, top, matches)

	return &Report{
		GeneratedAt:  g.now(),
		WindowStart:  start,
		WindowEnd:    end,
		Summary:      buildSummary(runners, candidates, matches),
		TopMatches:   buildTopMatches(top, symbols, names),
		MethodTotals: buildMethodTotals(matches),
		RunnerTotals: buildRunnerTotals(matches, symbols),
	}, nil
}

// resolveTokenLabels looks up symbol and name for every token referenced by
// the match rows. Tokens that no longer exist keep their ID as label.
func (g *Generator) resolveTokenLabels(ctx context.Context, sets ...[]*domain.MatchRecord) (map[string]string, map[string]string) {
	symbols := make(map[string]string)
	names := make(map[string]string)

	lookup := func(tokenID string) {
		if _, ok := symbols[tokenID]; ok {
			return
		}
		tok, err := g.tokenStore.GetByID(ctx, tokenID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				symbols[tokenID] = tokenID
				names[tokenID] = tokenID
			}
			return
		}
		symbols[tokenID] = tok.Symbol
		names[tokenID] = tok.Name
	}

	for _, set := range sets {
		for _, m := range set {
			lookup(m.CandidateID)
			lookup(m.RunnerID)
		}
	}
	return symbols, names
}

func buildSummary(runners, candidates []*domain.TokenRecord, matches []*domain.MatchRecord) Summary {
	linked := 0
	for _, c := range candidates {
		if c.ParentTokenID != nil {
			linked++
		}
	}
	return Summary{
		TotalTokens:        len(runners) + len(candidates),
		Runners:            len(runners),
		Candidates:         len(candidates),
		LinkedCandidates:   linked,
		UnlinkedCandidates: len(candidates) - linked,
		MatchesInWindow:    len(matches),
	}
}

func buildTopMatches(top []*domain.MatchRecord, symbols, names map[string]string) []MatchRow {
	rows := make([]MatchRow, len(top))
	for i, m := range top {
		rows[i] = MatchRow{
			CandidateSymbol: symbols[m.CandidateID],
			CandidateName:   names[m.CandidateID],
			RunnerSymbol:    symbols[m.RunnerID],
			Method:          m.Method,
			Confidence:      m.Confidence,
			AgreementCount:  m.AgreementCount,
			Explanation:     m.Explanation,
		}
	}
	return rows
}

func buildMethodTotals(matches []*domain.MatchRecord) []MethodTotalRow {
	counts := make(map[string]int)
	sums := make(map[string]int)
	for _, m := range matches {
		counts[m.Method]++
		sums[m.Method] += m.Confidence
	}

	rows := make([]MethodTotalRow, 0, len(counts))
	for method, count := range counts {
		rows = append(rows, MethodTotalRow{
			Method:        method,
			Count:         count,
			AvgConfidence: float64(sums[method]) / float64(count),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Method < rows[j].Method
	})
	return rows
}

func buildRunnerTotals(matches []*domain.MatchRecord, symbols map[string]string) []RunnerTotalRow {
	counts := make(map[string]int)
	for _, m := range matches {
		counts[m.RunnerID]++
	}

	rows := make([]RunnerTotalRow, 0, len(counts))
	for runnerID, count := range counts {
		rows = append(rows, RunnerTotalRow{
			RunnerSymbol: symbols[runnerID],
			RunnerID:     runnerID,
			Derivatives:  count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Derivatives != rows[j].Derivatives {
			return rows[i].Derivatives > rows[j].Derivatives
		}
		return rows[i].RunnerSymbol < rows[j].RunnerSymbol
	})
	return rows
}
