// Package advisory defines an optional second-opinion collaborator for
// candidates the detection engine leaves unlinked. The engine is fully
// correct without one; an Advisor only adds links, never removes them.
package advisory

import (
	"context"

	"solana-derivative-lab/internal/domain"
)

// Opinion is an advisor's verdict for one candidate.
type Opinion struct {
	RunnerID    string // runner the candidate derives from
	Confidence  int    // 0-100
	Explanation string
}

// Advisor reviews an unlinked candidate against the current runner set.
// A nil Opinion with nil error means no verdict.
type Advisor interface {
	Review(ctx context.Context, candidate domain.CandidateToken, runners []domain.RunnerToken) (*Opinion, error)
}

// Noop is an Advisor that never has an opinion.
type Noop struct{}

// NewNoop creates a no-op advisor.
func NewNoop() *Noop {
	return &Noop{}
}

// Review always returns no verdict.
func (*Noop) Review(context.Context, domain.CandidateToken, []domain.RunnerToken) (*Opinion, error) {
	return nil, nil
}

// Compile-time interface check.
var _ Advisor = (*Noop)(nil)
