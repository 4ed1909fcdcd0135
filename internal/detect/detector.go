// Package detect implements the multi-signal derivative-detection engine:
// twelve independent comparison methods over a (runner, candidate) token
// pair, fused into a single confidence-scored verdict. The engine is pure:
// no I/O, no state between calls, safe for concurrent use.
package detect

import (
	"fmt"
	"sort"

	"solana-derivative-lab/internal/domain"
)

// maxConfidence caps the post-boost aggregate confidence.
const maxConfidence = 99

// Detector runs all detection methods against token pairs using a fixed set
// of curated tables.
type Detector struct {
	cfg Config
}

// New creates a Detector. The Config is treated as immutable after this call.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg}
}

// methodFunc is one detection method. Every method independently rejects the
// trivial identical-symbol case and runner symbols below its minimum length.
type methodFunc func(*Detector, pair) domain.DetectionResult

// methodTable fixes the evaluation order; ties in confidence keep this order.
var methodTable = []methodFunc{
	(*Detector).detectDirect,
	(*Detector).detectPattern,
	(*Detector).detectBoundary,
	(*Detector).detectMisspelling,
	(*Detector).detectPhonetic,
	(*Detector).detectLeet,
	(*Detector).detectNGram,
	(*Detector).detectFuzzy,
	(*Detector).detectReverse,
	(*Detector).detectSubstring,
	(*Detector).detectTheme,
	(*Detector).detectKeyword,
}

// Detect evaluates a single (runner, candidate) pair given plain name and
// symbol strings. Used for ad-hoc evaluation of two specific tokens.
func (d *Detector) Detect(runnerName, runnerSymbol, tokenName, tokenSymbol string) domain.AggregateResult {
	return d.DetectDescriptors(
		domain.TokenDescriptor{Name: runnerName, Symbol: runnerSymbol},
		domain.TokenDescriptor{Name: tokenName, Symbol: tokenSymbol},
	)
}

// DetectDescriptors evaluates a single (runner, candidate) pair including
// optional freeform keywords, which feed the theme and keyword methods.
func (d *Detector) DetectDescriptors(runner, token domain.TokenDescriptor) domain.AggregateResult {
	p := newPair(runner, token)

	var matched []domain.DetectionResult
	for _, method := range methodTable {
		if result := method(d, p); result.Matched {
			matched = append(matched, result)
		}
	}

	return fuse(matched)
}

// fuse reduces the matched method results to one AggregateResult: the
// highest-confidence method wins, and agreement across distinct methods adds
// a bonus on top of that single best score. Averaging would punish a very
// confident single-method hit, so the bonus is additive.
func fuse(matched []domain.DetectionResult) domain.AggregateResult {
	if len(matched) == 0 {
		return domain.AggregateResult{}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Confidence > matched[j].Confidence
	})

	best := matched[0]
	confidence := best.Confidence + agreementBonus(len(matched))
	if confidence > maxConfidence {
		confidence = maxConfidence
	}

	explanation := best.Explanation
	if len(matched) > 1 {
		explanation = fmt.Sprintf("%s; %d methods agree", best.Explanation, len(matched))
	}

	return domain.AggregateResult{
		IsDerivative:   true,
		BestMethod:     best.Method,
		Confidence:     confidence,
		Explanation:    explanation,
		Methods:        matched,
		AgreementCount: len(matched),
	}
}

// agreementBonus rewards multi-method corroboration: string coincidence is
// noisy for one method, unlikely for four.
func agreementBonus(count int) int {
	switch {
	case count >= 4:
		return 8
	case count == 3:
		return 5
	case count == 2:
		return 2
	default:
		return 0
	}
}
