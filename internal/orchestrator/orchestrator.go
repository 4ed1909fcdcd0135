// Package orchestrator coordinates the refresh cycle:
// ingest → store → select runners → match → persist links.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-derivative-lab/internal/advisory"
	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/idhash"
	"solana-derivative-lab/internal/ingestion"
	"solana-derivative-lab/internal/matcher"
	"solana-derivative-lab/internal/storage"
)

// Orchestrator runs the ingest-and-match cycle against the stores.
type Orchestrator struct {
	// Stores
	tokenStore    storage.TokenStore
	matchStore    storage.MatchStore
	snapshotStore storage.SnapshotStore

	// Collaborators
	tokenSource    ingestion.TokenSource
	snapshotSource ingestion.SnapshotSource
	feed           *ingestion.TokenFeed
	matcher        *matcher.Matcher
	advisor        advisory.Advisor

	// Options
	minConfidence  int
	marketCapFloor float64
	verbose        bool

	// now is stubbed in tests.
	now func() int64

	lastRun int64
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	TokenStore storage.TokenStore
	MatchStore storage.MatchStore
	Matcher    *matcher.Matcher

	// Optional collaborators
	SnapshotStore  storage.SnapshotStore
	TokenSource    ingestion.TokenSource
	SnapshotSource ingestion.SnapshotSource
	Feed           *ingestion.TokenFeed
	Advisor        advisory.Advisor

	// MinConfidence is the threshold below which matches are discarded.
	MinConfidence int
	// MarketCapFloor is the market cap (USD) at which a token becomes a runner.
	MarketCapFloor float64
	Verbose        bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		tokenStore:     opts.TokenStore,
		matchStore:     opts.MatchStore,
		snapshotStore:  opts.SnapshotStore,
		tokenSource:    opts.TokenSource,
		snapshotSource: opts.SnapshotSource,
		feed:           opts.Feed,
		matcher:        opts.Matcher,
		advisor:        opts.Advisor,
		minConfidence:  opts.MinConfidence,
		marketCapFloor: opts.MarketCapFloor,
		verbose:        opts.Verbose,
		now:            func() int64 { return time.Now().UnixMilli() },
	}
}

// RunResult contains counts from one orchestrator cycle.
type RunResult struct {
	TokensIngested      int
	SnapshotsStored     int
	RunnersSelected     int
	CandidatesEvaluated int
	MatchesFound        int
	ParentsLinked       int
	AdvisoryLinked      int
	Errors              []string
}

// Run executes one full cycle.
// Phases:
//  1. Ingest token profiles from the source and the feed, refresh market data
//  2. Upsert tokens with the runner flag derived from the market cap floor
//  3. Select runners and candidates from the store
//  4. Match candidates against runners
//  5. Persist match records and parent links
//  6. Consult the advisor for unlinked candidates, when configured
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}
	runAt := o.now()

	o.log("Phase 1: Ingesting tokens...")
	ingested, err := o.ingestTokens(ctx, runAt)
	if err != nil {
		return nil, fmt.Errorf("phase 1 (ingest) failed: %w", err)
	}
	o.log("  Fetched %d token profiles", len(ingested))

	snapshotsStored, snapErrs := o.refreshMarketData(ctx, ingested)
	result.SnapshotsStored = snapshotsStored
	result.Errors = append(result.Errors, snapErrs...)

	o.log("Phase 2: Upserting %d tokens...", len(ingested))
	for _, tok := range ingested {
		tok.IsRunner = tok.MarketCap >= o.marketCapFloor && o.marketCapFloor > 0
		if err := o.tokenStore.Upsert(ctx, tok); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("upsert %s: %v", tok.TokenID, err))
			continue
		}
		result.TokensIngested++
	}

	o.log("Phase 3: Selecting runners and candidates...")
	runners, candidates, err := o.loadParticipants(ctx)
	if err != nil {
		return nil, fmt.Errorf("phase 3 (load participants) failed: %w", err)
	}
	result.RunnersSelected = len(runners)
	result.CandidatesEvaluated = len(candidates)
	o.log("  %d runners, %d candidates", len(runners), len(candidates))

	if len(runners) == 0 || len(candidates) == 0 {
		return result, nil
	}

	o.log("Phase 4: Matching...")
	matches, err := o.matcher.Match(ctx, runners, candidates, o.minConfidence)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (match) failed: %w", err)
	}
	result.MatchesFound = len(matches)
	o.log("  %d matches at confidence >= %d", len(matches), o.minConfidence)

	o.log("Phase 5: Persisting matches...")
	linked, persistErrs := o.persistMatches(ctx, matches, runAt)
	result.ParentsLinked = linked
	result.Errors = append(result.Errors, persistErrs...)

	if o.advisor != nil {
		o.log("Phase 6: Consulting advisor for unlinked candidates...")
		advised, advErrs := o.consultAdvisor(ctx, runners, candidates, matches, runAt)
		result.AdvisoryLinked = advised
		result.Errors = append(result.Errors, advErrs...)
	}

	o.lastRun = runAt
	o.log("Cycle completed: %d ingested, %d matches, %d linked",
		result.TokensIngested, result.MatchesFound, result.ParentsLinked)

	return result, nil
}

// ingestTokens gathers token records from the configured source and feed.
func (o *Orchestrator) ingestTokens(ctx context.Context, runAt int64) ([]*domain.TokenRecord, error) {
	var ingested []*domain.TokenRecord

	if o.tokenSource != nil {
		tokens, err := o.tokenSource.FetchTokens(ctx, o.lastRun, runAt)
		if err != nil {
			return nil, fmt.Errorf("fetch tokens: %w", err)
		}
		ingested = append(ingested, tokens...)
	}

	if o.feed != nil {
		ingested = append(ingested, o.feed.Drain()...)
	}

	return dedupeByTokenID(ingested), nil
}

// dedupeByTokenID keeps the last record per token ID, preserving first-seen order.
func dedupeByTokenID(tokens []*domain.TokenRecord) []*domain.TokenRecord {
	index := make(map[string]int, len(tokens))
	var out []*domain.TokenRecord
	for _, tok := range tokens {
		if i, seen := index[tok.TokenID]; seen {
			out[i] = tok
			continue
		}
		index[tok.TokenID] = len(out)
		out = append(out, tok)
	}
	return out
}

// refreshMarketData fetches the latest snapshots for the ingested mints,
// stores them, and folds market cap and volume back into the records.
func (o *Orchestrator) refreshMarketData(ctx context.Context, tokens []*domain.TokenRecord) (int, []string) {
	if o.snapshotSource == nil || len(tokens) == 0 {
		return 0, nil
	}

	mints := make([]string, 0, len(tokens))
	byMint := make(map[string]*domain.TokenRecord, len(tokens))
	for _, tok := range tokens {
		mints = append(mints, tok.Mint)
		byMint[tok.Mint] = tok
	}

	snapshots, err := o.snapshotSource.FetchSnapshots(ctx, mints)
	if err != nil {
		return 0, []string{fmt.Sprintf("fetch snapshots: %v", err)}
	}

	var errs []string
	for _, snap := range snapshots {
		if tok, ok := byMint[snap.Mint]; ok {
			tok.MarketCap = snap.MarketCap
			tok.Volume24h = snap.Volume24h
		}
	}

	stored := 0
	if o.snapshotStore != nil && len(snapshots) > 0 {
		if err := o.snapshotStore.InsertBatch(ctx, snapshots); err != nil {
			errs = append(errs, fmt.Sprintf("store snapshots: %v", err))
		} else {
			stored = len(snapshots)
		}
	}

	return stored, errs
}

// loadParticipants reads runners and candidates from the token store.
func (o *Orchestrator) loadParticipants(ctx context.Context) ([]domain.RunnerToken, []domain.CandidateToken, error) {
	runnerRecords, err := o.tokenStore.ListRunners(ctx, o.marketCapFloor)
	if err != nil {
		return nil, nil, fmt.Errorf("list runners: %w", err)
	}

	candidateRecords, err := o.tokenStore.ListCandidates(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list candidates: %w", err)
	}

	runners := make([]domain.RunnerToken, len(runnerRecords))
	for i, r := range runnerRecords {
		runners[i] = domain.RunnerToken{
			TokenID:    r.TokenID,
			Descriptor: domain.TokenDescriptor{Name: r.Name, Symbol: r.Symbol, Keywords: r.Keywords},
			MarketCap:  r.MarketCap,
		}
	}

	candidates := make([]domain.CandidateToken, len(candidateRecords))
	for i, c := range candidateRecords {
		candidates[i] = domain.CandidateToken{
			TokenID:    c.TokenID,
			Descriptor: domain.TokenDescriptor{Name: c.Name, Symbol: c.Symbol, Keywords: c.Keywords},
		}
	}

	return runners, candidates, nil
}

// persistMatches inserts match records and sets parent links.
// Duplicate match records (re-run over the same pair) are skipped.
func (o *Orchestrator) persistMatches(ctx context.Context, matches []domain.Match, runAt int64) (int, []string) {
	var linked int
	var errs []string

	for _, m := range matches {
		record := &domain.MatchRecord{
			MatchID:        idhash.ComputeMatchID(m.CandidateID, m.RunnerID, m.Method),
			CandidateID:    m.CandidateID,
			RunnerID:       m.RunnerID,
			Method:         m.Method,
			Confidence:     m.Confidence,
			Explanation:    m.Explanation,
			AgreementCount: m.AgreementCount,
			MatchedAt:      runAt,
		}

		if err := o.matchStore.Insert(ctx, record); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			errs = append(errs, fmt.Sprintf("insert match %s: %v", record.MatchID, err))
			continue
		}

		if err := o.tokenStore.SetParent(ctx, m.CandidateID, m.RunnerID, m.Method, m.Confidence); err != nil {
			errs = append(errs, fmt.Sprintf("link %s -> %s: %v", m.CandidateID, m.RunnerID, err))
			continue
		}
		linked++
	}

	return linked, errs
}

// consultAdvisor asks for a second opinion on candidates the matcher left
// unlinked and persists any verdict that clears the confidence threshold.
func (o *Orchestrator) consultAdvisor(
	ctx context.Context,
	runners []domain.RunnerToken,
	candidates []domain.CandidateToken,
	matches []domain.Match,
	runAt int64,
) (int, []string) {
	matched := make(map[string]bool, len(matches))
	for _, m := range matches {
		matched[m.CandidateID] = true
	}

	var linked int
	var errs []string

	for _, cand := range candidates {
		if matched[cand.TokenID] {
			continue
		}

		opinion, err := o.advisor.Review(ctx, cand, runners)
		if err != nil {
			errs = append(errs, fmt.Sprintf("advisory %s: %v", cand.TokenID, err))
			continue
		}
		if opinion == nil || opinion.Confidence < o.minConfidence {
			continue
		}

		record := &domain.MatchRecord{
			MatchID:        idhash.ComputeMatchID(cand.TokenID, opinion.RunnerID, "advisory"),
			CandidateID:    cand.TokenID,
			RunnerID:       opinion.RunnerID,
			Method:         "advisory",
			Confidence:     opinion.Confidence,
			Explanation:    opinion.Explanation,
			AgreementCount: 1,
			MatchedAt:      runAt,
		}

		if err := o.matchStore.Insert(ctx, record); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			errs = append(errs, fmt.Sprintf("insert advisory match %s: %v", record.MatchID, err))
			continue
		}
		if err := o.tokenStore.SetParent(ctx, cand.TokenID, opinion.RunnerID, "advisory", opinion.Confidence); err != nil {
			errs = append(errs, fmt.Sprintf("advisory link %s: %v", cand.TokenID, err))
			continue
		}
		linked++
	}

	return linked, errs
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
