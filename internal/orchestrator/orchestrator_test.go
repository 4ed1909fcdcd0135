package orchestrator

import (
	"context"
	"errors"
	"testing"

	"solana-derivative-lab/internal/advisory"
	"solana-derivative-lab/internal/detect"
	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/idhash"
	"solana-derivative-lab/internal/ingestion/stub"
	"solana-derivative-lab/internal/matcher"
	"solana-derivative-lab/internal/storage/memory"
)

// testStores holds all memory stores for testing.
type testStores struct {
	tokenStore    *memory.TokenStore
	matchStore    *memory.MatchStore
	snapshotStore *memory.SnapshotStore
}

func createTestStores() *testStores {
	return &testStores{
		tokenStore:    memory.NewTokenStore(),
		matchStore:    memory.NewMatchStore(),
		snapshotStore: memory.NewSnapshotStore(),
	}
}

func newTestMatcher() *matcher.Matcher {
	return matcher.New(detect.New(detect.DefaultConfig()))
}

func profile(mint, name, symbol string, marketCap float64) *domain.TokenRecord {
	return &domain.TokenRecord{
		TokenID:      idhash.ComputeTokenID(mint),
		Mint:         mint,
		Name:         name,
		Symbol:       symbol,
		MarketCap:    marketCap,
		DiscoveredAt: 1700000000000,
		UpdatedAt:    1700000000000,
	}
}

func TestOrchestrator_Run_Empty(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	orch := New(Options{
		TokenStore:     stores.tokenStore,
		MatchStore:     stores.matchStore,
		Matcher:        newTestMatcher(),
		TokenSource:    stub.NewStubTokenSource(nil),
		MinConfidence:  70,
		MarketCapFloor: 1_000_000,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if result.TokensIngested != 0 {
		t.Errorf("expected 0 ingested, got %d", result.TokensIngested)
	}
	if result.MatchesFound != 0 {
		t.Errorf("expected 0 matches, got %d", result.MatchesFound)
	}
}

func TestOrchestrator_Run_LinksDerivatives(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	source := stub.NewStubTokenSource([]*domain.TokenRecord{
		profile("MintPepe", "Pepe", "PEPE", 5_000_000),
		profile("MintBaby", "Baby Pepe", "BABYPEPE", 10_000),
		profile("MintNovel", "Quantum Ledger", "QLX", 20_000),
	})

	orch := New(Options{
		TokenStore:     stores.tokenStore,
		MatchStore:     stores.matchStore,
		Matcher:        newTestMatcher(),
		TokenSource:    source,
		MinConfidence:  70,
		MarketCapFloor: 1_000_000,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.TokensIngested != 3 {
		t.Errorf("expected 3 ingested, got %d", result.TokensIngested)
	}
	if result.RunnersSelected != 1 {
		t.Errorf("expected 1 runner, got %d", result.RunnersSelected)
	}
	if result.CandidatesEvaluated != 2 {
		t.Errorf("expected 2 candidates, got %d", result.CandidatesEvaluated)
	}
	if result.MatchesFound != 1 {
		t.Errorf("expected 1 match, got %d", result.MatchesFound)
	}
	if result.ParentsLinked != 1 {
		t.Errorf("expected 1 linked, got %d", result.ParentsLinked)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	// The derivative carries a parent link to the runner.
	baby, err := stores.tokenStore.GetByID(ctx, idhash.ComputeTokenID("MintBaby"))
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if baby.ParentTokenID == nil || *baby.ParentTokenID != idhash.ComputeTokenID("MintPepe") {
		t.Errorf("expected parent link to pepe runner, got %v", baby.ParentTokenID)
	}

	// The novel token stays unlinked.
	novel, err := stores.tokenStore.GetByID(ctx, idhash.ComputeTokenID("MintNovel"))
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if novel.ParentTokenID != nil {
		t.Errorf("expected no parent for novel token, got %v", *novel.ParentTokenID)
	}

	// A match record was persisted.
	records, err := stores.matchStore.GetByCandidateID(ctx, idhash.ComputeTokenID("MintBaby"))
	if err != nil {
		t.Fatalf("GetByCandidateID: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 match record, got %d", len(records))
	}
	if records[0].Confidence < 95 {
		t.Errorf("expected high confidence, got %d", records[0].Confidence)
	}
}

func TestOrchestrator_Run_Idempotent(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	source := stub.NewStubTokenSource([]*domain.TokenRecord{
		profile("MintPepe", "Pepe", "PEPE", 5_000_000),
		profile("MintBaby", "Baby Pepe", "BABYPEPE", 10_000),
	})

	orch := New(Options{
		TokenStore:     stores.tokenStore,
		MatchStore:     stores.matchStore,
		Matcher:        newTestMatcher(),
		TokenSource:    source,
		MinConfidence:  70,
		MarketCapFloor: 1_000_000,
	})

	if _, err := orch.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Re-running over the same pair must not error or duplicate records.
	// The stub only returns profiles updated in [lastRun, now], so reset
	// the window by running against updated timestamps via a fresh orchestrator.
	orch2 := New(Options{
		TokenStore:     stores.tokenStore,
		MatchStore:     stores.matchStore,
		Matcher:        newTestMatcher(),
		TokenSource:    source,
		MinConfidence:  70,
		MarketCapFloor: 1_000_000,
	})
	result, err := orch2.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors on rerun: %v", result.Errors)
	}

	records, err := stores.matchStore.GetByCandidateID(ctx, idhash.ComputeTokenID("MintBaby"))
	if err != nil {
		t.Fatalf("GetByCandidateID: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 match record after rerun, got %d", len(records))
	}
}

func TestOrchestrator_Run_SnapshotsPromoteRunners(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	// Profile reports a stale sub-floor market cap; the snapshot has it above.
	source := stub.NewStubTokenSource([]*domain.TokenRecord{
		profile("MintDoge", "Doge", "DOGE", 500_000),
		profile("MintBaby", "Baby Doge", "BABYDOGE", 10_000),
	})
	snapshots := stub.NewStubSnapshotSource([]*domain.MarketSnapshot{
		{Mint: "MintDoge", Timestamp: 1700000005000, PriceUSD: 0.2, MarketCap: 2_000_000, Volume24h: 100_000},
	})

	orch := New(Options{
		TokenStore:     stores.tokenStore,
		MatchStore:     stores.matchStore,
		SnapshotStore:  stores.snapshotStore,
		Matcher:        newTestMatcher(),
		TokenSource:    source,
		SnapshotSource: snapshots,
		MinConfidence:  70,
		MarketCapFloor: 1_000_000,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.SnapshotsStored != 1 {
		t.Errorf("expected 1 snapshot stored, got %d", result.SnapshotsStored)
	}
	if result.RunnersSelected != 1 {
		t.Errorf("expected doge promoted to runner, got %d runners", result.RunnersSelected)
	}
	if result.ParentsLinked != 1 {
		t.Errorf("expected baby doge linked, got %d", result.ParentsLinked)
	}

	stored, err := stores.snapshotStore.GetLatestByMint(ctx, "MintDoge")
	if err != nil {
		t.Fatalf("GetLatestByMint: %v", err)
	}
	if stored.MarketCap != 2_000_000 {
		t.Errorf("unexpected stored market cap: %f", stored.MarketCap)
	}
}

// approvingAdvisor links every candidate to a fixed runner.
type approvingAdvisor struct {
	runnerID   string
	confidence int
	reviewed   int
}

func (a *approvingAdvisor) Review(_ context.Context, _ domain.CandidateToken, _ []domain.RunnerToken) (*advisory.Opinion, error) {
	a.reviewed++
	return &advisory.Opinion{
		RunnerID:    a.runnerID,
		Confidence:  a.confidence,
		Explanation: "reviewed externally",
	}, nil
}

func TestOrchestrator_Run_AdvisorLinksUnmatched(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	source := stub.NewStubTokenSource([]*domain.TokenRecord{
		profile("MintPepe", "Pepe", "PEPE", 5_000_000),
		profile("MintNovel", "Quantum Ledger", "QLX", 20_000),
	})

	advisor := &approvingAdvisor{
		runnerID:   idhash.ComputeTokenID("MintPepe"),
		confidence: 80,
	}

	orch := New(Options{
		TokenStore:     stores.tokenStore,
		MatchStore:     stores.matchStore,
		Matcher:        newTestMatcher(),
		TokenSource:    source,
		Advisor:        advisor,
		MinConfidence:  70,
		MarketCapFloor: 1_000_000,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if advisor.reviewed != 1 {
		t.Errorf("expected advisor consulted once, got %d", advisor.reviewed)
	}
	if result.AdvisoryLinked != 1 {
		t.Errorf("expected 1 advisory link, got %d", result.AdvisoryLinked)
	}

	novel, err := stores.tokenStore.GetByID(ctx, idhash.ComputeTokenID("MintNovel"))
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if novel.ParentTokenID == nil {
		t.Fatal("expected advisory parent link")
	}
	if novel.ParentMethod == nil || *novel.ParentMethod != "advisory" {
		t.Errorf("expected advisory method, got %v", novel.ParentMethod)
	}
}

func TestOrchestrator_Run_NoopAdvisorLinksNothing(t *testing.T) {
	ctx := context.Background()
	stores := createTestStores()

	source := stub.NewStubTokenSource([]*domain.TokenRecord{
		profile("MintPepe", "Pepe", "PEPE", 5_000_000),
		profile("MintNovel", "Quantum Ledger", "QLX", 20_000),
	})

	orch := New(Options{
		TokenStore:     stores.tokenStore,
		MatchStore:     stores.matchStore,
		Matcher:        newTestMatcher(),
		TokenSource:    source,
		Advisor:        advisory.NewNoop(),
		MinConfidence:  70,
		MarketCapFloor: 1_000_000,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.AdvisoryLinked != 0 {
		t.Errorf("expected no advisory links, got %d", result.AdvisoryLinked)
	}
}

func TestDedupeByTokenID(t *testing.T) {
	a1 := profile("MintA", "A", "A", 1)
	a2 := profile("MintA", "A refreshed", "A", 2)
	b := profile("MintB", "B", "B", 1)

	out := dedupeByTokenID([]*domain.TokenRecord{a1, b, a2})
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Name != "A refreshed" {
		t.Errorf("expected later record to win, got %q", out[0].Name)
	}
	if out[1] != b {
		t.Error("expected b preserved in order")
	}
}

// failingSource always errors.
type failingSource struct{}

func (failingSource) FetchTokens(context.Context, int64, int64) ([]*domain.TokenRecord, error) {
	return nil, errors.New("source down")
}

func TestOrchestrator_Run_SourceError(t *testing.T) {
	stores := createTestStores()

	orch := New(Options{
		TokenStore:     stores.tokenStore,
		MatchStore:     stores.matchStore,
		Matcher:        newTestMatcher(),
		TokenSource:    failingSource{},
		MinConfidence:  70,
		MarketCapFloor: 1_000_000,
	})

	if _, err := orch.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing source")
	}
}
