package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"solana-derivative-lab/internal/detect"
	"solana-derivative-lab/internal/domain"
	"solana-derivative-lab/internal/idhash"
	"solana-derivative-lab/internal/matcher"
	"solana-derivative-lab/internal/reporting"
	"solana-derivative-lab/internal/storage"
	"solana-derivative-lab/internal/storage/memory"
)

// tokenInput is one token in the --tokens JSON file.
type tokenInput struct {
	Mint      string   `json:"mint"`
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Keywords  []string `json:"keywords,omitempty"`
	MarketCap float64  `json:"market_cap"`
}

func main() {
	// Parse flags
	tokensPath := flag.String("tokens", "", "Path to JSON file with tokens to match (required)")
	outputDir := flag.String("output-dir", "output", "Output directory for generated files")
	minConfidence := flag.Int("min-confidence", 70, "Minimum confidence for a match to count")
	marketCapFloor := flag.Float64("market-cap-floor", 1_000_000, "Market cap (USD) at which a token counts as a runner")
	workers := flag.Int("workers", 4, "Concurrent candidate evaluations")
	topLimit := flag.Int("top", 25, "Rows in the top-matches table")
	flag.Parse()

	if *tokensPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --tokens is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()

	inputs, err := loadTokens(*tokensPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tokens: %v\n", err)
		os.Exit(1)
	}
	if len(inputs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: tokens file is empty")
		os.Exit(1)
	}

	tokenStore := memory.NewTokenStore()
	matchStore := memory.NewMatchStore()

	runners, candidates, err := seedStores(ctx, tokenStore, inputs, *marketCapFloor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding stores: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d tokens: %d runners, %d candidates\n", len(inputs), len(runners), len(candidates))

	m := matcher.New(detect.New(detect.DefaultConfig()), matcher.WithWorkers(*workers))
	matches, err := m.Match(ctx, runners, candidates, *minConfidence)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error matching: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d matches at confidence >= %d\n", len(matches), *minConfidence)

	matchedAt := time.Now().UnixMilli()
	if err := persistMatches(ctx, tokenStore, matchStore, matches, matchedAt); err != nil {
		fmt.Fprintf(os.Stderr, "Error persisting matches: %v\n", err)
		os.Exit(1)
	}

	if err := writeReports(ctx, tokenStore, matchStore, *outputDir, matchedAt, *topLimit); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing reports: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Reports written:")
	fmt.Printf("  - %s/DERIVATIVES.md\n", *outputDir)
	fmt.Printf("  - %s/MATCHES.csv\n", *outputDir)
}

// loadTokens reads and decodes the tokens JSON file.
func loadTokens(path string) ([]tokenInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inputs []tokenInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, in := range inputs {
		if in.Mint == "" || in.Symbol == "" {
			return nil, fmt.Errorf("token %d: mint and symbol are required", i)
		}
	}
	return inputs, nil
}

// seedStores upserts every token and splits them into runners and
// candidates by market cap.
func seedStores(ctx context.Context, tokenStore storage.TokenStore, inputs []tokenInput, floor float64) ([]domain.RunnerToken, []domain.CandidateToken, error) {
	now := time.Now().UnixMilli()

	var runners []domain.RunnerToken
	var candidates []domain.CandidateToken

	for _, in := range inputs {
		tokenID := idhash.ComputeTokenID(in.Mint)
		rec := &domain.TokenRecord{
			TokenID:      tokenID,
			Mint:         in.Mint,
			Name:         in.Name,
			Symbol:       in.Symbol,
			Keywords:     in.Keywords,
			MarketCap:    in.MarketCap,
			IsRunner:     in.MarketCap >= floor,
			DiscoveredAt: now,
			UpdatedAt:    now,
		}
		if err := tokenStore.Upsert(ctx, rec); err != nil {
			return nil, nil, fmt.Errorf("upsert %s: %w", in.Symbol, err)
		}

		desc := domain.TokenDescriptor{Name: in.Name, Symbol: in.Symbol, Keywords: in.Keywords}
		if rec.IsRunner {
			runners = append(runners, domain.RunnerToken{TokenID: tokenID, Descriptor: desc, MarketCap: in.MarketCap})
		} else {
			candidates = append(candidates, domain.CandidateToken{TokenID: tokenID, Descriptor: desc})
		}
	}
	return runners, candidates, nil
}

// persistMatches records match history and parent links.
func persistMatches(ctx context.Context, tokenStore storage.TokenStore, matchStore storage.MatchStore, matches []domain.Match, matchedAt int64) error {
	for _, match := range matches {
		rec := &domain.MatchRecord{
			MatchID:        idhash.ComputeMatchID(match.CandidateID, match.RunnerID, match.Method),
			CandidateID:    match.CandidateID,
			RunnerID:       match.RunnerID,
			Method:         match.Method,
			Confidence:     match.Confidence,
			Explanation:    match.Explanation,
			AgreementCount: match.AgreementCount,
			MatchedAt:      matchedAt,
			CreatedAt:      matchedAt,
		}
		if err := matchStore.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("insert match %s: %w", rec.MatchID, err)
		}
		if err := tokenStore.SetParent(ctx, match.CandidateID, match.RunnerID, match.Method, match.Confidence); err != nil {
			return fmt.Errorf("link %s: %w", match.CandidateID, err)
		}
	}
	return nil
}

// writeReports renders the Markdown report and the CSV match table.
func writeReports(ctx context.Context, tokenStore storage.TokenStore, matchStore storage.MatchStore, outputDir string, matchedAt int64, topLimit int) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	gen := reporting.NewGenerator(tokenStore, matchStore)
	report, err := gen.Generate(ctx, matchedAt, matchedAt, topLimit)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	mdPath := filepath.Join(outputDir, "DERIVATIVES.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		return err
	}

	csvPath := filepath.Join(outputDir, "MATCHES.csv")
	return os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.TopMatches)), 0644)
}
