// Package main provides the unified service that runs all components together:
// - Ingestion: market-data HTTP source plus a WebSocket new-token feed
// - Matching (scheduled): batch derivative detection and parent linking
// - Reporting (scheduled): DERIVATIVES.md and MATCHES.csv
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"solana-derivative-lab/internal/advisory"
	"solana-derivative-lab/internal/detect"
	"solana-derivative-lab/internal/ingestion"
	"solana-derivative-lab/internal/matcher"
	"solana-derivative-lab/internal/observability"
	"solana-derivative-lab/internal/orchestrator"
	"solana-derivative-lab/internal/reporting"
	"solana-derivative-lab/internal/solana"
	"solana-derivative-lab/internal/storage"
	chstore "solana-derivative-lab/internal/storage/clickhouse"
	"solana-derivative-lab/internal/storage/memory"
	"solana-derivative-lab/internal/storage/migrations"
	pgstore "solana-derivative-lab/internal/storage/postgres"
)

// Server holds all components of the unified service.
type Server struct {
	// Configuration
	marketDataURL  string
	feedEndpoint   string
	rpcEndpoint    string
	outputDir      string
	batchInterval  time.Duration
	reportInterval time.Duration
	minConfidence  int
	marketCapFloor float64
	workers        int

	// Stores
	stores *allStores

	// Components
	feed     *ingestion.TokenFeed
	resolver *ingestion.MetadataResolver
	source   *ingestion.HTTPMarketSource
	logger   *log.Logger

	// State
	mu            sync.Mutex
	started       time.Time
	lastBatchRun  time.Time
	lastReportRun time.Time
	batchRunning  bool
	reportRunning bool

	// Stats
	batchRuns  int
	reportRuns int
}

// allStores holds all storage implementations.
type allStores struct {
	tokenStore    storage.TokenStore
	matchStore    storage.MatchStore
	snapshotStore storage.SnapshotStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	marketDataURL := flag.String("market-data-url", os.Getenv("MARKET_DATA_URL"), "Market data HTTP API base URL")
	feedEndpoint := flag.String("feed-endpoint", os.Getenv("TOKEN_FEED_ENDPOINT"), "New-token WebSocket feed endpoint (optional)")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint for metadata resolution (optional)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	outputDir := flag.String("output-dir", "output", "Output directory for reports")
	batchInterval := flag.Duration("batch-interval", 10*time.Minute, "Matching batch run interval")
	reportInterval := flag.Duration("report-interval", 6*time.Hour, "Report generation interval")
	minConfidence := flag.Int("min-confidence", 70, "Minimum confidence for a match to count")
	marketCapFloor := flag.Float64("market-cap-floor", 1_000_000, "Market cap (USD) at which a token counts as a runner")
	workers := flag.Int("workers", 4, "Concurrent candidate evaluations per batch")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *marketDataURL == "" {
		logger.Fatal("--market-data-url is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Create server
	server := &Server{
		marketDataURL:  *marketDataURL,
		feedEndpoint:   *feedEndpoint,
		rpcEndpoint:    *rpcEndpoint,
		outputDir:      *outputDir,
		batchInterval:  *batchInterval,
		reportInterval: *reportInterval,
		minConfidence:  *minConfidence,
		marketCapFloor: *marketCapFloor,
		workers:        *workers,
		stores:         stores,
		source:         ingestion.NewHTTPMarketSource(*marketDataURL),
		logger:         logger,
	}

	if *rpcEndpoint != "" {
		server.resolver = ingestion.NewMetadataResolver(solana.NewHTTPClient(*rpcEndpoint))
	}

	if *feedEndpoint != "" {
		feed, err := ingestion.NewTokenFeed(ctx, *feedEndpoint, nil)
		if err != nil {
			logger.Fatalf("Failed to connect token feed: %v", err)
		}
		defer feed.Close()
		server.feed = feed
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	go server.startHTTPServer(*metricsAddr)

	// Run the unified server
	err = server.Run(ctx)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores, running migrations for the
// database-backed mode.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			tokenStore:    memory.NewTokenStore(),
			matchStore:    memory.NewMatchStore(),
			snapshotStore: memory.NewSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse (migrations runner returns a ready connection)
	chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &allStores{
		tokenStore:    pgstore.NewTokenStore(pool),
		matchStore:    pgstore.NewMatchStore(pool),
		snapshotStore: chstore.NewSnapshotStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return stores, cleanup, nil
}

// Run starts the unified server with all components.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("Starting unified server...")

	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	// Create error channel for goroutines
	errCh := make(chan error, 2)

	// Start batch scheduler in background
	go func() {
		err := s.runBatchScheduler(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("batch scheduler: %w", err)
		}
	}()

	// Start report scheduler in background
	go func() {
		err := s.runReportScheduler(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("report scheduler: %w", err)
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// runBatchScheduler runs matching batches on schedule.
func (s *Server) runBatchScheduler(ctx context.Context) error {
	s.logger.Printf("Starting batch scheduler (interval: %v)...", s.batchInterval)

	// Orchestrator keeps its ingestion watermark between runs.
	orch := orchestrator.New(orchestrator.Options{
		TokenStore:     s.stores.tokenStore,
		MatchStore:     s.stores.matchStore,
		SnapshotStore:  s.stores.snapshotStore,
		TokenSource:    s.source,
		SnapshotSource: s.source,
		Feed:           s.feed,
		Matcher:        matcher.New(detect.New(detect.DefaultConfig()), matcher.WithWorkers(s.workers)),
		Advisor:        advisory.NewNoop(),
		MinConfidence:  s.minConfidence,
		MarketCapFloor: s.marketCapFloor,
		Verbose:        true,
	})

	// Run immediately on start
	s.runBatch(ctx, orch)

	ticker := time.NewTicker(s.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runBatch(ctx, orch)
		}
	}
}

// runBatch executes one matching batch.
func (s *Server) runBatch(ctx context.Context, orch *orchestrator.Orchestrator) {
	s.mu.Lock()
	if s.batchRunning {
		s.mu.Unlock()
		s.logger.Println("Batch already running, skipping...")
		return
	}
	s.batchRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.batchRunning = false
		s.lastBatchRun = time.Now()
		s.batchRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Running matching batch...")
	start := time.Now()

	if s.feed != nil {
		observability.DefaultMetrics.FeedBufferSize.Set(float64(s.feed.Buffered()))
	}

	s.resolveMissingMetadata(ctx)

	result, err := orch.Run(ctx)
	if err != nil {
		s.logger.Printf("Batch error: %v", err)
		observability.RecordBatchRun("error", time.Since(start).Seconds())
		return
	}

	for _, msg := range result.Errors {
		s.logger.Printf("Batch warning: %s", msg)
	}
	s.logger.Printf("Batch completed in %v: %d tokens ingested, %d runners, %d candidates, %d matches, %d linked",
		time.Since(start), result.TokensIngested, result.RunnersSelected,
		result.CandidatesEvaluated, result.MatchesFound, result.ParentsLinked+result.AdvisoryLinked)

	observability.RecordBatchRun("success", time.Since(start).Seconds())
	observability.DefaultMetrics.TokensIngested.Add(float64(result.TokensIngested))
	observability.DefaultMetrics.SnapshotsStored.Add(float64(result.SnapshotsStored))
	observability.DefaultMetrics.MatchesFound.Add(float64(result.MatchesFound))
	observability.DefaultMetrics.ParentsLinked.Add(float64(result.ParentsLinked + result.AdvisoryLinked))
	observability.DefaultMetrics.RunnersSelected.Set(float64(result.RunnersSelected))
	observability.DefaultMetrics.CandidatesInBatch.Set(float64(result.CandidatesEvaluated))
	observability.DefaultMetrics.LastSuccessfulRun.SetToCurrentTime()
}

// resolveMissingMetadata backfills on-chain names and symbols for tokens
// that arrived from the feed without them. Requires --rpc-endpoint.
func (s *Server) resolveMissingMetadata(ctx context.Context) {
	if s.resolver == nil {
		return
	}

	candidates, err := s.stores.tokenStore.ListCandidates(ctx)
	if err != nil {
		s.logger.Printf("List candidates for metadata resolution: %v", err)
		observability.RecordIngestionError("metadata")
		return
	}

	resolved := 0
	for _, tok := range candidates {
		if tok.Name != "" && tok.Symbol != "" {
			continue
		}
		meta, err := s.resolver.Resolve(ctx, tok.Mint)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Printf("Resolve metadata for %s: %v", tok.Mint, err)
				observability.RecordIngestionError("metadata")
			}
			continue
		}
		tok.Name = meta.Name
		tok.Symbol = meta.Symbol
		tok.UpdatedAt = time.Now().UnixMilli()
		if err := s.stores.tokenStore.Upsert(ctx, tok); err != nil {
			s.logger.Printf("Upsert resolved metadata for %s: %v", tok.Mint, err)
			continue
		}
		resolved++
	}
	if resolved > 0 {
		s.logger.Printf("Resolved on-chain metadata for %d token(s)", resolved)
	}
}

// runReportScheduler runs report generation on schedule.
func (s *Server) runReportScheduler(ctx context.Context) error {
	s.logger.Printf("Starting report scheduler (interval: %v)...", s.reportInterval)

	ticker := time.NewTicker(s.reportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runReport(ctx)
		}
	}
}

// runReport generates reports covering the last report interval.
func (s *Server) runReport(ctx context.Context) {
	s.mu.Lock()
	if s.reportRunning {
		s.mu.Unlock()
		s.logger.Println("Report generation already running, skipping...")
		return
	}
	s.reportRunning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reportRunning = false
		s.lastReportRun = time.Now()
		s.reportRuns++
		s.mu.Unlock()
	}()

	s.logger.Println("Generating reports...")
	start := time.Now()

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		s.logger.Printf("Failed to create output directory: %v", err)
		return
	}

	end := time.Now().UnixMilli()
	windowStart := end - s.reportInterval.Milliseconds()

	gen := reporting.NewGenerator(s.stores.tokenStore, s.stores.matchStore)
	report, err := gen.Generate(ctx, windowStart, end, 25)
	if err != nil {
		s.logger.Printf("Report generation error: %v", err)
		return
	}

	mdPath := filepath.Join(s.outputDir, "DERIVATIVES.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0644); err != nil {
		s.logger.Printf("Write %s: %v", mdPath, err)
		return
	}
	csvPath := filepath.Join(s.outputDir, "MATCHES.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.TopMatches)), 0644); err != nil {
		s.logger.Printf("Write %s: %v", csvPath, err)
		return
	}

	s.logger.Printf("Reports generated in %v to %s/", time.Since(start), s.outputDir)
}

// startHTTPServer starts the HTTP server for health/metrics/status.
func (s *Server) startHTTPServer(addr string) {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	s.logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		s.logger.Printf("HTTP server error: %v", err)
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status        string    `json:"status"`
	Uptime        string    `json:"uptime"`
	FeedConnected bool      `json:"feed_connected"`
	FeedBuffered  int       `json:"feed_buffered"`
	LastBatchRun  time.Time `json:"last_batch_run,omitempty"`
	LastReportRun time.Time `json:"last_report_run,omitempty"`
	BatchRuns     int       `json:"batch_runs"`
	ReportRuns    int       `json:"report_runs"`
	BatchRunning  bool      `json:"batch_running"`
	ReportRunning bool      `json:"report_running"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		FeedConnected: s.feed != nil,
		LastBatchRun:  s.lastBatchRun,
		LastReportRun: s.lastReportRun,
		BatchRuns:     s.batchRuns,
		ReportRuns:    s.reportRuns,
		BatchRunning:  s.batchRunning,
		ReportRunning: s.reportRunning,
	}
	if s.feed != nil {
		resp.FeedBuffered = s.feed.Buffered()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
