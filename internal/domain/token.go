package domain

// TokenDescriptor is the pure comparison input for the detection engine.
// It carries no identity beyond (Name, Symbol); the batch matcher tracks
// identifiers separately.
type TokenDescriptor struct {
	Name     string   // display name, e.g. "Baby Pepe"
	Symbol   string   // ticker symbol, e.g. "BABYPEPE"
	Keywords []string // optional freeform keywords (image descriptions etc.), opaque strings
}

// RunnerToken is a high-market-cap token treated as a potential parent.
type RunnerToken struct {
	TokenID    string
	Descriptor TokenDescriptor
	MarketCap  float64 // USD, used for runner selection and bookkeeping only
}

// CandidateToken is a token evaluated for a possible parent link.
type CandidateToken struct {
	TokenID    string
	Descriptor TokenDescriptor
}

// TokenRecord represents a tracked token.
// Corresponds to the tokens table in PostgreSQL.
type TokenRecord struct {
	TokenID          string   // PRIMARY KEY, deterministic hash of mint
	Mint             string   // token mint address
	Name             string   // token name
	Symbol           string   // token symbol
	Keywords         []string // freeform keywords (nullable in storage)
	MarketCap        float64  // latest known market cap (USD)
	Volume24h        float64  // latest known 24h volume (USD)
	IsRunner         bool     // crossed the runner market-cap threshold
	ParentTokenID    *string  // runner this token derives from (nullable)
	ParentMethod     *string  // method that produced the parent link (nullable)
	ParentConfidence *int     // confidence of the parent link (nullable)
	DiscoveredAt     int64    // Unix timestamp in milliseconds
	UpdatedAt        int64    // last refresh timestamp (ms)
	CreatedAt        int64    // record creation timestamp (ms)
}

// MarketSnapshot is one observed market data point for a mint.
// Corresponds to the market_snapshots table in ClickHouse.
type MarketSnapshot struct {
	Mint      string
	Timestamp int64 // Unix timestamp in milliseconds
	PriceUSD  float64
	MarketCap float64
	Volume24h float64
}
