package domain

// DetectionResult is the verdict of a single detection method for one
// (runner, candidate) pair.
type DetectionResult struct {
	Matched     bool
	Method      string
	Confidence  int // 0-100 heuristic score, 0 when not matched
	Explanation string
}

// AggregateResult is the fused verdict over all detection methods for one
// (runner, candidate) pair. Derived deterministically from the per-method
// results; no hidden state.
type AggregateResult struct {
	IsDerivative   bool
	BestMethod     string
	Confidence     int               // best method confidence plus agreement bonus, clamped to 99
	Explanation    string
	Methods        []DetectionResult // matched methods only, sorted by confidence descending
	AgreementCount int               // number of distinct methods that matched
}

// Match links a candidate to its best-matching runner for one batch run.
type Match struct {
	CandidateID    string
	RunnerID       string
	Method         string
	Confidence     int
	Explanation    string
	AgreementCount int
}

// MatchRecord represents a persisted match outcome.
// Corresponds to the matches table in PostgreSQL.
type MatchRecord struct {
	MatchID        string // PRIMARY KEY, deterministic hash
	CandidateID    string // FK to tokens
	RunnerID       string // FK to tokens
	Method         string
	Confidence     int
	Explanation    string
	AgreementCount int
	MatchedAt      int64 // batch run timestamp (ms)
	CreatedAt      int64 // record creation timestamp (ms)
}
