package reporting

import "time"

// Report summarizes derivative detection results for a time window.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	WindowStart int64 // Unix ms
	WindowEnd   int64 // Unix ms

	// Data Summary
	Summary Summary

	// Top matches in the window, sorted by confidence descending
	TopMatches []MatchRow

	// Per-method totals (sorted by count descending, then method)
	MethodTotals []MethodTotalRow

	// Per-runner derivative counts (sorted by count descending, then symbol)
	RunnerTotals []RunnerTotalRow
}

// Summary contains corpus-wide counts.
type Summary struct {
	TotalTokens        int
	Runners            int
	Candidates         int
	LinkedCandidates   int
	UnlinkedCandidates int
	MatchesInWindow    int
}

// MatchRow is one row in the top-matches table.
type MatchRow struct {
	CandidateSymbol string
	CandidateName   string
	RunnerSymbol    string
	Method          string
	Confidence      int
	AgreementCount  int
	Explanation     string
}

// MethodTotalRow aggregates matches by winning detection method.
type MethodTotalRow struct {
	Method        string
	Count         int
	AvgConfidence float64
}

// RunnerTotalRow counts derivatives linked to one runner.
type RunnerTotalRow struct {
	RunnerSymbol string
	RunnerID     string
	Derivatives  int
}
