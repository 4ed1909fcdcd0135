package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Derivative Detection Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Window: %d - %d (ms)\n\n", r.WindowStart, r.WindowEnd))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Tokens | %d |\n", r.Summary.TotalTokens))
	sb.WriteString(fmt.Sprintf("| Runners | %d |\n", r.Summary.Runners))
	sb.WriteString(fmt.Sprintf("| Candidates | %d |\n", r.Summary.Candidates))
	sb.WriteString(fmt.Sprintf("| Linked Candidates | %d |\n", r.Summary.LinkedCandidates))
	sb.WriteString(fmt.Sprintf("| Unlinked Candidates | %d |\n", r.Summary.UnlinkedCandidates))
	sb.WriteString(fmt.Sprintf("| Matches In Window | %d |\n", r.Summary.MatchesInWindow))
	sb.WriteString("\n")

	// Top matches
	sb.WriteString("## Top Matches\n\n")
	if len(r.TopMatches) > 0 {
		sb.WriteString("| Candidate | Name | Runner | Method | Confidence | Agreement | Explanation |\n")
		sb.WriteString("|-----------|------|--------|--------|------------|-----------|-------------|\n")
		for _, row := range r.TopMatches {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %d | %s |\n",
				row.CandidateSymbol, row.CandidateName, row.RunnerSymbol,
				row.Method, row.Confidence, row.AgreementCount, row.Explanation))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No matches available.\n\n")
	}

	// Method totals
	sb.WriteString("## Matches By Method\n\n")
	if len(r.MethodTotals) > 0 {
		sb.WriteString("| Method | Count | Avg Confidence |\n")
		sb.WriteString("|--------|-------|----------------|\n")
		for _, row := range r.MethodTotals {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f |\n",
				row.Method, row.Count, row.AvgConfidence))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No method totals available.\n\n")
	}

	// Runner totals
	sb.WriteString("## Derivatives By Runner\n\n")
	if len(r.RunnerTotals) > 0 {
		sb.WriteString("| Runner | Runner ID | Derivatives |\n")
		sb.WriteString("|--------|-----------|-------------|\n")
		for _, row := range r.RunnerTotals {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d |\n",
				row.RunnerSymbol, row.RunnerID, row.Derivatives))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No runner totals available.\n\n")
	}

	return sb.String()
}
