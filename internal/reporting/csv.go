package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders match rows as CSV string.
func RenderCSV(rows []MatchRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("candidate_symbol,candidate_name,runner_symbol,method,confidence,agreement_count,explanation\n")

	// Rows
	for _, m := range rows {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%d,%d,%s\n",
			csvField(m.CandidateSymbol),
			csvField(m.CandidateName),
			csvField(m.RunnerSymbol),
			csvField(m.Method),
			m.Confidence,
			m.AgreementCount,
			csvField(m.Explanation),
		))
	}

	return sb.String()
}

// csvField quotes values containing separators so explanations with commas
// stay in one column.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
