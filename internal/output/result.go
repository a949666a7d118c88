// Package output provides shared result serialization for logsift JSON output.
package output

import (
	"github.com/farcloser/logsift/internal/source"
	"github.com/farcloser/logsift/internal/types"
)

// WorstSeverity returns the highest severity among issues, SeverityNone when there are none.
func WorstSeverity(issues []*types.Issue) types.Severity {
	worst := types.SeverityNone

	for _, issue := range issues {
		worst = max(worst, issue.Severity)
	}

	return worst
}

// IssuesToMap converts issues into the canonical map structure used for JSON and JSONL serialization.
func IssuesToMap(issues []*types.Issue) map[string]any {
	entries := make([]any, 0, len(issues))
	for _, issue := range issues {
		entries = append(entries, IssueToMap(issue))
	}

	return map[string]any{
		"summary": map[string]any{
			"issue_count":    len(issues),
			"worst_severity": WorstSeverity(issues).String(),
		},
		"issues": entries,
	}
}

// ResultToMap converts one scanned source.
func ResultToMap(result *source.Result) map[string]any {
	meta := IssuesToMap(result.Issues)
	meta["lines"] = result.Lines

	return meta
}

// IssueToMap converts one issue.
func IssueToMap(issue *types.Issue) map[string]any {
	meta := map[string]any{
		"id":       issue.ID,
		"kind":     string(issue.Kind),
		"severity": issue.Severity.String(),
		"message":  issue.Message,
		"line":     issue.Line,
		"raw":      stringsToAny(issue.RawLines),
		"stack":    stringsToAny(issue.StackLines),
	}

	if issue.Source != "" {
		meta["source"] = issue.Source
	}

	if issue.Partial {
		meta["partial"] = true
	}

	return meta
}

// SolutionToMap converts one solution.
func SolutionToMap(solution *types.Solution) map[string]any {
	meta := map[string]any{
		"issue_id":       solution.IssueID,
		"recommendation": solution.Recommendation,
		"confidence":     solution.Confidence,
		"generated":      solution.Generated,
	}

	if solution.Code != "" {
		meta["code"] = solution.Code
	}

	if len(solution.References) > 0 {
		meta["references"] = stringsToAny(solution.References)
	}

	return meta
}

func stringsToAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, value := range values {
		out = append(out, value)
	}

	return out
}
