//nolint:wrapcheck
package main

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/logsift/internal/output"
	"github.com/farcloser/logsift/internal/source"
	"github.com/farcloser/logsift/internal/types"
)

func outputResults(results []*source.Result, solutions []*types.Solution, formatName string, debug bool) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	byID := make(map[string]*types.Solution, len(solutions))
	for _, solution := range solutions {
		byID[solution.IssueID] = solution
	}

	data := make([]*format.Data, 0, len(results))

	for _, result := range results {
		var meta map[string]any
		if debug {
			meta = debugOutput(result, byID)
		} else {
			meta = buildFriendlyOutput(result, byID)
		}

		data = append(data, &format.Data{
			Object: result.Path,
			Meta:   meta,
		})
	}

	return formatter.PrintAll(data, os.Stdout)
}

// debugOutput is the full serialization, with solutions attached to their issue.
func debugOutput(result *source.Result, solutions map[string]*types.Solution) map[string]any {
	meta := output.ResultToMap(result)

	if len(solutions) == 0 {
		return meta
	}

	if issues, ok := meta["issues"].([]any); ok {
		for idx, entry := range issues {
			issueMap, ok := entry.(map[string]any)
			if !ok {
				continue
			}

			if solution, ok := solutions[result.Issues[idx].ID]; ok {
				issueMap["solution"] = output.SolutionToMap(solution)
			}
		}
	}

	return meta
}

// buildFriendlyOutput creates a user-friendly summary of one scanned source.
func buildFriendlyOutput(result *source.Result, solutions map[string]*types.Solution) map[string]any {
	worst := output.WorstSeverity(result.Issues)
	meta := map[string]any{
		"summary": fmt.Sprintf("%d issues found in %d lines (worst: %s)", len(result.Issues), result.Lines, worst),
	}

	// Group issues by kind.
	kindIssues := make(map[types.Kind][]any)
	kindWorst := make(map[types.Kind]types.Severity)

	for _, issue := range result.Issues {
		marker := "  "
		if issue.Partial {
			marker = "~~"
		}

		line := fmt.Sprintf("%s [%s] line %d: %s", marker, issue.Severity, issue.Line, issue.Message)
		if len(issue.StackLines) > 0 {
			line += fmt.Sprintf(" (%d frames, top: %s)", len(issue.StackLines), issue.StackLines[0])
		}

		if solution, ok := solutions[issue.ID]; ok {
			line += fmt.Sprintf(" - fix (%.0f%% confidence): %s", solution.Confidence*100, solution.Recommendation)
		}

		kindIssues[issue.Kind] = append(kindIssues[issue.Kind], line)
		kindWorst[issue.Kind] = max(kindWorst[issue.Kind], issue.Severity)
	}

	if len(kindIssues) > 0 {
		kinds := make([]types.Kind, 0, len(kindIssues))
		for kind := range kindIssues {
			kinds = append(kinds, kind)
		}

		// Worst kinds first, then by name.
		slices.SortFunc(kinds, func(a, b types.Kind) int {
			if c := cmp.Compare(kindWorst[b], kindWorst[a]); c != 0 {
				return c
			}

			return cmp.Compare(a, b)
		})

		issues := make(map[string]any, len(kinds))
		for idx, kind := range kinds {
			issues[fmt.Sprintf("%d. %s", idx+1, kind)] = kindIssues[kind]
		}

		meta["issues"] = issues
	}

	return meta
}
