// Package resolve proposes solutions for detected issues.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/farcloser/logsift/internal/integration/generator"
	"github.com/farcloser/logsift/internal/types"
)

// Lines of an issue included in a prompt.
const maxPromptLines = 50

// Resolver proposes a solution for an issue.
type Resolver interface {
	Resolve(ctx context.Context, issue *types.Issue) (*types.Solution, error)
}

// Canned answers from a fixed table keyed by kind. It never fails.
type Canned struct{}

//nolint:gochecknoglobals // configuration data, effectively const
var cannedAdvice = map[types.Kind]string{
	types.KindError:     "Review the failing operation and the log lines preceding it; check inputs and dependencies it relies on.",
	types.KindException: "Inspect the innermost application frame of the stack trace and guard the failing call or fix its input.",
	types.KindCrash:     "The process terminated abnormally. Check resource limits (memory, file descriptors), core dumps and recent deploys.",
}

const cannedDefault = "Investigate the log block around the reported line; no specific guidance is available for this kind."

func (Canned) Resolve(_ context.Context, issue *types.Issue) (*types.Solution, error) {
	advice, ok := cannedAdvice[issue.Kind]
	if !ok {
		advice = cannedDefault
	}

	return &types.Solution{
		IssueID:        issue.ID,
		Recommendation: advice,
		Confidence:     0.1,
	}, nil
}

// Generated asks an external text generation command, falling back on any failure.
type Generated struct {
	Command  []string
	Fallback Resolver // nil means Canned
}

func (g *Generated) Resolve(ctx context.Context, issue *types.Issue) (*types.Solution, error) {
	response, err := generator.Generate(ctx, g.Command, Prompt(issue))
	if err != nil {
		slog.Warn("generator failed, using fallback", "issue", issue.ID, "error", err)

		fallback := g.Fallback
		if fallback == nil {
			fallback = Canned{}
		}

		return fallback.Resolve(ctx, issue)
	}

	return &types.Solution{
		IssueID:        issue.ID,
		Recommendation: response.Recommendation,
		Code:           response.Code,
		Confidence:     response.Confidence,
		References:     response.References,
		Generated:      true,
	}, nil
}

// Prompt builds the generation request for issue.
func Prompt(issue *types.Issue) string {
	var builder strings.Builder

	builder.WriteString("You are helping an operator fix a problem found in application logs.\n")
	builder.WriteString("Answer with a single JSON object: ")
	builder.WriteString(`{"recommendation": string, "code": string, "confidence": number between 0 and 1, "references": [string]}`)
	builder.WriteString("\n\n")
	fmt.Fprintf(&builder, "Kind: %s\nSeverity: %s\nMessage: %s\n", issue.Kind, issue.Severity, issue.Message)

	if issue.Source != "" {
		fmt.Fprintf(&builder, "Source: %s:%d\n", issue.Source, issue.Line)
	}

	if len(issue.StackLines) > 0 {
		builder.WriteString("\nStack:\n")

		for _, line := range head(issue.StackLines) {
			builder.WriteString(line)
			builder.WriteByte('\n')
		}
	}

	builder.WriteString("\nLog:\n")

	for _, line := range head(issue.RawLines) {
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	if omitted := len(issue.RawLines) - maxPromptLines; omitted > 0 {
		fmt.Fprintf(&builder, "(%d more lines omitted)\n", omitted)
	}

	return builder.String()
}

// All resolves issues, at most workers at a time. Solutions are returned in issue order.
func All(ctx context.Context, resolver Resolver, issues []*types.Issue, workers int) ([]*types.Solution, error) {
	solutions := make([]*types.Solution, len(issues))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, workers))

	for idx, issue := range issues {
		group.Go(func() error {
			solution, err := resolver.Resolve(gctx, issue)
			if err != nil {
				return fmt.Errorf("resolving issue %s: %w", issue.ID, err)
			}

			solutions[idx] = solution

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return solutions, nil
}

func head(lines []string) []string {
	return lines[:min(len(lines), maxPromptLines)]
}
