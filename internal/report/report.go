// Package report renders issues and their solutions as an HTML document.
package report

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/farcloser/logsift/internal/output"
	"github.com/farcloser/logsift/internal/types"
)

//go:embed report.html.tmpl
var page string

//nolint:gochecknoglobals
var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent": func(value float64) string {
		return fmt.Sprintf("%.0f%%", value*100)
	},
}).Parse(page))

// Entry pairs an issue with its solution, which may be nil.
type Entry struct {
	Issue    *types.Issue
	Solution *types.Solution
}

// Document is the data rendered by Render.
type Document struct {
	Title     string
	Generated time.Time
	Worst     types.Severity
	Entries   []Entry
}

// Join pairs issues with solutions by issue ID, keeping issue order.
func Join(issues []*types.Issue, solutions []*types.Solution) []Entry {
	byID := make(map[string]*types.Solution, len(solutions))
	for _, solution := range solutions {
		if solution != nil {
			byID[solution.IssueID] = solution
		}
	}

	entries := make([]Entry, 0, len(issues))
	for _, issue := range issues {
		entries = append(entries, Entry{Issue: issue, Solution: byID[issue.ID]})
	}

	return entries
}

// New builds a document from issues and solutions.
func New(title string, issues []*types.Issue, solutions []*types.Solution) *Document {
	return &Document{
		Title:     title,
		Generated: time.Now(),
		Worst:     output.WorstSeverity(issues),
		Entries:   Join(issues, solutions),
	}
}

// Render writes doc as HTML.
func Render(w io.Writer, doc *Document) error {
	if err := pageTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	return nil
}
