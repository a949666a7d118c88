package main

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/urfave/cli/v3"
	"gonum.org/v1/gonum/stat"
)

var errReportArg = errors.New("expected exactly one argument: path to report.jsonl")

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Produce a summary digest from a logsift JSONL report",
		ArgsUsage: "<report.jsonl>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Show every issue of a specific kind (e.g., crash, exception)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errReportArg
			}

			return runDigest(cmd.Args().First(), cmd.String("kind"))
		},
	}
}

func runDigest(reportPath, kindFilter string) error {
	records, err := readRecords(reportPath)
	if err != nil {
		return err
	}

	printDigest(records)

	if kindFilter != "" {
		printKindDetail(records, kindFilter)
	}

	return nil
}

func readRecords(path string) ([]digestRecord, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified report files
	if err != nil {
		return nil, fmt.Errorf("opening report: %w", err)
	}
	defer file.Close()

	var records []digestRecord

	scanner := bufio.NewScanner(file)

	const maxLineSize = 16 * 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		var rec digestRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			records = append(records, digestRecord{Error: "parse error"})

			continue
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	return records, nil
}

func printDigest(records []digestRecord) {
	total := len(records)
	failed := 0
	totalLines := 0
	sevDist := map[string]int{}
	issueDist := map[int]int{}
	kindStats := map[string]*kindBreakdown{}

	var rawSizes, frameCounts []float64

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			failed++

			continue
		}

		totalLines += rec.Analysis.Lines

		// Worst severity.
		worst := rec.Analysis.Summary.WorstSeverity
		if worst == "" || worst == "none" {
			worst = "clean"
		}

		sevDist[worst]++

		issueDist[rec.Analysis.Summary.IssueCount]++

		// Per-kind breakdown.
		for _, issue := range rec.Analysis.Issues {
			rawSizes = append(rawSizes, float64(len(issue.Raw)))
			frameCounts = append(frameCounts, float64(len(issue.Stack)))

			breakdown, ok := kindStats[issue.Kind]
			if !ok {
				breakdown = &kindBreakdown{Kind: issue.Kind}
				kindStats[issue.Kind] = breakdown
			}

			breakdown.Total++

			switch issue.Severity {
			case "critical":
				breakdown.Critical++
			case "high":
				breakdown.High++
			case "medium":
				breakdown.Medium++
			case "low":
				breakdown.Low++
			}
		}
	}

	fmt.Println("=== Logsift Report Digest ===")
	fmt.Println()
	fmt.Printf("Total files:   %d\n", total)
	fmt.Printf("Failed:        %d\n", failed)
	fmt.Printf("Scanned:       %d\n", total-failed)
	fmt.Printf("Lines:         %d\n", totalLines)
	fmt.Println()

	fmt.Println("--- Worst Severity ---")
	fmt.Printf("  Clean:     %d\n", sevDist["clean"])
	fmt.Printf("  Low:       %d\n", sevDist["low"])
	fmt.Printf("  Medium:    %d\n", sevDist["medium"])
	fmt.Printf("  High:      %d\n", sevDist["high"])
	fmt.Printf("  Critical:  %d\n", sevDist["critical"])
	fmt.Println()

	fmt.Println("--- Issues Per File ---")

	counts := make([]int, 0, len(issueDist))
	for count := range issueDist {
		counts = append(counts, count)
	}

	slices.Sort(counts)

	for _, count := range counts {
		fmt.Printf("  %d issues:  %d files\n", count, issueDist[count])
	}

	fmt.Println()

	fmt.Println("--- Issues By Kind ---")

	breakdowns := make([]*kindBreakdown, 0, len(kindStats))
	for _, bd := range kindStats {
		breakdowns = append(breakdowns, bd)
	}

	slices.SortFunc(breakdowns, func(a, b *kindBreakdown) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}

		return cmp.Compare(a.Kind, b.Kind)
	})

	for _, bd := range breakdowns {
		fmt.Printf("  %s\n", bd.Kind)
		fmt.Printf("    total: %d  critical: %d  high: %d  medium: %d  low: %d\n",
			bd.Total, bd.Critical, bd.High, bd.Medium, bd.Low)
	}

	if len(rawSizes) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("--- Block Shape ---")
	printDistribution("lines/issue", rawSizes)
	printDistribution("frames/issue", frameCounts)
}

// distribution summarizes a sample: mean, standard deviation, median and 95th percentile.
type distribution struct {
	Mean   float64
	StdDev float64
	Median float64
	P95    float64
}

func summarize(values []float64) distribution {
	if len(values) == 0 {
		return distribution{}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		std = 0
	}

	return distribution{
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}

func printDistribution(label string, values []float64) {
	dist := summarize(values)
	fmt.Printf("  %-13s mean: %.1f  stddev: %.1f  median: %.0f  p95: %.0f\n",
		label, dist.Mean, dist.StdDev, dist.Median, dist.P95)
}

type issueEntry struct {
	file  string
	issue digestIssue
}

func printKindDetail(records []digestRecord, kind string) {
	fmt.Println()

	var entries []issueEntry

	for _, rec := range records {
		if rec.Error != "" || rec.Analysis == nil {
			continue
		}

		for _, issue := range rec.Analysis.Issues {
			if issue.Kind != kind {
				continue
			}

			file := rec.File
			if file == "" {
				file = "(redacted)"
			}

			entries = append(entries, issueEntry{file: file, issue: issue})
		}
	}

	if len(entries) == 0 {
		fmt.Printf("No %s issues\n", kind)

		return
	}

	slices.SortStableFunc(entries, func(a, b issueEntry) int {
		return severityRank(a.issue.Severity) - severityRank(b.issue.Severity)
	})

	fmt.Printf("=== %s: %d issues ===\n\n", kind, len(entries))

	for _, entry := range entries {
		fmt.Printf("  %s:%d\n", entry.file, entry.issue.Line)
		fmt.Printf("    severity: %s  lines: %d  frames: %d", entry.issue.Severity, len(entry.issue.Raw), len(entry.issue.Stack))

		if entry.issue.Partial {
			fmt.Print("  (truncated)")
		}

		fmt.Println()
		fmt.Printf("    %s\n", entry.issue.Message)

		if len(entry.issue.Stack) > 0 {
			fmt.Printf("    top: %s\n", entry.issue.Stack[0])
		}

		fmt.Println()
	}
}

func severityRank(severity string) int {
	switch severity {
	case "critical":
		return 0
	case "high":
		return 1
	case "medium":
		return 2
	case "low":
		return 3
	default:
		return 4
	}
}
