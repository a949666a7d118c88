//nolint:tagliatelle
package main

// Record is a single line in the JSONL report file.
type Record struct {
	File     string         `json:"file,omitempty"`
	Analysis map[string]any `json:"analysis,omitempty"`
	Error    string         `json:"error,omitempty"`
	Timing   *RecordTiming  `json:"timing,omitempty"`
}

// RecordTiming captures per-file processing durations in milliseconds.
type RecordTiming struct {
	ReadMs  float64 `json:"read_ms"`
	ScanMs  float64 `json:"scan_ms"`
	TotalMs float64 `json:"total_ms"`
}

// digestRecord holds the typed fields needed by the digest command.
type digestRecord struct {
	File     string          `json:"file,omitempty"`
	Analysis *digestAnalysis `json:"analysis,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type digestAnalysis struct {
	Summary digestSummary `json:"summary"`
	Lines   int           `json:"lines"`
	Issues  []digestIssue `json:"issues"`
}

type digestSummary struct {
	IssueCount    int    `json:"issue_count"`
	WorstSeverity string `json:"worst_severity"`
}

type digestIssue struct {
	Kind     string   `json:"kind"`
	Severity string   `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Partial  bool     `json:"partial"`
	Raw      []string `json:"raw"`
	Stack    []string `json:"stack"`
}

// kindBreakdown tracks per-kind severity counts for the digest.
type kindBreakdown struct {
	Kind     string
	Total    int
	Critical int
	High     int
	Medium   int
	Low      int
}
