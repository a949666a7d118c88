package types

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoActiveIssue is returned by Detector.PickIssue when the detector holds no completed issue.
var ErrNoActiveIssue = errors.New("no active issue")

// ErrUnknownSeverity is returned when parsing a severity name fails.
var ErrUnknownSeverity = errors.New("unknown severity")

// Kind classifies an issue. The set is open: detector families may introduce their own kinds.
type Kind string

const (
	KindError     Kind = "error"
	KindException Kind = "exception"
	KindCrash     Kind = "crash"
)

// Severity indicates how bad an issue is.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "none"
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}

	return "unknown"
}

// ParseSeverity converts a severity name to a Severity value.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return SeverityNone, nil
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("%w %q (valid: none, low, medium, high, critical)", ErrUnknownSeverity, name)
	}
}

// SeverityFunc maps an issue kind to its severity.
type SeverityFunc func(Kind) Severity

// DefaultSeverity is the built-in kind to severity mapping.
// Kinds it does not know about are rated low.
func DefaultSeverity(kind Kind) Severity {
	switch kind {
	case KindCrash:
		return SeverityCritical
	case KindException:
		return SeverityHigh
	case KindError:
		return SeverityMedium
	}

	return SeverityLow
}

// State is the recognition state of a detector.
type State int

const (
	StateIdle State = iota
	StateActive
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	}

	return "unknown"
}

// Detector recognizes one family of multi-line log events, one line at a time.
//
// A detector owns at most one in-flight issue. It moves Idle -> Active when it sees its start marker,
// Active -> Finished when it sees its end marker, and back to Idle when the issue is drained with PickIssue.
// Detectors are not safe for concurrent use.
type Detector interface {
	// Name identifies the detector family.
	Name() string
	// ReceiveLine feeds one line and returns the state after processing it.
	ReceiveLine(line string) State
	// PickIssue hands over the completed issue and returns the detector to Idle.
	PickIssue() (*Issue, error)
	// State reports the current state without changing it.
	State() State
	// Reset drops any in-flight issue, returning it (or nil), and returns the detector to Idle.
	Reset() *Issue
}

// Matcher is implemented by detectors that can tell, without side effects, whether a line would open an issue.
type Matcher interface {
	Matches(line string) bool
}

// Issue is one logical, possibly multi-line, log event.
//
// Severity is computed once from the initial kind and is not recomputed by UpgradeKind:
// an error upgraded to an exception keeps the error severity.
type Issue struct {
	ID         string
	Kind       Kind
	Message    string
	Severity   Severity
	RawLines   []string
	StackLines []string

	// Provenance, stamped by the scanner (Line, 1-based) and by the line source (Source).
	Source string
	Line   int

	// Partial is set when the issue was flushed unterminated at end of stream.
	Partial bool

	upgraded bool
}

// NewIssue creates an issue with empty line buffers and a severity derived from kind.
// A nil severity function falls back to DefaultSeverity.
func NewIssue(kind Kind, message string, severity SeverityFunc) *Issue {
	if severity == nil {
		severity = DefaultSeverity
	}

	return &Issue{
		ID:       generateID(),
		Kind:     kind,
		Message:  message,
		Severity: severity(kind),
	}
}

// AppendRawLine records a raw log line belonging to the issue.
func (i *Issue) AppendRawLine(line string) {
	i.RawLines = append(i.RawLines, line)
}

// AppendStackLine records a stack frame belonging to the issue.
func (i *Issue) AppendStackLine(line string) {
	i.StackLines = append(i.StackLines, line)
}

// UpgradeKind changes the kind of the issue. Only the first effective upgrade is applied;
// later calls, and calls with the current kind, are no-ops. It reports whether the kind changed.
func (i *Issue) UpgradeKind(kind Kind) bool {
	if i.upgraded || i.Kind == kind {
		return false
	}

	i.Kind = kind
	i.upgraded = true

	return true
}

// Upgraded reports whether the kind was changed after creation.
func (i *Issue) Upgraded() bool {
	return i.upgraded
}

// Solution is a proposed resolution for an issue.
type Solution struct {
	IssueID        string
	Recommendation string
	Code           string
	Confidence     float64 // 0.0-1.0
	References     []string
	Generated      bool // false when produced by the canned fallback
}

// generateID creates a random 16-character hex ID.
// Falls back to a timestamp-based ID if crypto/rand fails.
func generateID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%016x", time.Now().UnixNano())
	}

	return hex.EncodeToString(bytes)
}
