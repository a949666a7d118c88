package logsift

import (
	"log/slog"

	"github.com/farcloser/logsift/internal/types"
)

/*
Usage:

issues := logsift.Scan(lines, logsift.DefaultOptions())
for _, issue := range issues {
    fmt.Printf("[%s] %s: %s\n", issue.Severity, issue.Kind, issue.Message)
}

// Error blocks only, keeping unterminated blocks
opts := logsift.DefaultOptions()
opts.Families = logsift.FamilyError
opts.Policy = logsift.PolicyFlush
issues := logsift.Scan(lines, opts)

// Step by step, inspecting detector state in between
scanner := logsift.NewScanner(opts.NewRegistry(), opts)
for i := 0; i < len(lines); {
    issue, advance := scanner.Step(i, lines[i])
    ...
}

*/

// Scan runs a fresh registry built from opts over lines and returns completed issues
// in the order their closing line was seen.
func Scan(lines []string, opts Options) []*Issue {
	return NewScanner(opts.NewRegistry(), opts).Scan(lines)
}

// Scanner drives a registry over a line sequence. At most one detector is active at a time.
// A Scanner is not safe for concurrent use.
type Scanner struct {
	registry       *Registry
	policy         Policy
	checkConflicts bool

	active     Detector
	activeLine int
}

// NewScanner returns a scanner over registry. Only the Policy and CheckConflicts fields of opts are used.
func NewScanner(registry *Registry, opts Options) *Scanner {
	return &Scanner{
		registry:       registry,
		policy:         opts.Policy,
		checkConflicts: opts.CheckConflicts,
	}
}

// Scan processes every line, then closes the stream.
func (s *Scanner) Scan(lines []string) []*Issue {
	var issues []*Issue

	for index := 0; index < len(lines); {
		issue, advance := s.Step(index, lines[index])
		if issue != nil {
			issues = append(issues, issue)
		}

		// A line that closed an issue is offered again so it can open the next one.
		if advance {
			index++
		}
	}

	if issue := s.Close(); issue != nil {
		issues = append(issues, issue)
	}

	return issues
}

// Step processes the line at index once. It returns the issue completed by the line, if any,
// and whether the caller should move on to the next line. When advance is false the same line
// must be passed again.
func (s *Scanner) Step(index int, line string) (*Issue, bool) {
	if s.active != nil {
		switch state := s.active.ReceiveLine(line); state {
		case types.StateActive:
			return nil, true
		case types.StateFinished:
			return s.drain(), false
		default:
			slog.Warn("detector went idle while active", "detector", s.active.Name(), "state", state)

			s.active = nil

			return nil, false
		}
	}

	detector := s.registry.Probe(line)
	if detector == nil {
		return nil, true
	}

	if s.checkConflicts {
		s.reportConflicts(detector, index, line)
	}

	s.active = detector
	s.activeLine = index

	return nil, true
}

// Active returns the active detector, or nil.
func (s *Scanner) Active() Detector {
	return s.active
}

// Registry returns the registry being driven.
func (s *Scanner) Registry() *Registry {
	return s.registry
}

// Close ends the stream. The unterminated block, if any, is returned under PolicyFlush
// and dropped under PolicyDiscard.
func (s *Scanner) Close() *Issue {
	if s.active == nil {
		return nil
	}

	issue := s.active.Reset()
	name := s.active.Name()
	s.active = nil

	if issue == nil {
		return nil
	}

	if s.policy != PolicyFlush {
		slog.Debug("dropping unterminated issue", "detector", name, "line", s.activeLine+1)

		return nil
	}

	issue.Line = s.activeLine + 1
	issue.Partial = true

	return issue
}

// Reset returns every detector to Idle and clears the active slot, so the scanner can take a new source.
func (s *Scanner) Reset() {
	s.registry.Reset()
	s.active = nil
	s.activeLine = 0
}

func (s *Scanner) drain() *Issue {
	detector := s.active
	s.active = nil

	issue, err := detector.PickIssue()
	if err != nil {
		slog.Error("finished detector has no issue", "detector", detector.Name(), "error", err)

		return nil
	}

	issue.Line = s.activeLine + 1

	return issue
}

// reportConflicts logs every lower priority detector that would also open an issue on line.
func (s *Scanner) reportConflicts(winner Detector, index int, line string) {
	seen := false

	for _, detector := range s.registry.Detectors() {
		if detector == winner {
			seen = true

			continue
		}

		if !seen {
			continue
		}

		if matcher, ok := detector.(types.Matcher); ok && matcher.Matches(line) {
			slog.Warn("arbitration conflict",
				"line", index+1, "bound", winner.Name(), "shadowed", detector.Name())
		}
	}
}
