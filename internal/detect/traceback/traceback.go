// Package traceback detects Python tracebacks.
//
// A traceback opens on "Traceback (most recent call last):", continues over indented lines
// (frames and source excerpts) and closes on the first non-indented line, which carries the
// exception type and message and belongs to the issue.
package traceback

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/farcloser/logsift/internal/detect/shared"
	"github.com/farcloser/logsift/internal/types"
)

// Name of the family.
const Name = "traceback"

var (
	start = regexp.MustCompile(`Traceback \(most recent call last\):`)
	frame = regexp.MustCompile(`^\s+File "[^"]+", line \d+`)
)

// Detector recognizes Python tracebacks.
type Detector struct {
	severity types.SeverityFunc
	state    types.State
	issue    *types.Issue
}

// New returns a traceback detector. A nil severity function means types.DefaultSeverity.
func New(severity types.SeverityFunc) *Detector {
	return &Detector{severity: severity}
}

func (d *Detector) Name() string {
	return Name
}

func (d *Detector) State() types.State {
	return d.state
}

// Matches reports whether line opens a traceback.
func (d *Detector) Matches(line string) bool {
	return start.MatchString(line)
}

func (d *Detector) ReceiveLine(line string) types.State {
	switch d.state {
	case types.StateIdle:
		loc := start.FindStringIndex(line)
		if loc == nil {
			return d.state
		}

		// Prefer whatever precedes the marker ("worker 3: Traceback ...") as the message.
		message := strings.TrimSpace(strings.TrimRight(line[:loc[0]], " :-"))
		if message == "" {
			message = shared.Message(line, loc[1])
		} else {
			message = shared.Summary(message)
		}

		d.issue = types.NewIssue(types.KindException, message, d.severity)
		d.issue.AppendRawLine(line)
		d.state = types.StateActive
	case types.StateActive:
		d.issue.AppendRawLine(line)

		if isContinuation(line) {
			if frame.MatchString(line) {
				d.issue.AppendStackLine(strings.TrimSpace(line))
			}

			return d.state
		}

		d.state = types.StateFinished
	case types.StateFinished:
		// Waiting to be drained.
	}

	return d.state
}

func (d *Detector) PickIssue() (*types.Issue, error) {
	if d.issue == nil {
		return nil, fmt.Errorf("%s: %w", Name, types.ErrNoActiveIssue)
	}

	if d.state != types.StateFinished {
		return nil, fmt.Errorf("%s: %w: issue still in progress", Name, types.ErrNoActiveIssue)
	}

	issue := d.issue
	d.issue = nil
	d.state = types.StateIdle

	return issue, nil
}

func (d *Detector) Reset() *types.Issue {
	issue := d.issue
	d.issue = nil
	d.state = types.StateIdle

	return issue
}

// isContinuation reports whether line still belongs to the traceback body.
// Blank lines are not continuations: a traceback body never contains one.
func isContinuation(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}
