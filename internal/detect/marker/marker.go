package marker

import (
	"fmt"
	"regexp"

	"github.com/farcloser/logsift/internal/detect/shared"
	"github.com/farcloser/logsift/internal/types"
)

// Default families.
const (
	NameError = "error"
	NameCrash = "crash"
)

// StartError opens an error block. The same keyword closes it.
var StartError = regexp.MustCompile(`\bERROR\b`)

// StartCrash opens a crash block.
var StartCrash = regexp.MustCompile(`\b(?:FATAL|CRITICAL)\b|Segmentation fault|core dumped`)

// Options configures a keyword detector.
type Options struct {
	Name string
	// Kind given to new issues.
	Kind types.Kind
	// Start marker. Required.
	Start *regexp.Regexp
	// End marker. Nil means the start marker also ends the block.
	End *regexp.Regexp
	// Frame matches stack frames. Nil means shared.Frame.
	Frame *regexp.Regexp
	// Upgrade is the kind an issue takes when a stack frame shows up. Empty means types.KindException.
	Upgrade types.Kind
	// Severity maps kinds to severities. Nil means types.DefaultSeverity.
	Severity types.SeverityFunc
}

// Detector recognizes keyword delimited blocks: a start marker opens the block, indented stack frames
// are collected, and the end marker closes it.
type Detector struct {
	opts  Options
	state types.State
	issue *types.Issue
}

// New returns a keyword detector. It panics when opts.Start is nil.
func New(opts Options) *Detector {
	if opts.Start == nil {
		panic(fmt.Sprintf("marker %q: nil start marker", opts.Name))
	}

	if opts.End == nil {
		opts.End = opts.Start
	}

	if opts.Frame == nil {
		opts.Frame = shared.Frame
	}

	if opts.Upgrade == "" {
		opts.Upgrade = types.KindException
	}

	return &Detector{opts: opts}
}

// Error returns the detector for ERROR blocks.
func Error(severity types.SeverityFunc) *Detector {
	return New(Options{
		Name:     NameError,
		Kind:     types.KindError,
		Start:    StartError,
		Severity: severity,
	})
}

// Crash returns the detector for FATAL / CRITICAL / segfault blocks.
func Crash(severity types.SeverityFunc) *Detector {
	return New(Options{
		Name:     NameCrash,
		Kind:     types.KindCrash,
		Start:    StartCrash,
		Upgrade:  types.KindCrash,
		Severity: severity,
	})
}

func (d *Detector) Name() string {
	return d.opts.Name
}

func (d *Detector) State() types.State {
	return d.state
}

// Matches reports whether line carries the start marker.
func (d *Detector) Matches(line string) bool {
	return d.opts.Start.MatchString(line)
}

func (d *Detector) ReceiveLine(line string) types.State {
	switch d.state {
	case types.StateIdle:
		loc := d.opts.Start.FindStringIndex(line)
		if loc == nil {
			return d.state
		}

		d.issue = types.NewIssue(d.opts.Kind, shared.Message(line, loc[1]), d.opts.Severity)
		d.issue.AppendRawLine(line)

		if frame, ok := shared.FrameFragment(d.opts.Frame, line[loc[1]:]); ok {
			d.issue.UpgradeKind(d.opts.Upgrade)
			d.issue.AppendStackLine(frame)
		}

		d.state = types.StateActive
	case types.StateActive:
		if d.opts.End.MatchString(line) {
			d.issue.AppendRawLine(line)
			d.state = types.StateFinished

			return d.state
		}

		if frame, ok := shared.FrameFragment(d.opts.Frame, line); ok {
			d.issue.UpgradeKind(d.opts.Upgrade)
			d.issue.AppendStackLine(frame)
		}

		d.issue.AppendRawLine(line)
	case types.StateFinished:
		// Waiting to be drained.
	}

	return d.state
}

func (d *Detector) PickIssue() (*types.Issue, error) {
	if d.issue == nil {
		return nil, fmt.Errorf("%s: %w", d.opts.Name, types.ErrNoActiveIssue)
	}

	if d.state != types.StateFinished {
		return nil, fmt.Errorf("%s: %w: issue still in progress", d.opts.Name, types.ErrNoActiveIssue)
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
