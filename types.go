package logsift

import (
	"fmt"

	"github.com/farcloser/logsift/internal/detect/marker"
	"github.com/farcloser/logsift/internal/detect/traceback"
	"github.com/farcloser/logsift/internal/types"
)

type (
	// Issue is one logical, possibly multi-line, log event.
	Issue = types.Issue
	// Kind classifies an issue.
	Kind = types.Kind
	// Severity indicates how bad an issue is.
	Severity = types.Severity
	// SeverityFunc maps kinds to severities.
	SeverityFunc = types.SeverityFunc
	// Detector recognizes one family of log events.
	Detector = types.Detector
	// State is a detector recognition state.
	State = types.State
	// Solution is a proposed resolution for an issue.
	Solution = types.Solution
)

// Family selects a built-in detector family.
type Family int

const (
	FamilyTraceback Family = 1 << iota
	FamilyCrash
	FamilyError

	// Presets.
	FamiliesAll = FamilyTraceback | FamilyCrash | FamilyError
)

func (f Family) String() string {
	switch f {
	case FamilyTraceback:
		return traceback.Name
	case FamilyCrash:
		return marker.NameCrash
	case FamilyError:
		return marker.NameError
	}

	return "unknown"
}

// Policy decides what happens to a block still open when the stream ends.
type Policy int

const (
	// PolicyDiscard drops unterminated blocks.
	PolicyDiscard Policy = iota
	// PolicyFlush emits unterminated blocks, marked Partial.
	PolicyFlush
)

func (p Policy) String() string {
	switch p {
	case PolicyDiscard:
		return "discard"
	case PolicyFlush:
		return "flush"
	}

	return "unknown"
}

// ParsePolicy converts a string to a Policy value.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "discard", "":
		return PolicyDiscard, nil
	case "flush":
		return PolicyFlush, nil
	default:
		return 0, fmt.Errorf("unknown policy %q (valid: discard, flush)", s)
	}
}

// DetectorFactory builds a fresh detector instance.
type DetectorFactory = func() Detector

// Options configures a scan.
type Options struct {
	Families Family // built-in families to register (default: FamiliesAll)
	Policy   Policy // end of stream policy (default: PolicyDiscard)

	// Severity maps kinds to severities for the built-in families (nil = types.DefaultSeverity).
	Severity SeverityFunc

	// Custom families, registered after the built-in ones in the given order.
	Custom []DetectorFactory

	// CheckConflicts logs a warning when more than one detector would open an issue on the same line.
	CheckConflicts bool
}

// DefaultOptions returns options registering every built-in family and discarding unterminated blocks.
func DefaultOptions() Options {
	return Options{
		Families: FamiliesAll,
		Policy:   PolicyDiscard,
		Severity: types.DefaultSeverity,
	}
}

// NewRegistry builds a registry of fresh detectors for opts.
// Priority order is traceback, crash, error, then custom families.
func (o Options) NewRegistry() *Registry {
	families := o.Families
	if families == 0 && len(o.Custom) == 0 {
		families = FamiliesAll
	}

	registry := NewRegistry()

	if families&FamilyTraceback != 0 {
		registry.Register(traceback.New(o.Severity))
	}

	if families&FamilyCrash != 0 {
		registry.Register(marker.Crash(o.Severity))
	}

	if families&FamilyError != 0 {
		registry.Register(marker.Error(o.Severity))
	}

	for _, factory := range o.Custom {
		registry.Register(factory())
	}

	return registry
}
