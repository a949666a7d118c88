// Package rules loads additional keyword detector families from TOML files.
//
//	[[family]]
//	name     = "oom"
//	kind     = "out-of-memory"
//	severity = "critical"
//	start    = 'OutOfMemoryError|OOMKilled'
//	end      = ''   # optional, defaults to start
//	frame    = ''   # optional, defaults to JVM style frames
//	upgrade  = ''   # optional, kind taken when a frame shows up
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/farcloser/logsift/internal/detect/marker"
	"github.com/farcloser/logsift/internal/types"
)

var (
	errInvalidRule = errors.New("invalid rule")
	errUnknownKeys = errors.New("unknown keys")
)

// Family is one detector family as written in a rule file.
type Family struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Severity string `toml:"severity"`
	Start    string `toml:"start"`
	End      string `toml:"end"`
	Frame    string `toml:"frame"`
	Upgrade  string `toml:"upgrade"`
}

type file struct {
	Families []Family `toml:"family"`
}

// Set is a validated, compiled collection of families.
type Set struct {
	options    []marker.Options
	severities map[types.Kind]types.Severity
}

// Load reads and compiles a rule file.
func Load(path string) (*Set, error) {
	var raw file

	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}

		return nil, fmt.Errorf("%s: %w: %s", path, errUnknownKeys, strings.Join(keys, ", "))
	}

	return Compile(raw.Families)
}

// Parse compiles rules held in a string.
func Parse(data string) (*Set, error) {
	var raw file

	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}

	return Compile(raw.Families)
}

// Compile validates families and compiles their patterns.
func Compile(families []Family) (*Set, error) {
	set := &Set{severities: map[types.Kind]types.Severity{}}
	names := make([]string, 0, len(families))

	for idx, family := range families {
		if family.Name == "" || family.Kind == "" || family.Start == "" {
			return nil, fmt.Errorf("%w: family #%d needs name, kind and start", errInvalidRule, idx+1)
		}

		if slices.Contains(names, family.Name) {
			return nil, fmt.Errorf("%w: duplicate family %q", errInvalidRule, family.Name)
		}

		names = append(names, family.Name)

		opts := marker.Options{
			Name:    family.Name,
			Kind:    types.Kind(family.Kind),
			Upgrade: types.Kind(family.Upgrade),
		}

		var err error

		if opts.Start, err = compile(family.Name, "start", family.Start); err != nil {
			return nil, err
		}

		if opts.End, err = compile(family.Name, "end", family.End); err != nil {
			return nil, err
		}

		if opts.Frame, err = compile(family.Name, "frame", family.Frame); err != nil {
			return nil, err
		}

		// Without an explicit severity the kind is rated by the fallback mapping.
		if family.Severity != "" {
			severity, err := types.ParseSeverity(family.Severity)
			if err != nil {
				return nil, fmt.Errorf("%w: family %q: %w", errInvalidRule, family.Name, err)
			}

			set.severities[opts.Kind] = severity
		}

		set.options = append(set.options, opts)
	}

	return set, nil
}

// Len returns the number of families.
func (s *Set) Len() int {
	return len(s.options)
}

// Severity returns a severity function answering for the kinds of the set and deferring to fallback otherwise.
// A nil fallback means types.DefaultSeverity.
func (s *Set) Severity(fallback types.SeverityFunc) types.SeverityFunc {
	if fallback == nil {
		fallback = types.DefaultSeverity
	}

	return func(kind types.Kind) types.Severity {
		if severity, ok := s.severities[kind]; ok {
			return severity
		}

		return fallback(kind)
	}
}

// Factories returns one detector factory per family, in file order.
func (s *Set) Factories(fallback types.SeverityFunc) []func() types.Detector {
	severity := s.Severity(fallback)
	factories := make([]func() types.Detector, 0, len(s.options))

	for _, opts := range s.options {
		opts.Severity = severity
		factories = append(factories, func() types.Detector {
			return marker.New(opts)
		})
	}

	return factories
}

func compile(family, field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil //nolint:nilnil // empty pattern means default
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: family %q: %s: %w", errInvalidRule, family, field, err)
	}

	return re, nil
}
