package logsift

import "github.com/farcloser/logsift/internal/types"

// Registry is an ordered set of detectors. Order is priority when probing idle detectors.
// A registry belongs to exactly one scan of one source.
type Registry struct {
	detectors []Detector
}

// NewRegistry returns a registry holding detectors in the given order.
func NewRegistry(detectors ...Detector) *Registry {
	return &Registry{detectors: detectors}
}

// Register appends a detector with the lowest priority so far.
func (r *Registry) Register(detector Detector) {
	r.detectors = append(r.detectors, detector)
}

// Detectors returns the registered detectors in priority order.
func (r *Registry) Detectors() []Detector {
	return r.detectors
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	return len(r.detectors)
}

// Probe offers line to each detector in order and returns the first one that becomes active.
// Detectors after the first match are not offered the line. Returns nil when none activates.
func (r *Registry) Probe(line string) Detector {
	for _, detector := range r.detectors {
		if detector.ReceiveLine(line) == types.StateActive {
			return detector
		}
	}

	return nil
}

// Reset returns every detector to Idle, dropping in-flight issues.
func (r *Registry) Reset() {
	for _, detector := range r.detectors {
		detector.Reset()
	}
}

// ActiveCount returns how many detectors currently report Active.
func (r *Registry) ActiveCount() int {
	count := 0

	for _, detector := range r.detectors {
		if detector.State() == types.StateActive {
			count++
		}
	}

	return count
}
