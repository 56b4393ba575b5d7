package domain

import "strings"

// Signal is one throw. It only exists for the duration of a dispatch call.
type Signal struct {
	Name   string
	Source EntityID
	// Local restricts delivery to entities reachable from the source's location.
	Local bool
	// Propagation bounds, in hops, how far a local signal travels.
	Propagation int
	Params      Params
}

// NewSignal creates a local signal with the default propagation.
func NewSignal(name string, source EntityID) Signal {
	return Signal{
		Name:        name,
		Source:      source,
		Local:       true,
		Propagation: DefaultPropagation,
		Params:      Params{},
	}
}

// ValidateName checks that a signal name is non-empty and that every hierarchy
// segment between separators is non-empty.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &SignalNameError{Name: name, Reason: "empty name"}
	}
	for _, seg := range strings.Split(name, Separator) {
		if strings.TrimSpace(seg) == "" {
			return &SignalNameError{Name: name, Reason: "empty hierarchy segment"}
		}
	}
	return nil
}

// Levels returns the candidate subscription names for a thrown signal, from the
// full name down to its coarsest prefix: "a:b:c" -> ["a:b:c", "a:b", "a"].
// A subscription on a coarser prefix catches finer throws, never the reverse.
func Levels(name string) []string {
	segments := strings.Split(name, Separator)
	levels := make([]string, 0, len(segments))
	for i := len(segments); i > 0; i-- {
		levels = append(levels, strings.Join(segments[:i], Separator))
	}
	return levels
}
