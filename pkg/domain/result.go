package domain

// Result is the outcome of one throw.
type Result struct {
	// Notified lists the recipients with at least one successful invocation, in delivery order.
	Notified []EntityID `json:"notified"`
	Trace    *Trace     `json:"trace"`
	// Stopped is set when a recipient halted the remaining deliveries.
	Stopped bool `json:"stopped,omitempty"`
}

// Contains reports whether the entity was notified.
func (r *Result) Contains(entity EntityID) bool {
	for _, e := range r.Notified {
		if e == entity {
			return true
		}
	}
	return false
}
