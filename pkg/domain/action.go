package domain

// Delivery is what a recipient receives for one matching subscription record.
type Delivery struct {
	Subscription Subscription
	// Signal is the name that was thrown, which may be finer than Subscription.Signal.
	Signal   string
	Params   Params
	Distance int
	// Via is the exit that first reached the subscriber's location, nil at the origin.
	Via *Exit
	// TraceID correlates the delivery with the throw's trace.
	TraceID string
}

// MergedParams returns the subscription parameters overlaid with the thrown
// signal's parameters.
func (d Delivery) MergedParams() Params {
	out := d.Subscription.Params.Clone()
	for k, v := range d.Params {
		out[k] = v
	}
	return out
}
