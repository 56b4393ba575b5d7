package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
)

// Params is the arbitrary parameter mapping carried by subscriptions and signals.
type Params map[string]any

// Normalize returns a JSON-canonical deep copy of the parameters, so that a record
// compares equal to itself after a round-trip through any store.
func (p Params) Normalize() (Params, error) {
	if len(p) == 0 {
		return Params{}, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("params are not storable: %w", err)
	}
	out := Params{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("params are not storable: %w", err)
	}
	return out, nil
}

// Equal compares parameters by value. Nil and empty are equal.
func (p Params) Equal(other Params) bool {
	if len(p) == 0 && len(other) == 0 {
		return true
	}
	return cmp.Equal(map[string]any(p), map[string]any(other))
}

// Clone returns a shallow copy of the parameters.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Subscription is an immutable record binding a subscriber to a signal name.
// Exactly one of Action or Callback is set once the record is normalized.
type Subscription struct {
	Signal     string   `json:"signal" yaml:"signal"`
	Subscriber EntityID `json:"subscriber" yaml:"subscriber"`
	Action     string   `json:"action,omitempty" yaml:"action,omitempty"`
	// Callback names a handler registered in the callback registry; the bound
	// entity is the Subscriber.
	Callback string `json:"callback,omitempty" yaml:"callback,omitempty"`
	Params   Params `json:"params,omitempty" yaml:"params,omitempty"`
	// Seq is the registry-wide insertion sequence. It is not part of the identity.
	Seq uint64 `json:"seq" yaml:"seq"`
}

// Normalize validates the record and fills the default action when neither an
// action nor a callback is bound.
func (s Subscription) Normalize(defaultAction string) (Subscription, error) {
	if err := ValidateName(s.Signal); err != nil {
		return Subscription{}, err
	}
	if s.Subscriber == "" {
		return Subscription{}, fmt.Errorf("%w: missing subscriber", ErrInvalidSubscription)
	}
	if s.Action != "" && s.Callback != "" {
		return Subscription{}, fmt.Errorf("%w: both action %q and callback %q are set", ErrInvalidSubscription, s.Action, s.Callback)
	}
	if s.Action == "" && s.Callback == "" {
		s.Action = defaultAction
	}
	params, err := s.Params.Normalize()
	if err != nil {
		return Subscription{}, fmt.Errorf("%w: %v", ErrInvalidSubscription, err)
	}
	s.Params = params
	return s, nil
}

// Same reports whether two records are duplicates: same signal, subscriber,
// action, callback and parameters.
func (s Subscription) Same(other Subscription) bool {
	return s.Signal == other.Signal && s.Binds(other)
}

// Binds reports whether two records bind the same subscriber to the same
// handler with the same parameters, ignoring the signal name.
func (s Subscription) Binds(other Subscription) bool {
	return s.Subscriber == other.Subscriber &&
		s.Action == other.Action &&
		s.Callback == other.Callback &&
		s.Params.Equal(other.Params)
}

// Handler returns the name of the bound action or callback, for logs and traces.
func (s Subscription) Handler() string {
	if s.Callback != "" {
		return "callback:" + s.Callback
	}
	return s.Action
}
