package domain

import "strings"

// EntityID is the opaque, stable handle of a subscriber or thrower.
type EntityID string

// LocationID identifies a node of the connectivity graph.
type LocationID string

// ExitAliasSeparator separates alternative names stored in Exit.Name ("north;n").
const ExitAliasSeparator = ";"

// Exit is a directed connection from one location to another.
type Exit struct {
	ID      string     `json:"id" yaml:"id"`
	Name    string     `json:"name" yaml:"name"`
	Aliases []string   `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	From    LocationID `json:"from" yaml:"from"`
	To      LocationID `json:"to" yaml:"to"`
	// ReturnID names the exit leading back from To to From, if any.
	ReturnID string `json:"return_id,omitempty" yaml:"return_id,omitempty"`
}

// Names returns every name the exit answers to, lowercased and trimmed.
func (e Exit) Names() []string {
	var names []string
	for _, n := range strings.Split(e.Name, ExitAliasSeparator) {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			names = append(names, n)
		}
	}
	for _, a := range e.Aliases {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			names = append(names, a)
		}
	}
	return names
}

// Hop describes how a location was reached during a reachability query.
type Hop struct {
	Distance int   `json:"distance"`
	Via      *Exit `json:"via,omitempty"` // nil for the origin
}

// Reach maps every reachable location to its shortest distance and first exit.
type Reach map[LocationID]Hop
