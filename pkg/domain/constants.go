package domain

const (
	// Separator joins the hierarchy segments of a signal name ("sound:crying:child").
	Separator = ":"

	// DefaultAction is used by subscriptions that bind neither an action nor a callback.
	DefaultAction = "cmd"

	// DefaultPropagation is the hop bound of a local signal when none is given.
	DefaultPropagation = 3

	// DefaultMaxPropagation caps the hop bound a caller may request.
	DefaultMaxPropagation = 16
)
