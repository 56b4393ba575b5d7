package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
	"github.com/aretw0/aware/pkg/registry"
	"github.com/mitchellh/mapstructure"
)

// maxTypos is the largest edit distance accepted by the fuzzy exit match.
// Short queries accept at most one typo per two characters.
const maxTypos = 2

type moveParams struct {
	Exit string `mapstructure:"exit"`
}

// Move returns the action that moves the subscriber through the exit named by
// the "exit" parameter. The name is matched against the exits of the
// subscriber's current location: exact names first, then unique prefixes, then
// the closest names within a small edit distance. More than one candidate at
// the winning tier fails with domain.ErrAmbiguousResolution.
func Move(mover ports.Mover) registry.ActionFunc {
	return func(ctx context.Context, subscriber domain.EntityID, signal string, dc *registry.DispatchContext, params domain.Params) (bool, error) {
		var p moveParams
		if err := mapstructure.Decode(map[string]any(params), &p); err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		if strings.TrimSpace(p.Exit) == "" {
			return false, fmt.Errorf("%w: missing %q", ErrInvalidParams, "exit")
		}

		loc, ok, err := dc.World.LocationOf(ctx, subscriber)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, fmt.Errorf("%w: %s has no location", domain.ErrNoMatch, subscriber)
		}
		exits, err := dc.World.ExitsOf(ctx, loc)
		if err != nil {
			return false, err
		}

		exit, err := ResolveExit(exits, p.Exit)
		if err != nil {
			return false, err
		}
		if err := mover.Move(ctx, subscriber, exit); err != nil {
			return false, fmt.Errorf("failed to move %s through %s: %w", subscriber, exit.ID, err)
		}
		if dc.Logger != nil {
			dc.Logger.Debug("subscriber moved", "exit", exit.ID, "to", exit.To)
		}
		return true, nil
	}
}

// ResolveExit picks the exit answering to name.
func ResolveExit(exits []domain.Exit, name string) (domain.Exit, error) {
	query := strings.ToLower(strings.TrimSpace(name))

	tiers := []func(string) bool{
		func(n string) bool { return n == query },
		func(n string) bool { return strings.HasPrefix(n, query) },
	}
	for _, match := range tiers {
		found := filterExits(exits, match)
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			return domain.Exit{}, ambiguous(query, found)
		}
	}

	limit := min(maxTypos, len([]rune(query))/2)
	best := limit + 1
	var found []domain.Exit
	for _, exit := range exits {
		d := best + 1
		for _, n := range exit.Names() {
			if nd := levenshtein.Distance(n, query, nil); nd < d {
				d = nd
			}
		}
		switch {
		case d < best:
			best = d
			found = []domain.Exit{exit}
		case d == best:
			found = append(found, exit)
		}
	}
	switch {
	case best > limit || len(found) == 0:
		return domain.Exit{}, fmt.Errorf("%w: no exit named %q", domain.ErrNoMatch, name)
	case len(found) > 1:
		return domain.Exit{}, ambiguous(query, found)
	}
	return found[0], nil
}

func filterExits(exits []domain.Exit, match func(string) bool) []domain.Exit {
	var out []domain.Exit
	for _, exit := range exits {
		for _, n := range exit.Names() {
			if match(n) {
				out = append(out, exit)
				break
			}
		}
	}
	return out
}

func ambiguous(query string, found []domain.Exit) error {
	ids := make([]string, len(found))
	for i, exit := range found {
		ids[i] = exit.ID
	}
	return fmt.Errorf("%w: %q matches %s", domain.ErrAmbiguousResolution, query, strings.Join(ids, ", "))
}
