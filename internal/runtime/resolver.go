package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
)

// Resolve computes the locations reachable from start within max hops, each
// tagged with its shortest distance and the exit that first reached it.
//
// The walk is breadth-first and marks a location visited when it is enqueued,
// so it terminates on cyclic graphs and never revisits a location. Distance
// ties keep the exit discovered first in the world's enumeration order.
// The second return value lists the reached locations in discovery order.
func Resolve(ctx context.Context, world ports.World, start domain.LocationID, max int) (domain.Reach, []domain.LocationID, error) {
	if max < 0 {
		return nil, nil, fmt.Errorf("%w: %d", domain.ErrInvalidPropagation, max)
	}

	reach := domain.Reach{start: {Distance: 0}}
	order := []domain.LocationID{start}
	queue := []domain.LocationID{start}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		loc := queue[0]
		queue = queue[1:]

		hop := reach[loc]
		if hop.Distance >= max {
			continue
		}

		exits, err := world.ExitsOf(ctx, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list exits of %s: %w", loc, err)
		}

		for _, exit := range exits {
			if _, seen := reach[exit.To]; seen {
				continue
			}
			via := exit
			reach[exit.To] = domain.Hop{Distance: hop.Distance + 1, Via: &via}
			order = append(order, exit.To)
			queue = append(queue, exit.To)
		}
	}

	return reach, order, nil
}
