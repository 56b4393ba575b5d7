/*
Package aware is a hierarchical, spatially-bounded signal dispatch engine.

Entities living on a graph of connected locations subscribe to named,
hierarchical signals ("sound:crying:child"). A source throws a signal and the
engine delivers it, exactly once per subscriber, to every matching subscriber
close enough to perceive it, closest first.

# Concept

The engine does not own the world. It reads entity presence and exits through
the ports.World interface, so it can be embedded in any host that models
locations: a game server, a simulation, a building automation system.

  - Hierarchy: a subscription to "sound" catches a throw of "sound:crying:child".
    A subscription to "sound:crying:child" never catches a throw of "sound".
  - Proximity: a local signal travels at most Propagation exits (default 3) from
    the source's location. Non-local signals reach every entity.
  - Isolation: a failing subscriber is recorded in the trace and never prevents
    delivery to the others.

# Usage

	world := memory.NewWorld()
	world.Link("nursery", "hall", "door", "door")
	world.Place("baby", "nursery")
	world.Place("parent", "hall")

	eng, err := aware.New(world)
	if err != nil {
		log.Fatal(err)
	}

	eng.RegisterCallback("wake", func(ctx context.Context, d domain.Delivery) error {
		fmt.Printf("%s hears %s (%d away)\n", d.Subscription.Subscriber, d.Signal, d.Distance)
		return nil
	})
	_, _ = eng.Subscribe(ctx, domain.Subscription{Signal: "sound", Subscriber: "parent", Callback: "wake"})

	res, err := eng.Throw(ctx, domain.NewSignal("sound:crying:child", "baby"))

Subscriptions that name neither an action nor a callback run the default "cmd"
action, which needs a command executor (see pkg/adapters/process).
*/
package aware
