/*
Package ports defines the driven ports (interfaces) of the aware dispatch engine.

These interfaces decouple the dispatch core from the host that owns the world
and from the storage backends that keep subscriptions across restarts.

# Key Interfaces

  - World: exposes presence, exits and entity locations (the graph/location provider).
  - Mover: optional World capability used by the bundled "move" action.
  - SubscriptionStore: opaque key/value persistence of subscription sequences keyed by signal name.
  - TraceStore: persists the last trace recorded for a signal name.
  - DistributedLocker: serializes registry mutations of a signal name across replicas.
*/
package ports
