/*
Package domain contains the core domain models of the aware dispatch engine.

It defines the participants of a throw (entities, locations and the exits
connecting them), the signals themselves, the standing subscriptions that bind
an entity to a signal name, and the trace a dispatch leaves behind. This
package is kept pure and free of I/O or persistence concerns, following
Hexagonal Architecture principles.

# Key Entities

  - Signal: a named, hierarchical event thrown from a source entity.
  - Subscription: an immutable record binding a subscriber to a signal name and an action or callback.
  - Exit: a directed connection between two locations.
  - Reach: the per-location distance map computed for a local throw.
  - Trace: the ordered log of one throw's exploration and delivery decisions.
*/
package domain
