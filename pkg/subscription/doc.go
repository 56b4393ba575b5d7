/*
Package subscription implements the subscription registry of the aware engine.

The registry stores, per signal name, the ordered sequence of subscription
records, and keeps a per-entity marker index answering "does this entity care
about this signal" without scanning every record.

Mutations of one signal name are serialized by a reference-counted lock entry
(and, when configured, a distributed lock), so slow persistence of one signal
never blocks another. Committed sequences are never modified in place: a
reader always observes either the sequence before a mutation or the one after.
*/
package subscription
