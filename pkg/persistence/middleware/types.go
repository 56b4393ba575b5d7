package middleware

import "github.com/aretw0/aware/pkg/ports"

// Middleware allows wrapping a SubscriptionStore to add behavior.
type Middleware func(ports.SubscriptionStore) ports.SubscriptionStore

// Chain wraps store with the middlewares; the first one is the outermost.
func Chain(store ports.SubscriptionStore, mws ...Middleware) ports.SubscriptionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
