// Package middleware provides ContextStore decorators for data protection:
// masking of captured personal data and encryption at rest.
package middleware

import "github.com/atendo/atendo/pkg/ports"

// Middleware wraps a ContextStore to add behavior.
type Middleware func(ports.ContextStore) ports.ContextStore

// Chain applies middlewares right to left, so the first one sees calls first.
func Chain(store ports.ContextStore, mws ...Middleware) ports.ContextStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
