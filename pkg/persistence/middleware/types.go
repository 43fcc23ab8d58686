// Package middleware provides HistoryStore decorators that change what is
// written to the transcript store without the caller noticing.
package middleware

import "github.com/aretw0/vmchat/pkg/ports"

// Middleware allows wrapping a HistoryStore to add behavior.
type Middleware func(ports.HistoryStore) ports.HistoryStore

// Chain applies the middlewares to store. The first one listed sees the
// messages first.
func Chain(store ports.HistoryStore, mws ...Middleware) ports.HistoryStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
