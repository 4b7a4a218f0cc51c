// Package auction implements the shared auction ledger.
//
// The House owns the set of connected clients and the set of items for
// sale. A single mutex guards both together, making every operation
// transactional with respect to every other: a bid never interleaves
// with a concurrent listing in a way that exposes partial state.
//
// Items close automatically once their TTL elapses. The House arranges
// this through the scheduler package: listing an item registers a
// one-shot expiry callback, and a periodic sweep purges closed items
// from the ledger. Callbacks take the same lock as client commands, so
// a bid racing an expiry is resolved by whichever acquires it first.
//
// Notifications fan out to client sinks only after the lock has been
// released; a slow or dead client costs itself its connection, never
// the ledger's throughput.
package auction
