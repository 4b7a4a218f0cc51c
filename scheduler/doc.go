// Package scheduler provides a generic timer service for one-shot and
// periodic callbacks.
//
// A dedicated goroutine polls a min-heap of pending jobs at a bounded
// tick granularity (one second by default) and invokes every callback
// whose fire time has passed. Callbacks run with panic recovery so a
// misbehaving job cannot take down the loop or starve other jobs.
//
// The scheduler has no knowledge of auction semantics; the auction
// ledger registers its expiry and sweep callbacks against this package
// like any other caller would.
package scheduler
