// Package server implements the auction protocol's TCP transport.
//
// Each accepted connection gets its own goroutine pair: a read loop that
// parses command lines and drives the session state machine, and a
// writer pump that drains the connection's outbound queue. The queue
// decouples the ledger's broadcast path from network writes; a reader
// too slow to drain its queue is removed rather than allowed to stall
// the ledger.
package server
