// Package metrics exposes Prometheus instrumentation for the auction
// server: counters fed by ledger events, gauges sampled from the ledger
// at scrape time, and a standalone scrape endpoint server.
package metrics
