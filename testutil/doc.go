// Package testutil provides shared fixtures for auctiond tests: a
// controllable clock for driving the scheduler deterministically, and a
// capturing outbound sink for asserting on notification delivery.
package testutil
