// Package session implements the per-connection protocol state machine.
//
// A session starts unauthenticated; the only legal command is connect,
// which binds a unique name and moves the session to the authenticated
// state. All other commands are gated on that state through a static
// (state, command) transition table. Commands missing from the table for
// the current state get a status -4 reply and leave the state unchanged.
package session
