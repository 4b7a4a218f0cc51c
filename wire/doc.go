// Package wire defines the auction protocol's transfer units.
//
// Clients send plain text command lines: the first space-separated token
// is the command, the rest are parameters. The server answers with JSON
// response envelopes, one per line:
//
//	{"status": 0, "payload": "You have been connected"}
//
// Status 0 is a successful reply, 1 an asynchronous notification push,
// -1 a generic command failure and -4 an illegal state transition.
// Replies and pushes are multiplexed on the same stream with no framing
// marker beyond the status value; a client that issues a command while a
// push is in flight cannot reliably tell which message answers it. This
// ambiguity is inherent to the protocol and deliberately not papered over.
package wire
