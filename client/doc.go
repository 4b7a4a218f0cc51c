// Package client provides a Go client for the auction wire protocol.
//
// It dials the server's TCP endpoint, sends text command lines, and
// decodes the newline-delimited JSON response envelopes coming back.
// Used by the auctionctl terminal client and by end-to-end tests.
package client
