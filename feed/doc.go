// Package feed mirrors auction broadcasts to websocket observers.
//
// The hub subscribes to ledger events and pushes each one, as a small
// JSON envelope, to every connected websocket. It exists for dashboards
// and monitoring; feed subscribers are not auction participants and
// cannot place bids.
package feed
