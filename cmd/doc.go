// Package cmd provides CLI commands for the auction service.
//
// # Commands
//
// auctiond: The auction server. Listens for clients on a TCP port and
// serves the read-only ops API, websocket event feed, and Prometheus
// metrics over HTTP.
//
//	go run ./cmd/auctiond --addr=:8080 --http-addr=:8090
//	go run ./cmd/auctiond --item-ttl=2m --log-json
//
// auctionctl: Interactive terminal client. Type protocol commands at the
// prompt; replies and pushed notifications print as they arrive.
//
//	go run ./cmd/auctionctl --addr=localhost:8080
//	> connect alice
//	> add 50 pocket watch
//	> bid 60 telescope
//
// # Protocol
//
// Clients speak newline-delimited text commands; the server answers with
// newline-delimited JSON envelopes carrying a status code and a payload
// string. Commands other than connect require a successful connect
// first.
package cmd
