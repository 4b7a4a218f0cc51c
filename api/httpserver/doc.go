// Package httpserver provides the auction service's operational HTTP
// surface.
//
// The BaseServer implements a base HTTP server with standard health
// endpoints, graceful shutdown, metrics and flexible routing. Auction
// commands never travel over HTTP; this server exposes read-only ledger
// snapshots, the websocket event feed, and the usual health endpoints:
//
//   - Liveness Check: verify the server is running (/livez)
//   - Readiness Check: whether the server should receive traffic (/readyz)
//   - Drain Control: prepare for graceful shutdown (/drain, /undrain)
//   - Metrics: optional Prometheus scrape endpoint on its own address
//   - Profiling: optional pprof debugging endpoints when enabled
//
// Components plug their routes in through the RouteRegistrar interface:
//
//	func (h *MyHandler) RegisterRoutes(r chi.Router) {
//	    r.Get("/api/resource/{id}", h.HandleGetResource)
//	}
//
//	srv, _ := httpserver.New(cfg, handler)
//	srv.RunInBackground()
//	defer srv.Shutdown()
package httpserver
