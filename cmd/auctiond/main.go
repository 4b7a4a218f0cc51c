// Command auctiond runs the auction server.
//
// Clients connect over TCP, authenticate with a unique name, and then
// list, sell and bid on items. Items close automatically five minutes
// after listing (configurable); results are broadcast to interested
// clients. A separate HTTP listener exposes read-only ledger snapshots,
// a websocket event feed and health endpoints.
//
// # Usage
//
//	go run ./cmd/auctiond --addr :8080 --http-addr :8090
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreiv46/auctiond/api/httpserver"
	"github.com/andreiv46/auctiond/auction"
	"github.com/andreiv46/auctiond/common"
	"github.com/andreiv46/auctiond/feed"
	"github.com/andreiv46/auctiond/metrics"
	"github.com/andreiv46/auctiond/scheduler"
	"github.com/andreiv46/auctiond/server"
)

func main() {
	var (
		addr          = flag.String("addr", ":8080", "TCP listen address for the auction protocol")
		httpAddr      = flag.String("http-addr", ":8090", "HTTP listen address for the ops API and event feed")
		metricsAddr   = flag.String("metrics-addr", "", "Prometheus metrics listen address (disabled if empty)")
		enablePprof   = flag.Bool("pprof", false, "Enable pprof debugging endpoints")
		itemTTL       = flag.Duration("item-ttl", 5*time.Minute, "How long items stay open for bidding")
		sweepInterval = flag.Duration("sweep-interval", 5*time.Minute, "Period of the closed-item purge")
		logJSON       = flag.Bool("log-json", false, "Log in JSON format")
		logDebug      = flag.Bool("log-debug", false, "Enable debug logging")
	)
	flag.Parse()

	log := newLogger(*logJSON, *logDebug)
	log.Info("starting", "service", common.PackageName, "version", common.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(scheduler.Config{Log: log})
	go sched.Run(ctx)

	house := auction.NewHouse(auction.Config{
		Sched:         sched,
		ItemTTL:       *itemTTL,
		SweepInterval: *sweepInterval,
		Log:           log,
	})
	house.Subscribe(metrics.Observe)

	hub := feed.NewHub(log)
	house.Subscribe(hub.Observe)

	opsSrv, err := httpserver.New(&httpserver.HTTPServerConfig{
		ListenAddr:               *httpAddr,
		MetricsAddr:              *metricsAddr,
		EnablePprof:              *enablePprof,
		Log:                      log,
		DrainDuration:            5 * time.Second,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              10 * time.Second,
		WriteTimeout:             10 * time.Second,
	}, httpserver.NewAuctionHandler(house), hub)
	if err != nil {
		fmt.Printf("Error creating ops server: %v\n", err)
		os.Exit(1)
	}
	metrics.RegisterHouseGauges(opsSrv.Metrics().Registry(), house)
	opsSrv.RunInBackground()
	defer opsSrv.Shutdown()

	tcpSrv, err := server.New(server.Config{
		ListenAddr: *addr,
		House:      house,
		Log:        log,
	})
	if err != nil {
		fmt.Printf("Error creating auction server: %v\n", err)
		os.Exit(1)
	}

	if err := tcpSrv.Run(ctx); err != nil {
		log.Error("auction server failed", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func newLogger(jsonFormat, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
