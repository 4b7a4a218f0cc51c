package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreiv46/auctiond/auction"
)

var (
	// BidsTotal counts accepted bids.
	BidsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auctiond_bids_total",
		Help: "Total number of accepted bids.",
	})

	// ItemsListedTotal counts items put up for sale.
	ItemsListedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auctiond_items_listed_total",
		Help: "Total number of items listed for sale.",
	})

	// ItemsSoldTotal counts items that closed with a winning bid.
	ItemsSoldTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auctiond_items_sold_total",
		Help: "Total number of items sold.",
	})

	// ItemsExpiredTotal counts items that closed without bids.
	ItemsExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auctiond_items_expired_total",
		Help: "Total number of items that expired unsold.",
	})
)

// Observe translates ledger events into counter increments. Register it
// with House.Subscribe.
func Observe(ev auction.Event) {
	switch ev.Kind {
	case auction.EventItemListed:
		ItemsListedTotal.Inc()
	case auction.EventBidPlaced:
		BidsTotal.Inc()
	case auction.EventItemSold:
		ItemsSoldTotal.Inc()
	case auction.EventItemExpired:
		ItemsExpiredTotal.Inc()
	}
}

// RegisterHouseGauges exposes the ledger's live client and item counts
// as gauges sampled at scrape time.
func RegisterHouseGauges(reg prometheus.Registerer, house *auction.House) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "auctiond_connected_clients",
		Help: "Number of currently connected clients.",
	}, func() float64 {
		clients, _ := house.Counts()
		return float64(clients)
	}))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "auctiond_items",
		Help: "Number of items currently in the ledger, active or awaiting purge.",
	}, func() float64 {
		_, items := house.Counts()
		return float64(items)
	}))
}

// MetricsServer serves the Prometheus scrape endpoint on its own
// address, separate from the ops API.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server
}

// New creates a metrics server with the process counters registered.
// The name labels the registry's build info; addr may be empty if the
// caller never starts the server.
func New(name, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(BidsTotal, ItemsListedTotal, ItemsSoldTotal, ItemsExpiredTotal)

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "auctiond_build_info",
		Help:        "Build information.",
		ConstLabels: prometheus.Labels{"package": name},
	})
	info.Set(1)
	registry.MustRegister(info)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		registry: registry,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}, nil
}

// Registry returns the underlying registry for additional collectors.
func (m *MetricsServer) Registry() *prometheus.Registry {
	return m.registry
}

// ListenAndServe starts the scrape endpoint.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the scrape endpoint.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
