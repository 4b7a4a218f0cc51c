package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreiv46/auctiond/auction"
)

// AuctionHandler exposes read-only snapshots of the auction ledger over
// HTTP, for dashboards and debugging. All mutation goes through the TCP
// protocol; these routes never take bids.
type AuctionHandler struct {
	House *auction.House
}

// NewAuctionHandler creates a handler over the given ledger.
func NewAuctionHandler(house *auction.House) *AuctionHandler {
	return &AuctionHandler{House: house}
}

// RegisterRoutes implements RouteRegistrar.
func (h *AuctionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/items", h.handleItems)
	r.Get("/api/items/{name}", h.handleItem)
	r.Get("/api/clients", h.handleClients)
}

func (h *AuctionHandler) handleItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.House.ListItems())
}

func (h *AuctionHandler) handleItem(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	item, ok := h.House.ItemInfo(name)
	if !ok {
		http.Error(w, "item not available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *AuctionHandler) handleClients(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.House.ListClients())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
