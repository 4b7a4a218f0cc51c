package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/andreiv46/auctiond/auction"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// eventEnvelope is the JSON shape pushed to feed subscribers.
type eventEnvelope struct {
	Kind    string `json:"kind"`
	Item    string `json:"item,omitempty"`
	Amount  int    `json:"amount,omitempty"`
	Actor   string `json:"actor,omitempty"`
	Message string `json:"message"`
}

func kindName(k auction.EventKind) string {
	switch k {
	case auction.EventItemListed:
		return "item_listed"
	case auction.EventBidPlaced:
		return "bid_placed"
	case auction.EventItemSold:
		return "item_sold"
	case auction.EventItemExpired:
		return "item_expired"
	default:
		return "unknown"
	}
}

// Hub fans ledger events out to websocket observers. Observers are
// passive: they receive every broadcast the auction clients see but
// cannot issue commands. A subscriber that stops draining its queue is
// dropped without affecting the others.
type Hub struct {
	log *slog.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty feed hub. Register it as a House observer via
// Hub.Observe and mount its routes with RegisterRoutes.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:  log,
		subs: make(map[*subscriber]struct{}),
	}
}

// RegisterRoutes mounts the websocket endpoint. Implements the ops
// server's RouteRegistrar.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWS)
}

// Observe pushes one ledger event to every subscriber. Registered with
// House.Subscribe; runs outside the ledger lock.
func (h *Hub) Observe(ev auction.Event) {
	data, err := json.Marshal(eventEnvelope{
		Kind:    kindName(ev.Kind),
		Item:    ev.Item,
		Amount:  ev.Amount,
		Actor:   ev.Actor,
		Message: ev.Message,
	})
	if err != nil {
		return
	}

	h.mu.Lock()
	var stalled []*subscriber
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			stalled = append(stalled, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range stalled {
		h.drop(sub)
	}
}

// SubscriberCount returns the number of connected feed observers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	sub := &subscriber{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 64),
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.log.Info("feed subscriber connected", "subscriber", sub.id)

	go h.writePump(sub)
	go h.readPump(sub)
}

// writePump is the only writer for a subscriber's connection.
func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-sub.send:
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			sub.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.drop(sub)
				return
			}
		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(sub)
				return
			}
		}
	}
}

// readPump discards inbound frames and notices when the peer goes away.
func (h *Hub) readPump(sub *subscriber) {
	defer h.drop(sub)
	sub.conn.SetReadLimit(512)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// drop removes a subscriber and closes its connection. Safe to call
// multiple times for the same subscriber.
func (h *Hub) drop(sub *subscriber) {
	h.mu.Lock()
	_, present := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()

	if present {
		close(sub.send)
		sub.conn.Close()
		h.log.Info("feed subscriber dropped", "subscriber", sub.id)
	}
}
