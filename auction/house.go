package auction

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/andreiv46/auctiond/scheduler"
	"github.com/andreiv46/auctiond/wire"
)

// Sentinel errors returned by ledger operations. The session layer maps
// them onto wire error responses; message text lives in Error().
var (
	// ErrNameInUse means a connected client already holds the name.
	ErrNameInUse = errors.New("Name already in use. Please choose another name")

	// ErrItemExists means an item with the same name is already listed.
	ErrItemExists = errors.New("Item already exists. Please choose another name")

	// ErrItemNotAvailable means the item is missing or no longer active.
	ErrItemNotAvailable = errors.New("Item not available")

	// ErrOwnItem means the bidder is the item's seller.
	ErrOwnItem = errors.New("Cannot bid on your own item")

	// ErrBidTooLow means the amount does not beat the minimum price or
	// the current highest bid.
	ErrBidTooLow = errors.New("Bid too low")
)

// Config contains House construction parameters.
type Config struct {
	// Sched arranges item expiry and the periodic sweep. Required.
	Sched *scheduler.Scheduler

	// ItemTTL is how long an item stays open for bidding after listing.
	// Defaults to five minutes when zero.
	ItemTTL time.Duration

	// SweepInterval is the period of the purge of closed items.
	// Defaults to five minutes when zero.
	SweepInterval time.Duration

	// Log defaults to slog.Default when nil.
	Log *slog.Logger

	// Now overrides the time source, for tests. Defaults to time.Now.
	Now func() time.Time
}

// House is the shared auction ledger: the set of connected clients and
// the set of items for sale. Every operation is atomic with respect to
// every other; one mutex guards both sets together.
//
// Notification delivery is decoupled from the critical section: each
// operation computes its recipient set and message under the lock,
// releases it, and only then writes to client sinks. A stalled client
// therefore cannot stall the ledger; its failed delivery removes it.
type House struct {
	sched   *scheduler.Scheduler
	itemTTL time.Duration
	log     *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	clients   []*Client
	items     map[string]*item
	itemOrder []string

	observers []func(Event)
}

// NewHouse creates the ledger and registers its periodic sweep of
// inactive items with the scheduler.
func NewHouse(cfg Config) *House {
	if cfg.ItemTTL <= 0 {
		cfg.ItemTTL = 5 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	h := &House{
		sched:   cfg.Sched,
		itemTTL: cfg.ItemTTL,
		log:     cfg.Log,
		now:     cfg.Now,
		items:   make(map[string]*item),
	}
	h.sched.Cyclic(cfg.SweepInterval, h.PurgeInactive)
	return h
}

// Subscribe registers an observer for ledger events. Observers are
// invoked after the triggering operation released the lock; they must
// not call back into the House from the same goroutine chain if they
// take locks of their own that House observers also contend on.
//
// Not safe for concurrent use with ledger operations; subscribe during
// setup, before traffic starts.
func (h *House) Subscribe(fn func(Event)) {
	h.observers = append(h.observers, fn)
}

// AddClient registers a freshly accepted connection with the ledger.
func (h *House) AddClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients = append(h.clients, c)
}

// RemoveClient drops a client from the ledger and marks it disconnected.
// Idempotent: removing an absent client is a no-op.
func (h *House) RemoveClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.clients {
		if existing == c {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			break
		}
	}
	c.name = ""
	c.connected = false
}

// Connect binds a name to the client and marks it connected. Exactly one
// of any set of concurrent Connect calls for the same name succeeds; the
// rest get ErrNameInUse.
func (h *House) Connect(c *Client, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, existing := range h.clients {
		if existing.connected && existing.name == name {
			return ErrNameInUse
		}
	}
	c.name = name
	c.connected = true
	return nil
}

// Disconnect clears the client's name and marks it disconnected. The
// client stays in the ledger and may authenticate again.
func (h *House) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.name = ""
	c.connected = false
}

// NameInUse reports whether a connected client currently holds the name.
func (h *House) NameInUse(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if c.connected && c.name == name {
			return true
		}
	}
	return false
}

// ListClients returns a snapshot of the connected clients, insertion
// order.
func (h *House) ListClients() []ClientView {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ClientView, 0, len(h.clients))
	for _, c := range h.clients {
		if !c.connected {
			continue
		}
		out = append(out, ClientView{ID: c.id, Name: c.name, Addr: c.addr})
	}
	return out
}

// ListItems returns a snapshot of every item currently in the ledger,
// insertion order, including closed items not yet purged.
func (h *House) ListItems() []ItemView {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]ItemView, 0, len(h.itemOrder))
	for _, name := range h.itemOrder {
		out = append(out, h.view(h.items[name]))
	}
	return out
}

// ItemInfo returns a snapshot of the named item if it is present and
// still active.
func (h *House) ItemInfo(name string) (ItemView, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	it, ok := h.items[name]
	if !ok || !it.active {
		return ItemView{}, false
	}
	return h.view(it), true
}

// Counts returns the number of connected clients and of items in the
// ledger. Used by metrics.
func (h *House) Counts() (clients, items int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if c.connected {
			clients++
		}
	}
	return clients, len(h.items)
}

// AddItem lists an item for sale. The item closes automatically once
// its TTL elapses; a one-shot expiry callback is scheduled here. All
// clients except the seller are notified of the new listing.
func (h *House) AddItem(name string, minPrice int, seller *Client) error {
	h.mu.Lock()
	if _, exists := h.items[name]; exists {
		h.mu.Unlock()
		return ErrItemExists
	}

	it := &item{
		name:      name,
		minPrice:  minPrice,
		seller:    seller,
		active:    true,
		expiresAt: h.now().Add(h.itemTTL),
	}
	h.items[name] = it
	h.itemOrder = append(h.itemOrder, name)

	msg := fmt.Sprintf("%s was added at a minimum price of %d$ by %s", name, minPrice, seller.name)
	actor := seller.name
	recipients := h.connectedExcept(seller)
	expiresAt := it.expiresAt
	h.mu.Unlock()

	h.sched.Once(expiresAt, func() { h.MarkExpired(name) })
	h.deliver(recipients, wire.Notify(msg))
	h.emit(Event{Kind: EventItemListed, Item: name, Amount: minPrice, Actor: actor, Message: msg})
	return nil
}

// Bid places a bid on an item. A bid is accepted only while the item is
// active, only above the minimum price and the current highest bid, and
// never from the seller. On success every distinct bidder on the item
// and the seller are notified, each at most once.
func (h *House) Bid(itemName string, amount int, bidder *Client) error {
	h.mu.Lock()
	it, ok := h.items[itemName]
	if !ok || !it.active {
		h.mu.Unlock()
		return ErrItemNotAvailable
	}
	if it.seller == bidder {
		h.mu.Unlock()
		return ErrOwnItem
	}
	if amount <= it.minPrice || (len(it.bids) > 0 && amount <= it.highestBid) {
		h.mu.Unlock()
		return ErrBidTooLow
	}

	it.bids = append(it.bids, Bid{Amount: amount, Bidder: bidder})
	it.highestBid = amount

	msg := fmt.Sprintf("New bid on %s for %d$ by %s", it.name, amount, bidder.name)
	actor := bidder.name
	recipients := uniqueConnected(append(it.distinctBidders(), it.seller))
	h.mu.Unlock()

	h.deliver(recipients, wire.Notify(msg))
	h.emit(Event{Kind: EventBidPlaced, Item: itemName, Amount: amount, Actor: actor, Message: msg})
	return nil
}

// MarkExpired closes an item: no further bids are accepted and the item
// becomes eligible for the purge. With bids, the highest wins and all
// clients learn the result; without, the item expires unsold. Invoked by
// the scheduler's one-shot expiry callback, never by a client command.
// Calling it for a missing or already closed item is a no-op.
func (h *House) MarkExpired(itemName string) {
	h.mu.Lock()
	it, ok := h.items[itemName]
	if !ok || !it.active {
		h.mu.Unlock()
		return
	}
	it.active = false

	ev := Event{Kind: EventItemExpired, Item: it.name}
	if len(it.bids) > 0 {
		winner := it.bids[0]
		for _, b := range it.bids[1:] {
			if b.Amount > winner.Amount {
				winner = b
			}
		}
		ev = Event{
			Kind:    EventItemSold,
			Item:    it.name,
			Amount:  winner.Amount,
			Actor:   winner.Bidder.name,
			Message: fmt.Sprintf("Item %s was sold for %d$ to %s", it.name, winner.Amount, winner.Bidder.name),
		}
	} else {
		ev.Message = fmt.Sprintf("Item %s expired without any bids", it.name)
	}
	recipients := h.connectedExcept(nil)
	h.mu.Unlock()

	h.log.Info("item closed", "item", itemName, "sold", ev.Kind == EventItemSold)
	h.deliver(recipients, wire.Notify(ev.Message))
	h.emit(ev)
}

// PurgeInactive removes every closed item from the ledger. Idempotent:
// with no newly closed items a second call changes nothing. Invoked by
// the scheduler's periodic sweep.
func (h *House) PurgeInactive() {
	h.mu.Lock()
	defer h.mu.Unlock()
	kept := h.itemOrder[:0]
	for _, name := range h.itemOrder {
		if h.items[name].active {
			kept = append(kept, name)
			continue
		}
		delete(h.items, name)
	}
	h.itemOrder = kept
}

// BroadcastAll delivers a notification to every connected client.
func (h *House) BroadcastAll(msg string) {
	h.mu.Lock()
	recipients := h.connectedExcept(nil)
	h.mu.Unlock()
	h.deliver(recipients, wire.Notify(msg))
}

// BroadcastOthers delivers a notification to every connected client
// except the given one.
func (h *House) BroadcastOthers(except *Client, msg string) {
	h.mu.Lock()
	recipients := h.connectedExcept(except)
	h.mu.Unlock()
	h.deliver(recipients, wire.Notify(msg))
}

// BroadcastSubset delivers a notification to the given clients. Each
// client receives the message at most once even if listed repeatedly.
func (h *House) BroadcastSubset(clients []*Client, msg string) {
	h.mu.Lock()
	recipients := uniqueConnected(clients)
	h.mu.Unlock()
	h.deliver(recipients, wire.Notify(msg))
}

// connectedExcept snapshots the connected clients, optionally excluding
// one. Caller must hold the lock.
func (h *House) connectedExcept(except *Client) []*Client {
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if c.connected && c != except {
			out = append(out, c)
		}
	}
	return out
}

// view renders an item snapshot. Caller must hold the lock.
func (h *House) view(it *item) ItemView {
	v := ItemView{
		Name:       it.name,
		MinPrice:   it.minPrice,
		Active:     it.active,
		ExpiresAt:  it.expiresAt,
		HighestBid: it.highestBid,
		BidCount:   len(it.bids),
	}
	if it.seller != nil {
		v.Seller = it.seller.name
	}
	for _, b := range it.bids {
		if b.Amount == it.highestBid {
			v.HighestBidder = b.Bidder.name
		}
	}
	return v
}

// deliver writes one notification to each recipient's sink. Runs outside
// the ledger lock. A failed delivery removes that client and closes its
// sink, and nothing else: other recipients still get the message and the
// caller never sees an error. Closing the sink tears the transport down
// too, so the removed client cannot keep issuing commands on a session
// the ledger has forgotten.
func (h *House) deliver(recipients []*Client, resp wire.Response) {
	var failed []*Client
	for _, c := range recipients {
		if err := c.sink.Send(resp); err != nil {
			h.log.Warn("notification delivery failed, removing client",
				"client", c.id, "addr", c.addr, "err", err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		h.RemoveClient(c)
		c.sink.Close()
	}
}

// emit publishes an event to all observers, outside the ledger lock.
func (h *House) emit(ev Event) {
	for _, fn := range h.observers {
		fn(ev)
	}
}

// uniqueConnected filters a recipient list down to connected clients,
// dropping duplicates and nils. Caller must hold the lock.
func uniqueConnected(clients []*Client) []*Client {
	seen := make(map[*Client]bool, len(clients))
	out := make([]*Client, 0, len(clients))
	for _, c := range clients {
		if c == nil || seen[c] || !c.connected {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
