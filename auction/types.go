package auction

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreiv46/auctiond/wire"
)

// Sink is a client's outbound message channel. Implementations must not
// block indefinitely: the ledger delivers notifications through sinks
// after releasing its lock, and treats any Send error as a dead client.
type Sink interface {
	// Send queues one response for delivery to the client. An error
	// means the client is unreachable and will be removed.
	Send(resp wire.Response) error

	// Close tears the client's transport down. The ledger calls it when
	// it gives up on a client, so the connection's read loop ends and no
	// further commands arrive from the removed session. Must be safe to
	// call more than once.
	Close()
}

// Client is one connected auction participant. Identity is reference
// identity: the same *Client may be unnamed (before connect), named, or
// renamed after a disconnect, all on one underlying stream.
//
// The name and connected fields are guarded by the owning House's lock;
// everything else is immutable after construction.
type Client struct {
	id   string
	addr string
	sink Sink

	name      string
	connected bool
}

// NewClient creates a client for a freshly accepted connection. The
// client starts unnamed and disconnected; it joins the ledger through
// House.AddClient and authenticates through House.Connect.
func NewClient(sink Sink, addr string) *Client {
	return &Client{
		id:   uuid.New().String(),
		addr: addr,
		sink: sink,
	}
}

// ID returns the client's connection identifier, used for logging.
func (c *Client) ID() string { return c.id }

// Addr returns the client's remote address.
func (c *Client) Addr() string { return c.addr }

// Bid is a single bid on an item. Immutable once created.
type Bid struct {
	Amount int
	Bidder *Client
}

// item is an entry in the ledger's item set. All fields are guarded by
// the House lock; expiresAt and minPrice never change after creation.
type item struct {
	name       string
	minPrice   int
	seller     *Client
	bids       []Bid
	highestBid int // zero means no bids; valid bids always exceed minPrice
	active     bool
	expiresAt  time.Time
}

// distinctBidders returns every client that has bid on the item, each
// once, regardless of how many bids they placed.
func (it *item) distinctBidders() []*Client {
	seen := make(map[*Client]bool, len(it.bids))
	var out []*Client
	for _, b := range it.bids {
		if !seen[b.Bidder] {
			seen[b.Bidder] = true
			out = append(out, b.Bidder)
		}
	}
	return out
}

// ItemView is a point-in-time snapshot of an item, safe to use without
// the ledger lock.
type ItemView struct {
	Name          string    `json:"name"`
	MinPrice      int       `json:"min_price"`
	Seller        string    `json:"seller"`
	Active        bool      `json:"active"`
	ExpiresAt     time.Time `json:"expires_at"`
	HighestBid    int       `json:"highest_bid"`
	HighestBidder string    `json:"highest_bidder,omitempty"`
	BidCount      int       `json:"bid_count"`
}

// ClientView is a point-in-time snapshot of a connected client.
type ClientView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// EventKind classifies ledger events published to observers.
type EventKind int

const (
	// EventItemListed fires when an item is put up for sale.
	EventItemListed EventKind = iota

	// EventBidPlaced fires when a bid is accepted.
	EventBidPlaced

	// EventItemSold fires when an item closes with at least one bid.
	EventItemSold

	// EventItemExpired fires when an item closes without bids.
	EventItemExpired
)

// Event describes one ledger state change. Observers (the websocket
// feed, metrics) receive events after the triggering operation has
// released the ledger lock.
type Event struct {
	Kind    EventKind
	Item    string
	Amount  int
	Actor   string // seller for listings, bidder for bids and sales
	Message string // the broadcast text delivered to clients
}
