package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andreiv46/auctiond/auction"
	"github.com/andreiv46/auctiond/wire"
)

// State is a session's position in the protocol state machine.
type State int

const (
	// StateStart is the unauthenticated state; only connect is legal.
	StateStart State = iota

	// StateAuthenticated is the state after a successful connect.
	StateAuthenticated
)

// String implements fmt.Stringer for logging.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Handler processes one command. Handlers are pure with respect to their
// inputs: they take the parsed request, the shared ledger and the calling
// client, and return the next state plus the one reply for this command.
// Broadcasts to other clients are side effects of the ledger operation,
// never of the handler itself.
type Handler func(req wire.Request, house *auction.House, cl *auction.Client) (State, wire.Response)

// transitions is the static table keyed by (state, command). A lookup
// miss is an illegal transition; the table is never mutated after init.
var transitions = map[State]map[string]Handler{
	StateStart: {
		"connect": handleConnect,
	},
	StateAuthenticated: {
		"disconnect": handleDisconnect,
		"list":       handleList,
		"clients":    handleClients,
		"add":        handleAdd,
		"bid":        handleBid,
		"info":       handleInfo,
	},
}

// Session is the per-connection protocol state machine. It mediates
// incoming commands into ledger operations according to the transition
// table. A Session is driven from a single goroutine (the connection's
// read loop) and needs no locking of its own.
type Session struct {
	state  State
	house  *auction.House
	client *auction.Client
}

// New creates a session in the start state for one connection.
func New(house *auction.House, client *auction.Client) *Session {
	return &Session{
		state:  StateStart,
		house:  house,
		client: client,
	}
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// Process dispatches one command through the transition table, advances
// the state, and returns the reply to write back to the client.
func (s *Session) Process(req wire.Request) wire.Response {
	handler, ok := transitions[s.state][req.Command]
	if !ok {
		if s.state == StateStart {
			return wire.BadState("Client needs to connect first")
		}
		return wire.BadState("Cannot transition from this state")
	}
	next, resp := handler(req, s.house, s.client)
	s.state = next
	return resp
}

func handleConnect(req wire.Request, house *auction.House, cl *auction.Client) (State, wire.Response) {
	if len(req.Params) != 1 {
		return StateStart, wire.Error("Not enough params")
	}
	if err := house.Connect(cl, req.Params[0]); err != nil {
		return StateStart, wire.Error(err.Error())
	}
	return StateAuthenticated, wire.OK("You have been connected")
}

func handleDisconnect(req wire.Request, house *auction.House, cl *auction.Client) (State, wire.Response) {
	house.Disconnect(cl)
	return StateStart, wire.OK("You have been disconnected")
}

func handleList(req wire.Request, house *auction.House, cl *auction.Client) (State, wire.Response) {
	items := house.ListItems()
	if len(items) == 0 {
		return StateAuthenticated, wire.OK("No items available")
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if it.Active {
			lines = append(lines, fmt.Sprintf("%s - %d$ available until %s",
				it.Name, it.MinPrice, it.ExpiresAt.Format(time.DateTime)))
		} else {
			lines = append(lines, fmt.Sprintf("UNAVAILABLE %s - %d$", it.Name, it.MinPrice))
		}
	}
	return StateAuthenticated, wire.OK(strings.Join(lines, "\n"))
}

func handleClients(req wire.Request, house *auction.House, cl *auction.Client) (State, wire.Response) {
	clients := house.ListClients()
	lines := make([]string, 0, len(clients))
	for _, c := range clients {
		lines = append(lines, fmt.Sprintf("%s - %s", c.Name, c.Addr))
	}
	return StateAuthenticated, wire.OK(strings.Join(lines, "\n"))
}

func handleAdd(req wire.Request, house *auction.House, cl *auction.Client) (State, wire.Response) {
	if len(req.Params) < 2 {
		return StateAuthenticated, wire.Error("Not enough params")
	}
	price, err := strconv.Atoi(req.Params[0])
	if err != nil {
		return StateAuthenticated, wire.Error("Price must be a number")
	}
	name := req.JoinedParams(1)
	if err := house.AddItem(name, price, cl); err != nil {
		return StateAuthenticated, wire.Error(err.Error())
	}
	return StateAuthenticated, wire.OK(fmt.Sprintf(
		"The item %s has been listed for sale at a minimum price of %d$", name, price))
}

func handleBid(req wire.Request, house *auction.House, cl *auction.Client) (State, wire.Response) {
	if len(req.Params) < 2 {
		return StateAuthenticated, wire.Error("Not enough params")
	}
	amount, err := strconv.Atoi(req.Params[0])
	if err != nil {
		return StateAuthenticated, wire.Error("Amount must be a number")
	}
	name := req.JoinedParams(1)
	if err := house.Bid(name, amount, cl); err != nil {
		return StateAuthenticated, wire.Error(err.Error())
	}
	return StateAuthenticated, wire.OK("Bid placed successfully")
}

func handleInfo(req wire.Request, house *auction.House, cl *auction.Client) (State, wire.Response) {
	if len(req.Params) < 1 {
		return StateAuthenticated, wire.Error("Not enough params")
	}
	name := req.JoinedParams(0)
	it, ok := house.ItemInfo(name)
	if !ok {
		return StateAuthenticated, wire.Error("Item not available")
	}
	if it.BidCount == 0 {
		return StateAuthenticated, wire.OK(fmt.Sprintf("%s - no bids yet", it.Name))
	}
	return StateAuthenticated, wire.OK(fmt.Sprintf(
		"%s - highest bid: %d$ by %s", it.Name, it.HighestBid, it.HighestBidder))
}
