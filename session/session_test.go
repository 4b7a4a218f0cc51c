package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreiv46/auctiond/auction"
	"github.com/andreiv46/auctiond/scheduler"
	"github.com/andreiv46/auctiond/testutil"
	"github.com/andreiv46/auctiond/wire"
)

type fixture struct {
	house *auction.House
	sched *scheduler.Scheduler
	clock *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.NewClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	sched := scheduler.New(scheduler.Config{Now: clock.Now})
	house := auction.NewHouse(auction.Config{
		Sched:         sched,
		Now:           clock.Now,
		SweepInterval: 24 * time.Hour,
	})
	return &fixture{house: house, sched: sched, clock: clock}
}

// newSession registers a fresh connection with the ledger and wraps it
// in a session, the way the TCP server does per accepted conn.
func (f *fixture) newSession(t *testing.T) (*Session, *testutil.CaptureSink) {
	t.Helper()
	sink := testutil.NewCaptureSink()
	cl := auction.NewClient(sink, "127.0.0.1:50000")
	f.house.AddClient(cl)
	return New(f.house, cl), sink
}

func send(t *testing.T, s *Session, line string) wire.Response {
	t.Helper()
	req, err := wire.ParseRequest(line)
	require.NoError(t, err)
	return s.Process(req)
}

func TestConnectAdvancesState(t *testing.T) {
	f := newFixture(t)
	s, _ := f.newSession(t)

	assert.Equal(t, StateStart, s.State())
	resp := send(t, s, "connect alice")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "You have been connected", resp.Payload)
	assert.Equal(t, StateAuthenticated, s.State())
}

func TestCommandsRequireConnect(t *testing.T) {
	f := newFixture(t)

	for _, cmd := range []string{"list", "clients", "add 10 watch", "bid 10 watch", "info watch", "disconnect"} {
		s, _ := f.newSession(t)
		resp := send(t, s, cmd)
		assert.Equal(t, wire.StatusBadState, resp.Status, cmd)
		assert.Equal(t, "Client needs to connect first", resp.Payload, cmd)
		assert.Equal(t, StateStart, s.State(), "illegal command must not advance the state")
	}
}

func TestDoubleConnectRejected(t *testing.T) {
	f := newFixture(t)
	s, _ := f.newSession(t)

	send(t, s, "connect alice")
	resp := send(t, s, "connect bob")
	assert.Equal(t, wire.StatusBadState, resp.Status)
	assert.Equal(t, "Cannot transition from this state", resp.Payload)
	assert.Equal(t, StateAuthenticated, s.State())
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t)
	s, _ := f.newSession(t)
	send(t, s, "connect alice")

	resp := send(t, s, "frobnicate")
	assert.Equal(t, wire.StatusBadState, resp.Status)
	assert.Equal(t, "Cannot transition from this state", resp.Payload)
}

func TestConnectParamValidation(t *testing.T) {
	f := newFixture(t)
	s, _ := f.newSession(t)

	resp := send(t, s, "connect")
	assert.Equal(t, wire.StatusError, resp.Status)
	assert.Equal(t, "Not enough params", resp.Payload)
	assert.Equal(t, StateStart, s.State())

	// A name with spaces arrives as multiple params and is rejected too.
	resp = send(t, s, "connect alice smith")
	assert.Equal(t, wire.StatusError, resp.Status)
	assert.Equal(t, "Not enough params", resp.Payload)
}

func TestConnectNameAlreadyTaken(t *testing.T) {
	f := newFixture(t)
	first, _ := f.newSession(t)
	send(t, first, "connect alice")

	second, _ := f.newSession(t)
	resp := send(t, second, "connect alice")
	assert.Equal(t, wire.StatusError, resp.Status)
	assert.Equal(t, "Name already in use. Please choose another name", resp.Payload)
	assert.Equal(t, StateStart, second.State())

	resp = send(t, second, "connect bob")
	assert.Equal(t, wire.StatusOK, resp.Status)
}

func TestDisconnectReturnsToStart(t *testing.T) {
	f := newFixture(t)
	s, _ := f.newSession(t)
	send(t, s, "connect alice")

	resp := send(t, s, "disconnect")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "You have been disconnected", resp.Payload)
	assert.Equal(t, StateStart, s.State())

	// The name is released and the session may authenticate again.
	assert.False(t, f.house.NameInUse("alice"))
	resp = send(t, s, "connect alice")
	assert.Equal(t, wire.StatusOK, resp.Status)
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t)
	s, _ := f.newSession(t)
	send(t, s, "connect alice")

	for _, tc := range []struct {
		line, want string
	}{
		{"add", "Not enough params"},
		{"add 50", "Not enough params"},
		{"add fifty watch", "Price must be a number"},
	} {
		resp := send(t, s, tc.line)
		assert.Equal(t, wire.StatusError, resp.Status, tc.line)
		assert.Equal(t, tc.want, resp.Payload, tc.line)
	}

	resp := send(t, s, "add 50 pocket watch")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "The item pocket watch has been listed for sale at a minimum price of 50$", resp.Payload)

	resp = send(t, s, "add 99 pocket watch")
	assert.Equal(t, wire.StatusError, resp.Status)
	assert.Equal(t, "Item already exists. Please choose another name", resp.Payload)
}

func TestBidValidationMessages(t *testing.T) {
	f := newFixture(t)
	seller, _ := f.newSession(t)
	send(t, seller, "connect alice")
	send(t, seller, "add 50 watch")

	bidder, _ := f.newSession(t)
	send(t, bidder, "connect bob")

	for _, tc := range []struct {
		line, want string
	}{
		{"bid", "Not enough params"},
		{"bid 60", "Not enough params"},
		{"bid lots watch", "Amount must be a number"},
		{"bid 60 telescope", "Item not available"},
		{"bid 40 watch", "Bid too low"},
	} {
		resp := send(t, bidder, tc.line)
		assert.Equal(t, wire.StatusError, resp.Status, tc.line)
		assert.Equal(t, tc.want, resp.Payload, tc.line)
	}

	resp := send(t, seller, "bid 60 watch")
	assert.Equal(t, wire.StatusError, resp.Status)
	assert.Equal(t, "Cannot bid on your own item", resp.Payload)

	resp = send(t, bidder, "bid 60 watch")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "Bid placed successfully", resp.Payload)
}

func TestListRendering(t *testing.T) {
	f := newFixture(t)
	s, _ := f.newSession(t)
	send(t, s, "connect alice")

	resp := send(t, s, "list")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "No items available", resp.Payload)

	send(t, s, "add 50 pocket watch")
	send(t, s, "add 20 cap")
	f.house.MarkExpired("cap")

	until := f.clock.Now().Add(5 * time.Minute).Format(time.DateTime)
	resp = send(t, s, "list")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, fmt.Sprintf("pocket watch - 50$ available until %s\nUNAVAILABLE cap - 20$", until), resp.Payload)
}

func TestClientsRendering(t *testing.T) {
	f := newFixture(t)
	s, _ := f.newSession(t)
	send(t, s, "connect alice")
	other, _ := f.newSession(t)
	send(t, other, "connect bob")

	resp := send(t, s, "clients")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "alice - 127.0.0.1:50000\nbob - 127.0.0.1:50000", resp.Payload)
}

func TestInfoRendering(t *testing.T) {
	f := newFixture(t)
	seller, _ := f.newSession(t)
	send(t, seller, "connect alice")
	send(t, seller, "add 50 pocket watch")

	bidder, _ := f.newSession(t)
	send(t, bidder, "connect bob")

	resp := send(t, bidder, "info")
	assert.Equal(t, wire.StatusError, resp.Status)
	assert.Equal(t, "Not enough params", resp.Payload)

	resp = send(t, bidder, "info telescope")
	assert.Equal(t, wire.StatusError, resp.Status)
	assert.Equal(t, "Item not available", resp.Payload)

	resp = send(t, bidder, "info pocket watch")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "pocket watch - no bids yet", resp.Payload)

	send(t, bidder, "bid 60 pocket watch")
	resp = send(t, bidder, "info pocket watch")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "pocket watch - highest bid: 60$ by bob", resp.Payload)
}

// TestTwoClientScenario walks the canonical two-client exchange end to
// end at the session level, including the expiry broadcast.
func TestTwoClientScenario(t *testing.T) {
	f := newFixture(t)

	alice, aliceSink := f.newSession(t)
	resp := send(t, alice, "connect alice")
	require.Equal(t, wire.StatusOK, resp.Status)

	bob, bobSink := f.newSession(t)
	resp = send(t, bob, "connect bob")
	require.Equal(t, wire.StatusOK, resp.Status)

	resp = send(t, alice, "add 50 pocket watch")
	require.Equal(t, wire.StatusOK, resp.Status)
	require.Equal(t, []string{"pocket watch was added at a minimum price of 50$ by alice"}, bobSink.Payloads())

	resp = send(t, bob, "bid 60 pocket watch")
	require.Equal(t, wire.StatusOK, resp.Status)
	require.Equal(t, "Bid placed successfully", resp.Payload)
	assert.Contains(t, aliceSink.Payloads(), "New bid on pocket watch for 60$ by bob")
	assert.Contains(t, bobSink.Payloads(), "New bid on pocket watch for 60$ by bob")

	f.clock.Advance(5 * time.Minute)
	f.sched.RunDue()

	want := "Item pocket watch was sold for 60$ to bob"
	for _, sink := range []*testutil.CaptureSink{aliceSink, bobSink} {
		payloads := sink.Payloads()
		require.NotEmpty(t, payloads)
		assert.Equal(t, want, payloads[len(payloads)-1])
	}

	resp = send(t, bob, "disconnect")
	assert.Equal(t, wire.StatusOK, resp.Status)
	assert.Equal(t, "You have been disconnected", resp.Payload)
}
