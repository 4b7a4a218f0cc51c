package server

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreiv46/auctiond/auction"
	"github.com/andreiv46/auctiond/scheduler"
	"github.com/andreiv46/auctiond/wire"
)

func TestConnSinkBufferAndClose(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()

	// The pump is deliberately not started, so the queue never drains.
	sink := newConnSink(serverEnd, 1)
	require.NoError(t, sink.Send(wire.Notify("one")))
	assert.ErrorIs(t, sink.Send(wire.Notify("two")), ErrSinkFull)

	sink.Close()
	sink.Close() // idempotent
	assert.ErrorIs(t, sink.Send(wire.Notify("three")), ErrSinkClosed)
}

// TestSlowReaderIsDroppedAndDisconnected overflows a client's outbound
// queue and verifies the ledger's reaction end to end: the client is
// removed, its name freed, and its connection closed so the stalled
// session cannot come back and keep issuing commands.
func TestSlowReaderIsDroppedAndDisconnected(t *testing.T) {
	sched := scheduler.New(scheduler.Config{})
	house := auction.NewHouse(auction.Config{Sched: sched})

	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()

	// One-slot queue and no pump: the peer never reads anything.
	sink := newConnSink(serverEnd, 1)
	bob := auction.NewClient(sink, serverEnd.RemoteAddr().String())
	house.AddClient(bob)
	require.NoError(t, house.Connect(bob, "bob"))

	house.BroadcastAll("going once")  // fills the queue
	house.BroadcastAll("going twice") // overflows it

	assert.Empty(t, house.ListClients())
	assert.False(t, house.NameInUse("bob"))

	// The transport went down with the registration: the peer sees the
	// stream end and can no longer submit command lines.
	clientEnd.SetReadDeadline(time.Now().Add(time.Second))
	_, err := clientEnd.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	_, err = clientEnd.Write([]byte("bid 100 watch\n"))
	assert.Error(t, err)
}
