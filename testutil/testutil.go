package testutil

import (
	"sync"
	"time"

	"github.com/andreiv46/auctiond/wire"
)

// Clock is a controllable time source for scheduler and ledger tests.
// The zero value is not usable; create one with NewClock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at the given instant.
func NewClock(at time.Time) *Clock {
	return &Clock{now: at}
}

// Now returns the clock's current instant. Pass as the Now option to
// scheduler.Config and auction.Config.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// CaptureSink records every response delivered to it. It can be made to
// fail on demand, for exercising the ledger's dead-client handling.
type CaptureSink struct {
	mu     sync.Mutex
	got    []wire.Response
	fail   error
	closed bool
}

// NewCaptureSink creates a sink that accepts everything.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// Send implements auction.Sink.
func (s *CaptureSink) Send(resp wire.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.got = append(s.got, resp)
	return nil
}

// FailWith makes every subsequent Send return err. Pass nil to recover.
func (s *CaptureSink) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Close implements auction.Sink.
func (s *CaptureSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether the ledger has torn this sink down.
func (s *CaptureSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Responses returns a copy of everything delivered so far.
func (s *CaptureSink) Responses() []wire.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Response, len(s.got))
	copy(out, s.got)
	return out
}

// Payloads returns just the payload strings, in delivery order.
func (s *CaptureSink) Payloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.got))
	for i, r := range s.got {
		out[i] = r.Payload
	}
	return out
}

// Len returns the number of delivered responses.
func (s *CaptureSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}
