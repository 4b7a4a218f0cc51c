package server

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"go.uber.org/atomic"

	"github.com/andreiv46/auctiond/auction"
	"github.com/andreiv46/auctiond/session"
	"github.com/andreiv46/auctiond/wire"
)

// Sink errors. Both mean the client is gone as far as the ledger is
// concerned; the connection is torn down and the client removed.
var (
	// ErrSinkClosed means the connection's writer has already stopped.
	ErrSinkClosed = errors.New("sink closed")

	// ErrSinkFull means the client's outbound buffer is full; the
	// reader is too slow to keep its connection.
	ErrSinkFull = errors.New("outbound buffer full")
)

// Config contains TCP server parameters.
type Config struct {
	// ListenAddr is the TCP address to listen on, e.g. ":8080".
	ListenAddr string

	// House is the shared auction ledger. Required.
	House *auction.House

	// SendBuffer is the per-client outbound queue length. A client
	// whose queue fills up is treated as failed and removed.
	// Defaults to 64 when zero.
	SendBuffer int

	// Log defaults to slog.Default when nil.
	Log *slog.Logger
}

// Server accepts auction protocol connections and runs one session per
// connection: a read loop parsing command lines, and a writer pump
// draining the client's outbound queue. Synchronous replies and
// asynchronous notifications go through the same queue, so a single
// goroutine owns all writes to a connection.
type Server struct {
	cfg  Config
	log  *slog.Logger
	ln   net.Listener
	wg   sync.WaitGroup
	mu   sync.Mutex
	conn map[net.Conn]struct{}
}

// New creates a server and binds its listener. Run starts accepting
// connections.
func New(cfg Config) (*Server, error) {
	if cfg.House == nil {
		return nil, errors.New("house cannot be nil")
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:  cfg,
		log:  cfg.Log,
		ln:   ln,
		conn: make(map[net.Conn]struct{}),
	}, nil
}

// Run serves until ctx is cancelled, then closes the listener and every
// live connection and waits for the session goroutines to drain.
func (s *Server) Run(ctx context.Context) error {
	ln := s.ln
	s.log.Info("auction server listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		ln.Close()
		s.mu.Lock()
		for c := range s.conn {
			c.Close()
		}
		s.mu.Unlock()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			return err
		}
		s.track(conn, true)
		if ctx.Err() != nil {
			// Shutdown may have swept the conn map before this conn
			// was tracked; close it here so its session unblocks.
			conn.Close()
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Addr returns the bound listener address, for tests that listen on
// port zero.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conn[c] = struct{}{}
	} else {
		delete(s.conn, c)
	}
}

// handleConn owns one connection from accept to teardown. The client is
// registered with the ledger for the connection's whole lifetime and
// removed exactly when the connection dies, voluntarily or not.
func (s *Server) handleConn(conn net.Conn) {
	sink := newConnSink(conn, s.cfg.SendBuffer)
	go sink.pump()

	client := auction.NewClient(sink, conn.RemoteAddr().String())
	s.cfg.House.AddClient(client)
	sess := session.New(s.cfg.House, client)

	s.log.Info("client connected", "client", client.ID(), "addr", client.Addr())

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		req, err := wire.ParseRequest(scanner.Text())
		if err != nil {
			continue // blank line
		}
		resp := sess.Process(req)
		if err := sink.Send(resp); err != nil {
			break
		}
	}

	s.cfg.House.RemoveClient(client)
	sink.Close()
	s.track(conn, false)
	s.log.Info("client disconnected", "client", client.ID(), "addr", client.Addr())
}

// connSink queues responses for one connection. Send never blocks: the
// ledger's broadcast path must not stall on a slow reader, so a full
// queue is a delivery failure and costs the client its connection.
type connSink struct {
	conn   net.Conn
	ch     chan wire.Response
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
}

func newConnSink(conn net.Conn, buffer int) *connSink {
	return &connSink{
		conn: conn,
		ch:   make(chan wire.Response, buffer),
		done: make(chan struct{}),
	}
}

// Send implements auction.Sink.
func (s *connSink) Send(resp wire.Response) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}
	select {
	case s.ch <- resp:
		return nil
	default:
		return ErrSinkFull
	}
}

// Close stops the pump and closes the connection, which ends the read
// loop on the other side of the session. Implements auction.Sink; safe
// to call multiple times.
func (s *connSink) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.conn.Close()
	})
}

// pump drains the queue onto the connection. It is the only goroutine
// writing to the connection, so replies and pushes never interleave
// inside a frame. A write failure closes the connection, which also
// ends the read loop.
func (s *connSink) pump() {
	for {
		select {
		case <-s.done:
			return
		case resp := <-s.ch:
			data, err := resp.Encode()
			if err != nil {
				continue
			}
			if _, err := s.conn.Write(data); err != nil {
				s.closed.Store(true)
				s.conn.Close()
				return
			}
		}
	}
}
