package client

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/andreiv46/auctiond/wire"
)

// Client is a connection to an auction server. It owns a reader
// goroutine that decodes incoming response envelopes and delivers them
// on Messages.
//
// The protocol multiplexes replies and pushes on one stream with no
// correlation marker, so the client cannot pair an incoming message
// with the command that caused it; consumers filter on wire.Status.
type Client struct {
	conn net.Conn

	msgs chan wire.Response

	mu      sync.Mutex
	readErr error
	once    sync.Once
}

// Dial connects to an auction server and starts the reader.
func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial auction server: %w", err)
	}

	c := &Client{
		conn: conn,
		msgs: make(chan wire.Response, 32),
	}
	go c.readLoop()
	return c, nil
}

// Send writes one command line to the server.
func (c *Client) Send(command string) error {
	if _, err := fmt.Fprintf(c.conn, "%s\n", command); err != nil {
		return fmt.Errorf("send command: %w", err)
	}
	return nil
}

// Messages returns the stream of incoming responses, replies and pushes
// interleaved in arrival order. The channel closes when the connection
// ends; check Err afterwards.
func (c *Client) Messages() <-chan wire.Response {
	return c.msgs
}

// Next waits for the next incoming message, up to the given timeout.
// Handy for tests and simple sequential use; concurrent pushes may
// arrive first.
func (c *Client) Next(timeout time.Duration) (wire.Response, error) {
	select {
	case resp, ok := <-c.msgs:
		if !ok {
			if err := c.Err(); err != nil {
				return wire.Response{}, fmt.Errorf("connection closed: %w", err)
			}
			return wire.Response{}, fmt.Errorf("connection closed")
		}
		return resp, nil
	case <-time.After(timeout):
		return wire.Response{}, fmt.Errorf("timed out waiting for response")
	}
}

// Err returns the error that ended the read loop, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// Close terminates the connection. Implements io.Closer.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() { err = c.conn.Close() })
	return err
}

func (c *Client) readLoop() {
	defer close(c.msgs)

	scanner := bufio.NewScanner(c.conn)
	for scanner.Scan() {
		resp, err := wire.DecodeResponse(scanner.Bytes())
		if err != nil {
			continue // skip malformed line
		}
		c.msgs <- resp
	}

	c.mu.Lock()
	c.readErr = scanner.Err()
	c.mu.Unlock()
}
