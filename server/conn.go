// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mauricegss/VoteFlix/wire"
)

// conn is one client connection: a socket, a reader goroutine decoding
// lines and running the engine synchronously (per-connection order is
// therefore preserved), and a writer goroutine draining the bounded
// outbound queue. Exactly one conn per socket.
type conn struct {
	id         uuid.UUID
	sock       net.Conn
	srv        *Server
	out        chan []byte
	remoteAddr string
	remoteIP   string

	mu       sync.Mutex
	username string // set once LOGIN succeeds
}

func newConn(s *Server, sock net.Conn) *conn {
	ip := ""
	if addr, ok := sock.RemoteAddr().(*net.TCPAddr); ok {
		ip = addr.IP.String()
	}
	return &conn{
		id:         uuid.New(),
		sock:       sock,
		srv:        s,
		out:        make(chan []byte, s.cfg.WriteQueueSize),
		remoteAddr: sock.RemoteAddr().String(),
		remoteIP:   ip,
	}
}

// label is the "name (ip)" identifier shown on the active-user display,
// falling back to the remote address before LOGIN.
func (c *conn) label() string {
	if u := c.usernameSnapshot(); u != "" {
		return fmt.Sprintf("%s (%s)", u, c.remoteIP)
	}
	return c.remoteAddr
}

func (c *conn) usernameSnapshot() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

func (c *conn) setUsername(name string) {
	c.mu.Lock()
	c.username = name
	c.mu.Unlock()
}

// readLoop decodes request lines and runs the engine. It owns the out
// channel: closing it (once, on the way out) tells the writer to drain
// what is queued and then close the socket.
func (c *conn) readLoop(ctx context.Context) {
	defer c.srv.wg.Done()
	defer func() {
		close(c.out)
		c.srv.removeConn(c)
	}()

	dec := wire.NewDecoder(c.sock)
	idle := c.srv.cfg.IdleTimeout.Std()

	for {
		if idle > 0 {
			_ = c.sock.SetReadDeadline(time.Now().Add(idle))
		}
		line, err := dec.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.srv.logger.Debug("Read ended", "conn_id", c.id, "error", err)
			}
			return
		}

		c.srv.logger.Debug("Request", "conn_id", c.id, "from", c.label(), "line", line)
		res := c.srv.handler.HandleLine(ctx, line)

		payload, err := wire.EncodeResponse(res.Response)
		if err != nil {
			c.srv.logger.Error("Encode response failed", "conn_id", c.id, "error", err)
			payload, _ = wire.EncodeResponse(wire.Error(wire.StatusInternalError))
		}
		c.srv.logger.Debug("Response", "conn_id", c.id, "to", c.label(), "status", res.Response.Status)

		// Queueing applies backpressure only to this connection: when
		// the queue is full the reader blocks here, never the server.
		c.out <- payload

		if res.AuthenticatedUser != "" {
			c.setUsername(res.AuthenticatedUser)
			c.srv.observer.UserAuthenticated(c.label())
		}
		if res.DisconnectUser != "" {
			c.srv.DisconnectUser(res.DisconnectUser)
		}
		if res.CloseAfterWrite {
			// Graceful half-duplex shutdown: the queued response is
			// flushed by the writer before the socket closes.
			return
		}
	}
}

// writeLoop drains the outbound queue. After a write error it keeps
// receiving (and discarding) so the reader can never deadlock on a full
// queue, then closes the socket when the reader closes the channel.
func (c *conn) writeLoop() {
	defer c.srv.wg.Done()
	defer func() { _ = c.sock.Close() }()

	failed := false
	for payload := range c.out {
		if failed {
			continue
		}
		if _, err := c.sock.Write(payload); err != nil {
			c.srv.logger.Debug("Write failed", "conn_id", c.id, "error", err)
			failed = true
			_ = c.sock.Close()
		}
	}
}
