// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

// Package server owns all socket I/O. One goroutine pair per connection
// (reader drives the protocol engine in arrival order, writer drains a
// bounded outbound queue), so no handler ever blocks on another
// connection's I/O and a slow client stalls only itself. Per-client
// faults tear down that connection alone; the accept loop never stops
// on one.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/mauricegss/VoteFlix/config"
	"github.com/mauricegss/VoteFlix/protocol"
)

// Handler processes one framed request line. *protocol.Engine is the
// production implementation.
type Handler interface {
	HandleLine(ctx context.Context, line string) protocol.Result
}

// Observer is notified of connection lifecycle events. It exists for
// the active-user console display; it is a side channel, not part of
// the protocol contract.
type Observer interface {
	ClientConnected(label string)
	UserAuthenticated(label string)
	ClientDisconnected(label string)
}

type noopObserver struct{}

func (noopObserver) ClientConnected(string)    {}
func (noopObserver) UserAuthenticated(string)  {}
func (noopObserver) ClientDisconnected(string) {}

// Stats are cumulative server counters.
type Stats struct {
	Accepted int64
	Active   int64
}

// Server accepts connections and runs them against the protocol engine.
type Server struct {
	cfg      *config.Config
	handler  Handler
	logger   *slog.Logger
	observer Observer

	mu       sync.Mutex
	listener net.Listener
	conns    map[uuid.UUID]*conn

	accepted atomic.Int64
	active   atomic.Int64
	closed   atomic.Bool
	wg       sync.WaitGroup
}

// New wires a server. observer may be nil.
func New(cfg *config.Config, handler Handler, logger *slog.Logger, observer Observer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Server{
		cfg:      cfg,
		handler:  handler,
		logger:   logger,
		observer: observer,
		conns:    make(map[uuid.UUID]*conn),
	}
}

// Serve listens on the configured address and accepts until ctx is
// canceled or Close is called. Per-connection I/O errors never
// terminate the accept loop.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("Server listening", "addr", ln.Addr().String())

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		sock, err := ln.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("Accept failed", "error", err)
			continue
		}
		s.accepted.Inc()
		c := newConn(s, sock)

		s.mu.Lock()
		s.conns[c.id] = c
		s.mu.Unlock()
		s.active.Inc()

		s.logger.Info("Client connected", "conn_id", c.id, "remote", sock.RemoteAddr())
		s.observer.ClientConnected(c.label())

		s.wg.Add(2)
		go c.readLoop(ctx)
		go c.writeLoop()
	}
}

// Addr returns the bound listen address, for tests using ":0".
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close stops accepting, force-closes every connection and waits for
// their goroutines to drain.
func (s *Server) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for _, c := range s.conns {
		_ = c.sock.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("Server stopped")
}

// Stats returns cumulative counters.
func (s *Server) Stats() Stats {
	return Stats{Accepted: s.accepted.Load(), Active: s.active.Load()}
}

// DisconnectUser force-closes every live connection authenticated as
// username. Used after an admin deletes the account; the dead token
// would otherwise keep the session limping until its next request.
func (s *Server) DisconnectUser(username string) {
	s.mu.Lock()
	var targets []*conn
	for _, c := range s.conns {
		if strings.EqualFold(c.usernameSnapshot(), username) {
			targets = append(targets, c)
		}
	}
	s.mu.Unlock()

	for _, c := range targets {
		s.logger.Info("Force-disconnecting deleted user", "user", username, "conn_id", c.id)
		_ = c.sock.Close()
	}
}

// removeConn unregisters a finished connection and notifies the
// observer exactly once.
func (s *Server) removeConn(c *conn) {
	s.mu.Lock()
	_, present := s.conns[c.id]
	delete(s.conns, c.id)
	s.mu.Unlock()
	if !present {
		return
	}
	s.active.Dec()
	s.logger.Info("Client disconnected", "conn_id", c.id, "remote", c.remoteAddr)
	s.observer.ClientDisconnected(c.label())
}
