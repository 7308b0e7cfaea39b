// Package server accepts line-protocol clients and runs one session per
// connection against the shared user and room registries.
package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"roomchat/internal/database"
	"roomchat/internal/rooms"
	"roomchat/internal/session"
	"roomchat/internal/transport"
	"roomchat/pkg/logger"
)

const maxAcceptDelay = time.Second

type Server struct {
	users *rooms.Users
	rooms *rooms.Manager
	store database.SessionRepository
	opts  transport.Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
}

// New returns a Server sharing users and manager between all of its
// connections. store may be nil.
func New(users *rooms.Users, manager *rooms.Manager, store database.SessionRepository, opts transport.Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		users:     users,
		rooms:     manager,
		store:     store,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		listeners: make(map[net.Listener]struct{}),
	}
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("Listening on %s", ln.Addr())
	return s.Serve(ln)
}

// Serve accepts connections on ln until it is closed. Accept errors other
// than a closed listener are logged and retried.
func (s *Server) Serve(ln net.Listener) error {
	if !s.track(ln) {
		ln.Close()
		return net.ErrClosed
	}
	defer s.untrack(ln)

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.ctx.Err() != nil {
				return nil
			}
			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay = min(delay*2, maxAcceptDelay)
			}
			logger.Error("Accept error: %v; retrying in %v", err, delay)
			select {
			case <-time.After(delay):
			case <-s.ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		go s.ServeConn(transport.NewTCPConn(conn, s.opts))
	}
}

// ServeConn runs a session on conn until the client leaves or the server
// shuts down. It blocks for the lifetime of the session.
func (s *Server) ServeConn(conn session.LineConn) {
	if !s.begin() {
		conn.Close()
		return
	}
	defer s.wg.Done()

	c, err := session.New(conn, s.users, s.rooms, s.store)
	if err != nil {
		logger.Error("Failed to start session for %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	c.Handle(s.ctx)
}

// Shutdown closes all listeners, disconnects every session and waits for
// their teardown to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	for ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Error("Error closing listener %s: %v", ln.Addr(), err)
		}
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// begin registers a session unless shutdown has started.
func (s *Server) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Server) track(ln net.Listener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.listeners[ln] = struct{}{}
	return true
}

func (s *Server) untrack(ln net.Listener) {
	s.mu.Lock()
	delete(s.listeners, ln)
	s.mu.Unlock()
}
