// Package server accepts client connections and runs one session per
// connection until it is told to stop accepting.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/iliyamo/bordrail/internal/session"
)

// Server owns the listening socket and the live-session registry.
type Server struct {
	listener net.Listener
	cfg      session.Config
	log      *slog.Logger

	sessions   map[string]*session.Session
	sessionsMu sync.RWMutex
	sessionSeq atomic.Int64

	wg     sync.WaitGroup
	closed atomic.Bool
}

// Listen binds addr.  Failing to bind is the only error that should stop
// the process.
func Listen(addr string, cfg session.Config) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		listener: ln,
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*session.Session),
	}, nil
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until StopAccepting is called or ctx is done.
// Sessions already running are left alone; use Wait or Close for them.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("waiting for clients", "addr", s.listener.Addr().String())

	stop := context.AfterFunc(ctx, s.StopAccepting)
	defer stop()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() || errors.Is(err, net.ErrClosed) {
				s.log.Info("stopped accepting clients")
				return nil
			}
			s.log.Error("accept error", "error", err)
			continue
		}
		sess, ok := s.register(conn)
		if !ok {
			conn.Close()
			continue
		}
		go s.handleSession(ctx, sess)
	}
}

// register adds a session for conn to the registry.  It refuses once the
// server is closed; the check and the insert happen under sessionsMu so a
// concurrent Close either sees the session or makes register fail.
func (s *Server) register(conn net.Conn) (*session.Session, bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if s.closed.Load() {
		return nil, false
	}
	id := fmt.Sprintf("conn-%d", s.sessionSeq.Add(1))
	sess := session.New(id, conn, s.cfg)
	s.sessions[id] = sess
	s.wg.Add(1)
	s.log.Info("session started", "session", id, "live", len(s.sessions))
	return sess, true
}

func (s *Server) handleSession(ctx context.Context, sess *session.Session) {
	defer s.wg.Done()
	id := sess.ID

	err := sess.Run(context.WithoutCancel(ctx))
	switch {
	case err == nil:
	case isExpectedClose(err):
		s.log.Debug("session connection dropped", "session", id, "error", err)
	default:
		s.log.Error("session error", "session", id, "error", err)
	}

	s.sessionsMu.Lock()
	delete(s.sessions, id)
	live := len(s.sessions)
	s.sessionsMu.Unlock()
	s.log.Info("session ended", "session", id, "live", live)
}

// StopAccepting closes the listener so Serve returns.  It is idempotent
// and does not touch running sessions.
func (s *Server) StopAccepting() {
	if s.closed.Swap(true) {
		return
	}
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Error("error closing listener", "error", err)
	}
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()
	return len(s.sessions)
}

// Wait blocks until every session has ended.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Close stops accepting, closes every live session and waits for them.
func (s *Server) Close() error {
	s.StopAccepting()

	s.sessionsMu.RLock()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.sessionsMu.RUnlock()

	s.wg.Wait()
	s.log.Info("server stopped")
	return nil
}

// isExpectedClose reports whether err is a normal way for a peer to go
// away: end of stream, a closed connection, a broken pipe or a reset.
func isExpectedClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
