// Package session runs the request loop for one client connection.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/bordrail/internal/dispatch"
	"github.com/iliyamo/bordrail/internal/protocol"
)

// State is the position of a session in its lifecycle.
type State int32

const (
	Unauthenticated State = iota
	Authenticated
	Terminated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Terminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Handler executes one frame for a session.
type Handler interface {
	Dispatch(ctx context.Context, auth *dispatch.Auth, f protocol.Frame) dispatch.Result
}

// Config contains configuration for creating a session.
type Config struct {
	Dispatcher   Handler
	Log          *slog.Logger
	ReadSize     int           // bytes per read (default protocol.DefaultReadSize)
	MaxFrameSize int           // bytes buffered per frame (default protocol.DefaultMaxFrameSize)
	IdleTimeout  time.Duration // zero waits forever for the next frame
	WriteTimeout time.Duration // zero never times out a response write
}

// Session owns one connection and its login state.
type Session struct {
	ID string

	conn   net.Conn
	framer *protocol.Framer
	cfg    Config
	log    *slog.Logger

	auth      dispatch.Auth
	state     atomic.Int32
	closeOnce sync.Once
}

// New creates a session for conn.  The session does not start reading
// until Run is called.
func New(id string, conn net.Conn, cfg Config) *Session {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		ID:     id,
		conn:   conn,
		framer: protocol.NewFramer(conn, cfg.ReadSize, cfg.MaxFrameSize),
		cfg:    cfg,
		log:    log.With("session", id),
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Run reads and answers frames until the client sends TERM, closes the
// connection, or the stream fails.  It returns nil for the first two and
// the underlying error otherwise.  The connection is closed on return.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		s.auth = dispatch.Auth{}
		s.Close()
	}()
	s.log.Info("client connected", "remote", s.conn.RemoteAddr().String())

	for {
		if s.cfg.IdleTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		f, err := s.framer.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Info("client closed connection")
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		s.log.Debug("frame received", "command", f.Command, "fields", len(f.Fields))

		res := s.cfg.Dispatcher.Dispatch(ctx, &s.auth, f)
		s.syncState()

		if err := s.write(res.Bytes()); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		if res.Terminate {
			s.log.Info("client ended session")
			return nil
		}
	}
}

// syncState mirrors the login flag into state.  Terminated is final.
func (s *Session) syncState() {
	next := Unauthenticated
	if s.auth.LoggedIn {
		next = Authenticated
	}
	for {
		cur := s.state.Load()
		if State(cur) == Terminated || s.state.CompareAndSwap(cur, int32(next)) {
			return
		}
	}
}

func (s *Session) write(b []byte) error {
	if s.cfg.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	_, err := s.conn.Write(b)
	return err
}

// Close terminates the session and closes its connection.  It is safe to
// call from another goroutine; a blocked Run returns with a read error.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.state.Store(int32(Terminated))
		err = s.conn.Close()
	})
	return err
}
