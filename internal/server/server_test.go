package server

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/bordrail/internal/catalog"
	"github.com/iliyamo/bordrail/internal/dispatch"
	"github.com/iliyamo/bordrail/internal/ledger"
	"github.com/iliyamo/bordrail/internal/model"
	"github.com/iliyamo/bordrail/internal/service"
	"github.com/iliyamo/bordrail/internal/session"
)

type testServer struct {
	srv   *Server
	svc   *service.TicketService
	sink  *ledger.MemorySink
	serve chan error
}

func startServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := catalog.New(
		[]model.User{
			{ID: 1, Name: "Ann", Password: "pw1"},
			{ID: 2, Name: "Bob", Password: "pw2"},
		},
		[]model.Route{{ID: 1, Description: "Leeds to York", Cost: 12.5, Type: "standard", TypeDescription: "Anytime"}},
		[]model.TimetableEntry{
			{RouteID: 1, Day: "Monday", Time: "09:00"},
			{RouteID: 1, Day: "Monday", Time: "17:00"},
		},
	)
	sink := &ledger.MemorySink{}
	svc := service.NewTicketService(store, ledger.New(sink), logger)

	srv, err := Listen("127.0.0.1:0", session.Config{
		Dispatcher:   dispatch.New(svc, logger),
		Log:          logger,
		WriteTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	svc.OnShutdown(srv.StopAccepting)

	ts := &testServer{srv: srv, svc: svc, sink: sink, serve: make(chan error, 1)}
	go func() { ts.serve <- srv.Serve(context.Background()) }()
	t.Cleanup(func() { srv.Close() })
	return ts
}

type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &client{t: t, conn: conn, r: bufio.NewReader(conn)}
}

// do sends one frame and returns the response lines before the blank line.
func (c *client) do(frame string) []string {
	c.t.Helper()
	c.conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := c.conn.Write([]byte(frame)); err != nil {
		c.t.Fatalf("write %s: %v", frame, err)
	}
	var lines []string
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			c.t.Fatalf("read response to %s: %v", frame, err)
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			return lines
		}
		lines = append(lines, line)
	}
}

func TestDownStopsAcceptingButKeepsSessions(t *testing.T) {
	ts := startServer(t)
	addr := ts.srv.Addr().String()
	c := dial(t, addr)

	if got := c.do("DOWN>"); got[0] != "You need to be logged in." {
		t.Fatalf("DOWN before login = %q", got)
	}
	c.do("LOGIN#1#pw1>")
	if got := c.do("DOWN>"); got[0] != "Server going Down." {
		t.Fatalf("DOWN = %q", got)
	}

	select {
	case err := <-ts.serve:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve still accepting after DOWN")
	}
	if conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond); err == nil {
		conn.Close()
		t.Error("connection accepted after DOWN")
	}

	if got := c.do("COST#1>"); len(got) != 2 || got[1] != "GBP: 12.50" {
		t.Errorf("COST on surviving session = %q", got)
	}
	if got := c.do("TERM>"); got[0] != "Goodbye." {
		t.Errorf("TERM = %q", got)
	}

	done := make(chan struct{})
	go func() { ts.srv.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sessions still live after TERM")
	}
	if n := ts.srv.SessionCount(); n != 0 {
		t.Errorf("SessionCount = %d after all sessions ended", n)
	}
}

func TestConcurrentStandardBookings(t *testing.T) {
	ts := startServer(t)
	addr := ts.srv.Addr().String()

	a, b := dial(t, addr), dial(t, addr)
	a.do("LOGIN#1#pw1>")
	b.do("LOGIN#2#pw2>")

	var wg sync.WaitGroup
	replies := make([][]string, 2)
	for i, c := range []*client{a, b} {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			replies[i] = c.do("BKD#1#Monday>")
		}()
	}
	wg.Wait()

	for i, r := range replies {
		if len(r) != 1 || r[0] != "Ticket has been booked." {
			t.Errorf("client %d got %q", i, r)
		}
	}
	recs := ts.sink.Records()
	if len(recs) != 2 {
		t.Fatalf("ledger has %d records, want 2", len(recs))
	}
	users := map[int]bool{recs[0].UserID: true, recs[1].UserID: true}
	if !users[1] || !users[2] {
		t.Errorf("ledger users = %v, want 1 and 2", users)
	}
}

func TestSessionCountTracksClients(t *testing.T) {
	ts := startServer(t)
	c := dial(t, ts.srv.Addr().String())
	c.do("ALLTK>")
	if n := ts.srv.SessionCount(); n != 1 {
		t.Errorf("SessionCount = %d, want 1", n)
	}
	c.conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for ts.srv.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not removed after client disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServeReturnsWhenContextDone(t *testing.T) {
	ln, err := Listen("127.0.0.1:0", session.Config{Log: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ln.Serve(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	ln.StopAccepting()
}

func TestListenFailsOnBadAddress(t *testing.T) {
	if _, err := Listen("127.0.0.1:-1", session.Config{}); err == nil {
		t.Error("Listen accepted an invalid port")
	}
}

func TestConnectionAfterCloseIsRefused(t *testing.T) {
	srv, err := Listen("127.0.0.1:0", session.Config{Log: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}
	srv.Close()

	serverSide, clientSide := net.Pipe()
	defer serverSide.Close()
	defer clientSide.Close()
	if _, ok := srv.register(serverSide); ok {
		t.Fatal("session registered after Close")
	}
	if n := srv.SessionCount(); n != 0 {
		t.Errorf("SessionCount = %d after refused registration", n)
	}

	done := make(chan struct{})
	go func() { srv.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on a connection accepted during Close")
	}
}

func TestCloseEndsRegisteredSessions(t *testing.T) {
	ts := startServer(t)
	c := dial(t, ts.srv.Addr().String())
	c.do("ALLTK>")

	done := make(chan struct{})
	go func() { ts.srv.Close(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not end the live session")
	}
	if n := ts.srv.SessionCount(); n != 0 {
		t.Errorf("SessionCount = %d after Close", n)
	}
}
