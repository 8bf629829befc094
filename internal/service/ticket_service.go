package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/iliyamo/bordrail/internal/catalog"
	"github.com/iliyamo/bordrail/internal/model"
)

// ErrShuttingDown is returned by RequestShutdown when shutdown was already
// requested.
var ErrShuttingDown = errors.New("server is already shutting down")

// Appender is the ledger as seen by the service.
type Appender interface {
	Append(ctx context.Context, rec model.BookingRecord) error
}

// TicketService answers catalog queries and records bookings.  Every
// method that reads the catalog for a response, appends to the ledger or
// flips the shutdown flag runs under one mutex, so all of them happen in
// a single total order across every connected session.
type TicketService struct {
	mu           sync.Mutex
	catalog      *catalog.Store
	ledger       Appender
	shuttingDown bool
	onShutdown   []func()
	log          *slog.Logger
}

func NewTicketService(store *catalog.Store, ledger Appender, logger *slog.Logger) *TicketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TicketService{catalog: store, ledger: ledger, log: logger}
}

// LoginOutcome is the result of checking credentials.
type LoginOutcome int

const (
	LoginOK LoginOutcome = iota
	LoginWrongPassword
	LoginUnknownUser
)

// Authenticate checks a user ID and plain text password.  Users are
// immutable after load, so no lock is taken.  When several records share
// the ID, any record with an equal password succeeds.
func (s *TicketService) Authenticate(userID int, password string) (model.User, LoginOutcome) {
	found := false
	for _, u := range s.catalog.Users() {
		if u.ID != userID {
			continue
		}
		if u.Password == password {
			return u, LoginOK
		}
		found = true
	}
	if found {
		return model.User{}, LoginWrongPassword
	}
	return model.User{}, LoginUnknownUser
}

// AllRoutes returns every route record in catalog order.
func (s *TicketService) AllRoutes() []model.Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	routes := s.catalog.Routes()
	out := make([]model.Route, len(routes))
	copy(out, routes)
	return out
}

// TravelDays returns the distinct days a route runs, in first-seen order.
func (s *TicketService) TravelDays(routeID int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var days []string
	seen := map[string]bool{}
	for _, e := range s.catalog.Timetable() {
		if e.RouteID == routeID && !seen[e.Day] {
			seen[e.Day] = true
			days = append(days, e.Day)
		}
	}
	return days
}

// RunTimes returns every time a route runs on day, in catalog order.
func (s *TicketService) RunTimes(routeID int, day string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var times []string
	for _, e := range s.catalog.Timetable() {
		if e.RouteID == routeID && e.Day == day {
			times = append(times, e.Time)
		}
	}
	return times
}

// Costs returns the cost of every route record with the ID.
func (s *TicketService) Costs(routeID int) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var costs []float64
	for _, r := range s.catalog.Routes() {
		if r.ID == routeID {
			costs = append(costs, r.Cost)
		}
	}
	return costs
}

// BookingOutcome classifies a booking request.
type BookingOutcome int

const (
	BookingBooked BookingOutcome = iota
	BookingSaverNeedsTime // standard booking attempted on a saver route
	BookingNotSaver       // saver booking attempted on a standard route
	BookingUnavailable    // no matching timetable entry
)

// Booking reports what a booking request did.  Attempts holds one entry
// per ledger append in order: nil when the record was stored, otherwise
// the append error.
type Booking struct {
	Outcome  BookingOutcome
	Matches  int
	Attempts []error
}

// Booked returns how many records were stored.
func (b Booking) Booked() int {
	n := 0
	for _, err := range b.Attempts {
		if err == nil {
			n++
		}
	}
	return n
}

// isSaverLocked reports whether the last route record with the ID is a
// saver ticket.  When no record has the ID it returns unknown, letting
// each booking kind pick its own refusal.  Callers hold s.mu.
func (s *TicketService) isSaverLocked(routeID int, unknown bool) bool {
	saver, found := unknown, false
	for _, r := range s.catalog.Routes() {
		if r.ID == routeID {
			saver, found = r.IsSaver(), true
		}
	}
	if !found {
		s.log.Debug("booking for unknown route", "route", routeID)
	}
	return saver
}

// BookStandard books a day-only ticket.  Only the first timetable entry
// matching (routeID, day) is recorded; later matches are counted but
// never booked, so one request books at most one record.
func (s *TicketService) BookStandard(ctx context.Context, userID, routeID int, day string) Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An unknown route is refused as a saver route.
	if s.isSaverLocked(routeID, true) {
		return Booking{Outcome: BookingSaverNeedsTime}
	}

	var b Booking
	for _, e := range s.catalog.Timetable() {
		if e.RouteID != routeID || e.Day != day {
			continue
		}
		b.Matches++
		if b.Matches > 1 {
			continue
		}
		err := s.ledger.Append(ctx, model.BookingRecord{RouteID: routeID, UserID: userID, Day: day})
		if err != nil {
			s.log.Error("booking append failed", "route", routeID, "user", userID, "error", err)
		}
		b.Attempts = append(b.Attempts, err)
	}
	if b.Matches == 0 {
		b.Outcome = BookingUnavailable
	}
	return b
}

// BookSaver books a timed saver ticket.  Unlike BookStandard, one record
// is appended for every timetable entry matching (routeID, day, time).
func (s *TicketService) BookSaver(ctx context.Context, userID, routeID int, day, slot string) Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An unknown route is refused as a standard route.
	if !s.isSaverLocked(routeID, false) {
		return Booking{Outcome: BookingNotSaver}
	}

	var b Booking
	for _, e := range s.catalog.Timetable() {
		if e.RouteID != routeID || e.Day != day || e.Time != slot {
			continue
		}
		b.Matches++
		err := s.ledger.Append(ctx, model.BookingRecord{RouteID: routeID, UserID: userID, Day: day, Time: slot})
		if err != nil {
			s.log.Error("saver booking append failed", "route", routeID, "user", userID, "error", err)
		}
		b.Attempts = append(b.Attempts, err)
	}
	if b.Matches == 0 {
		b.Outcome = BookingUnavailable
	}
	return b
}

// OnShutdown registers fn to run once when shutdown is first requested.
func (s *TicketService) OnShutdown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onShutdown = append(s.onShutdown, fn)
}

// RequestShutdown sets the server-wide shutdown flag and runs the
// registered hooks outside the lock.  Repeated requests return
// ErrShuttingDown and run nothing.
func (s *TicketService) RequestShutdown() error {
	s.mu.Lock()
	if s.shuttingDown {
		s.mu.Unlock()
		return ErrShuttingDown
	}
	s.shuttingDown = true
	hooks := s.onShutdown
	s.mu.Unlock()

	s.log.Info("shutdown requested")
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// ShuttingDown reports whether shutdown has been requested.
func (s *TicketService) ShuttingDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuttingDown
}
