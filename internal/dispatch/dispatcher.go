// Package dispatch interprets request frames against a session's login
// state and the ticket service.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/iliyamo/bordrail/internal/model"
	"github.com/iliyamo/bordrail/internal/protocol"
	"github.com/iliyamo/bordrail/internal/service"
)

// Tickets is the part of service.TicketService the dispatcher uses.
type Tickets interface {
	Authenticate(userID int, password string) (model.User, service.LoginOutcome)
	AllRoutes() []model.Route
	TravelDays(routeID int) []string
	RunTimes(routeID int, day string) []string
	Costs(routeID int) []float64
	BookStandard(ctx context.Context, userID, routeID int, day string) service.Booking
	BookSaver(ctx context.Context, userID, routeID int, day, slot string) service.Booking
	RequestShutdown() error
}

// Auth is the login state of one session.  It is owned by the session
// goroutine and only changed by the dispatcher.
type Auth struct {
	LoggedIn bool
	UserID   int
}

// Response texts.
const (
	msgNotLoggedIn     = "You need to be logged in."
	msgRouteNotNumber  = "Route ID should be a number"
	msgUserNotNumber   = "User ID should be a number"
	msgNoTimetable     = "route has no timetable information"
	msgNoRoute         = "route ID does not exist"
	msgBooked          = "Ticket has been booked."
	msgBookingError    = "Error occurred trying to save the booking, please try again."
	msgSaverNeedsTime  = "This is a saver ticket and must have a time to book."
	msgNotSaver        = "This is not a saver ticket and cant be booked with this action."
	msgUnavailable     = "This route is not available on that day"
	msgIncorrectPass   = "Incorrect Password"
	msgIncorrectUserID = "Incorrect user ID"
)

type handlerFunc func(ctx context.Context, auth *Auth, f protocol.Frame) Result

// Dispatcher maps command tokens to handlers.
type Dispatcher struct {
	tickets  Tickets
	log      *slog.Logger
	handlers map[string]handlerFunc
}

func New(tickets Tickets, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{tickets: tickets, log: logger, handlers: map[string]handlerFunc{}}
	d.handle(protocol.CmdLogin, d.login)
	d.handle(protocol.CmdLogout, d.logout)
	d.handle(protocol.CmdAllTk, d.allTickets)
	d.handle(protocol.CmdTravel, d.travel)
	d.handle(protocol.CmdRun, d.run)
	d.handle(protocol.CmdCost, d.cost)
	d.handle(protocol.CmdBook, d.requireLogin(d.book))
	d.handle(protocol.CmdBookSaver, d.requireLogin(d.bookSaver))
	d.handle(protocol.CmdTerm, d.term)
	d.handle(protocol.CmdDown, d.requireLogin(d.down))
	return d
}

func (d *Dispatcher) handle(cmd string, h handlerFunc) {
	if _, exists := d.handlers[cmd]; exists {
		panic(fmt.Sprintf("dispatch: duplicate handler for command %q", cmd))
	}
	d.handlers[cmd] = h
}

// Dispatch executes one frame.  It never panics on client input: bad
// fields become ValidationError results and unknown commands become
// Unrecognized.
func (d *Dispatcher) Dispatch(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	h, ok := d.handlers[f.Command]
	if !ok {
		d.log.Error("unrecognized command", "command", f.Command)
		return message(Unrecognized, "Unrecognized command")
	}
	return h(ctx, auth, f)
}

func (d *Dispatcher) requireLogin(h handlerFunc) handlerFunc {
	return func(ctx context.Context, auth *Auth, f protocol.Frame) Result {
		if !auth.LoggedIn {
			return message(Unauthorized, msgNotLoggedIn)
		}
		return h(ctx, auth, f)
	}
}

// fields returns the first n fields or a ValidationError result.
func (d *Dispatcher) fields(f protocol.Frame, n int) ([]string, *Result) {
	if len(f.Fields) < n {
		d.log.Warn("client data missing fields", "command", f.Command, "want", n, "got", len(f.Fields))
		r := message(ValidationError, "Missing fields for "+f.Command)
		return nil, &r
	}
	return f.Fields[:n], nil
}

// routeID parses a route ID field or returns a ValidationError result.
func routeID(s string) (int, *Result) {
	id, err := strconv.Atoi(s)
	if err != nil {
		r := message(ValidationError, msgRouteNotNumber)
		return 0, &r
	}
	return id, nil
}

func (d *Dispatcher) login(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	if len(f.Fields) < 2 {
		d.log.Warn("missing login details from client")
		return message(ValidationError, "Missing login details")
	}
	id, err := strconv.Atoi(f.Fields[0])
	if err != nil {
		return message(ValidationError, msgUserNotNumber)
	}
	d.log.Info("login attempt", "user", id)
	u, outcome := d.tickets.Authenticate(id, f.Fields[1])
	switch outcome {
	case service.LoginOK:
		auth.LoggedIn = true
		auth.UserID = u.ID
		return message(Success, "Logged in as: "+u.Name)
	case service.LoginWrongPassword:
		return message(ValidationError, msgIncorrectPass)
	default:
		return message(NotFound, msgIncorrectUserID)
	}
}

func (d *Dispatcher) logout(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	if !auth.LoggedIn {
		return message(Success, "Not currently logged in")
	}
	*auth = Auth{}
	return message(Success, "You have been logged out")
}

func (d *Dispatcher) allTickets(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	routes := d.tickets.AllRoutes()
	lines := make([]string, len(routes))
	for i, r := range routes {
		lines[i] = r.String()
	}
	return Result{Kind: Success, Header: "All Tickets", Lines: lines}
}

func (d *Dispatcher) travel(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	fs, bad := d.fields(f, 1)
	if bad != nil {
		return *bad
	}
	id, bad := routeID(fs[0])
	if bad != nil {
		return *bad
	}
	res := Result{Kind: Success, Header: fmt.Sprintf("Day Information for: %d", id)}
	res.Lines = d.tickets.TravelDays(id)
	if len(res.Lines) == 0 {
		res.Kind = NotFound
		res.Lines = []string{msgNoTimetable}
	}
	return res
}

func (d *Dispatcher) run(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	fs, bad := d.fields(f, 2)
	if bad != nil {
		return *bad
	}
	id, bad := routeID(fs[0])
	if bad != nil {
		return *bad
	}
	day := fs[1]
	res := Result{Kind: Success, Header: fmt.Sprintf("Time Information for: %d on: %s", id, day)}
	res.Lines = d.tickets.RunTimes(id, day)
	if len(res.Lines) == 0 {
		res.Kind = NotFound
		res.Lines = []string{msgNoTimetable}
	}
	return res
}

func (d *Dispatcher) cost(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	fs, bad := d.fields(f, 1)
	if bad != nil {
		return *bad
	}
	id, bad := routeID(fs[0])
	if bad != nil {
		return *bad
	}
	res := Result{Kind: Success, Header: fmt.Sprintf("Cost Information for: %d", id)}
	for _, c := range d.tickets.Costs(id) {
		res.Lines = append(res.Lines, fmt.Sprintf("GBP: %.2f", c))
	}
	if len(res.Lines) == 0 {
		res.Kind = NotFound
		res.Lines = []string{msgNoRoute}
	}
	return res
}

func (d *Dispatcher) book(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	fs, bad := d.fields(f, 2)
	if bad != nil {
		return *bad
	}
	id, bad := routeID(fs[0])
	if bad != nil {
		return *bad
	}
	return bookingResult(d.tickets.BookStandard(ctx, auth.UserID, id, fs[1]))
}

func (d *Dispatcher) bookSaver(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	fs, bad := d.fields(f, 3)
	if bad != nil {
		return *bad
	}
	id, bad := routeID(fs[0])
	if bad != nil {
		return *bad
	}
	return bookingResult(d.tickets.BookSaver(ctx, auth.UserID, id, fs[1], fs[2]))
}

func bookingResult(b service.Booking) Result {
	switch b.Outcome {
	case service.BookingSaverNeedsTime:
		return message(ValidationError, msgSaverNeedsTime)
	case service.BookingNotSaver:
		return message(ValidationError, msgNotSaver)
	case service.BookingUnavailable:
		return message(NotFound, msgUnavailable)
	}
	res := Result{Kind: Success}
	for _, err := range b.Attempts {
		if err != nil {
			res.Kind = Failure
			res.Lines = append(res.Lines, msgBookingError)
			continue
		}
		res.Lines = append(res.Lines, msgBooked)
	}
	return res
}

func (d *Dispatcher) term(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	*auth = Auth{}
	return Result{Kind: Success, Lines: []string{"Goodbye."}, Terminate: true}
}

func (d *Dispatcher) down(ctx context.Context, auth *Auth, f protocol.Frame) Result {
	if err := d.tickets.RequestShutdown(); err != nil {
		d.log.Info("repeated shutdown request", "user", auth.UserID)
	} else {
		d.log.Warn("server going down", "requested_by", auth.UserID)
	}
	*auth = Auth{}
	return message(Success, "Server going Down.")
}
