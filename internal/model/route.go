package model

import "fmt"

// SaverType is the route type tag that marks a saver ticket.  Saver
// tickets can only be booked for an exact timetable slot.
const SaverType = "saver"

// Route describes a ticket that can be bought for a route.  Several
// records may share the same ID (for instance a standard and a saver
// variant), so lookups must scan rather than index by ID.
//
// Fields:
//  ID              – route identifier referenced by timetable entries.
//  Description     – human readable route description.
//  Cost            – ticket price in pounds, rendered with two decimals.
//  Type            – category tag ("saver" or a standard tag).
//  TypeDescription – human readable description of the category.
type Route struct {
	ID              int     // routes.id
	Description     string  // routes.description
	Cost            float64 // routes.cost (DECIMAL(10,2))
	Type            string  // routes.type
	TypeDescription string  // routes.type_description
}

// IsSaver reports whether the route is a saver ticket.
func (r Route) IsSaver() bool { return r.Type == SaverType }

// String renders the route as one ALLTK response line.
func (r Route) String() string {
	return fmt.Sprintf("%d %s %s (%s)", r.ID, r.Description, r.TypeDescription, r.Type)
}

// TimetableEntry records that a route runs on a day at a time.  Day and
// Time are opaque tokens compared by exact string equality.
type TimetableEntry struct {
	RouteID int    // timetable.route_id (not validated against routes)
	Day     string // timetable.day
	Time    string // timetable.time
}

func (t TimetableEntry) String() string {
	return fmt.Sprintf("%d %s %s", t.RouteID, t.Day, t.Time)
}
