package model

import (
	"fmt"
	"time"
)

// BookingRecord is one entry of the append-only booking ledger.  A
// standard booking carries only a day; a saver booking also carries the
// exact time slot.  There is no uniqueness constraint: the same request
// may legitimately produce several records.
//
// Fields:
//  RouteID    – booked route.
//  UserID     – authenticated user of the session that booked.
//  Day        – travel day token.
//  Time       – travel time token, empty for standard bookings.
//  RecordedAt – set by the ledger when the record is appended.
type BookingRecord struct {
	RouteID    int
	UserID     int
	Day        string
	Time       string
	RecordedAt time.Time
}

// Saver reports whether the record is a saver (timed) booking.
func (b BookingRecord) Saver() bool { return b.Time != "" }

// Line renders the record in the comma separated ledger file format.
func (b BookingRecord) Line() string {
	if b.Saver() {
		return fmt.Sprintf("%d, %d, %s, %s", b.RouteID, b.UserID, b.Day, b.Time)
	}
	return fmt.Sprintf("%d, %d, %s", b.RouteID, b.UserID, b.Day)
}
