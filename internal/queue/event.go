// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/iliyamo/bordrail/internal/model"
)

// BookingRecordedEvent is published after a booking reaches the ledger.
// It carries the whole record so consumers never query the server.
type BookingRecordedEvent struct {
	RouteID    int    `json:"route_id"`
	UserID     int    `json:"user_id"`
	Day        string `json:"day"`
	Time       string `json:"time,omitempty"`
	Saver      bool   `json:"saver"`
	RecordedAt string `json:"recorded_at"`
}

// NewBookingRecordedEvent converts a ledger record into its event form.
func NewBookingRecordedEvent(rec model.BookingRecord) BookingRecordedEvent {
	return BookingRecordedEvent{
		RouteID:    rec.RouteID,
		UserID:     rec.UserID,
		Day:        rec.Day,
		Time:       rec.Time,
		Saver:      rec.Saver(),
		RecordedAt: rec.RecordedAt.UTC().Format(time.RFC3339),
	}
}
