package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/bordrail/internal/model"
)

// BookingRepo appends ledger records to the 'bookings' table.  It
// satisfies ledger.Sink; the seq column preserves append order.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Append inserts one booking.  Standard bookings store a NULL time.
func (r *BookingRepo) Append(ctx context.Context, rec model.BookingRecord) error {
	const q = `INSERT INTO bookings (route_id, user_id, day, time, recorded_at) VALUES (?, ?, ?, ?, ?)`
	t := sql.NullString{String: rec.Time, Valid: rec.Saver()}
	if _, err := r.db.ExecContext(ctx, q, rec.RouteID, rec.UserID, rec.Day, t, rec.RecordedAt); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

