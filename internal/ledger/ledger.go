// Package ledger records completed bookings.  Every append goes through a
// single Ledger so records reach the sink in the order bookings complete.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/bordrail/internal/model"
)

// Sink durably stores booking records.  Append must not return before the
// record is stored, and records must be kept in call order.
type Sink interface {
	Append(ctx context.Context, rec model.BookingRecord) error
}

// Observer is told about every record after it has been stored.  It is
// called with the ledger lock held and must not block.
type Observer interface {
	BookingRecorded(rec model.BookingRecord)
}

// Ledger serializes appends to a Sink and notifies observers.
type Ledger struct {
	mu        sync.Mutex
	sink      Sink
	observers []Observer
	now       func() time.Time
	appended  int64
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithObserver registers an observer notified after each append.
func WithObserver(o Observer) Option {
	return func(l *Ledger) { l.observers = append(l.observers, o) }
}

// WithClock overrides the time source used for RecordedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func New(sink Sink, opts ...Option) *Ledger {
	l := &Ledger{sink: sink, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append stamps the record and stores it.  A sink failure is returned
// unchanged apart from wrapping; nothing is retried.
func (l *Ledger) Append(ctx context.Context, rec model.BookingRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec.RecordedAt = l.now().UTC()
	if err := l.sink.Append(ctx, rec); err != nil {
		return fmt.Errorf("append booking: %w", err)
	}
	l.appended++
	for _, o := range l.observers {
		o.BookingRecorded(rec)
	}
	return nil
}

// Appended returns how many records were stored since the ledger was created.
func (l *Ledger) Appended() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appended
}
