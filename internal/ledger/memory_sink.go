package ledger

import (
	"context"
	"sync"

	"github.com/iliyamo/bordrail/internal/model"
)

// MemorySink keeps records in memory.  It is not durable and exists for
// tests of the packages built on top of the ledger.
type MemorySink struct {
	mu      sync.Mutex
	records []model.BookingRecord
	Err     error // returned by Append when set
}

func (s *MemorySink) Append(ctx context.Context, rec model.BookingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of the stored records.
func (s *MemorySink) Records() []model.BookingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.BookingRecord, len(s.records))
	copy(out, s.records)
	return out
}
