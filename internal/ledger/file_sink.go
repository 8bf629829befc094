package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iliyamo/bordrail/internal/model"
)

// FileSink appends one line per booking to a text file.  The file is
// opened per append and synced before Append returns.
type FileSink struct {
	Path string
}

// NewFileSink makes sure the parent directory of path exists.
func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir ledger dir: %w", err)
	}
	return &FileSink{Path: path}, nil
}

func (s *FileSink) Append(ctx context.Context, rec model.BookingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	if _, err := f.WriteString(rec.Line() + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("write ledger file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync ledger file: %w", err)
	}
	return f.Close()
}
