package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/iliyamo/bordrail/internal/model"
)

// File names read by FileProvider inside its directory.
const (
	UsersFile     = "users.txt"
	RoutesFile    = "routes.txt"
	TimetableFile = "timetable.txt"
)

// FileProvider reads the catalog from comma separated text files:
//
//	users.txt      id,name,address,password
//	routes.txt     id,description,cost,type description,type
//	timetable.txt  route id,day,time
//
// Fields are trimmed.  Blank lines are ignored and malformed lines are
// logged and skipped.
type FileProvider struct {
	Dir string
	Log *slog.Logger
}

// NewFileProvider returns a provider reading from dir.
func NewFileProvider(dir string, logger *slog.Logger) *FileProvider {
	return &FileProvider{Dir: dir, Log: logger}
}

func (p *FileProvider) LoadUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := p.readRecords(ctx, UsersFile, 4, func(f []string) error {
		id, err := strconv.Atoi(f[0])
		if err != nil {
			return fmt.Errorf("user id %q: %w", f[0], err)
		}
		users = append(users, model.User{ID: id, Name: f[1], Address: f[2], Password: f[3]})
		return nil
	})
	return users, err
}

func (p *FileProvider) LoadRoutes(ctx context.Context) ([]model.Route, error) {
	var routes []model.Route
	err := p.readRecords(ctx, RoutesFile, 5, func(f []string) error {
		id, err := strconv.Atoi(f[0])
		if err != nil {
			return fmt.Errorf("route id %q: %w", f[0], err)
		}
		cost, err := strconv.ParseFloat(f[2], 64)
		if err != nil {
			return fmt.Errorf("route cost %q: %w", f[2], err)
		}
		routes = append(routes, model.Route{
			ID:              id,
			Description:     f[1],
			Cost:            cost,
			TypeDescription: f[3],
			Type:            f[4],
		})
		return nil
	})
	return routes, err
}

func (p *FileProvider) LoadTimetable(ctx context.Context) ([]model.TimetableEntry, error) {
	var entries []model.TimetableEntry
	err := p.readRecords(ctx, TimetableFile, 3, func(f []string) error {
		id, err := strconv.Atoi(f[0])
		if err != nil {
			return fmt.Errorf("timetable route id %q: %w", f[0], err)
		}
		entries = append(entries, model.TimetableEntry{RouteID: id, Day: f[1], Time: f[2]})
		return nil
	})
	return entries, err
}

// readRecords opens name and calls fn for every line holding at least
// want fields.  Only an unreadable file is returned as an error.
func (p *FileProvider) readRecords(ctx context.Context, name string, want int, fn func([]string) error) error {
	path := filepath.Join(p.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true
	r.ReuseRecord = true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				p.logger().Warn("skipping malformed catalog line", "file", name, "line", perr.Line, "error", err)
				continue
			}
			return fmt.Errorf("read %s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		if len(rec) < want {
			p.logger().Warn("skipping short catalog line", "file", name, "line", line, "fields", len(rec))
			continue
		}
		fields := make([]string, want)
		for i := range fields {
			fields[i] = strings.TrimSpace(rec[i])
		}
		if err := fn(fields); err != nil {
			p.logger().Warn("skipping malformed catalog line", "file", name, "line", line, "error", err)
		}
	}
}

func (p *FileProvider) logger() *slog.Logger {
	if p.Log == nil {
		return slog.Default()
	}
	return p.Log
}
