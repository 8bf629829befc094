// Package catalog holds the users, routes and timetable the server answers
// queries from.  A Store is filled once, before the server starts
// accepting connections, and is never modified afterwards.
package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"

	"github.com/iliyamo/bordrail/internal/model"
)

// Provider loads the three catalog collections.  Implementations exist for
// comma separated files (FileProvider) and MySQL (repository.CatalogProvider).
type Provider interface {
	LoadUsers(ctx context.Context) ([]model.User, error)
	LoadRoutes(ctx context.Context) ([]model.Route, error)
	LoadTimetable(ctx context.Context) ([]model.TimetableEntry, error)
}

// Store is the immutable in-memory catalog.  Slices returned by its
// accessors are shared and must not be modified by callers.
type Store struct {
	users     []model.User
	routes    []model.Route
	timetable []model.TimetableEntry
}

// New builds a Store from already loaded collections.
func New(users []model.User, routes []model.Route, timetable []model.TimetableEntry) *Store {
	return &Store{users: users, routes: routes, timetable: timetable}
}

// Load asks the provider for every collection.  A collection that fails to
// load is logged and left empty; the server keeps running with the rest.
func Load(ctx context.Context, p Provider, logger *slog.Logger) *Store {
	users, err := p.LoadUsers(ctx)
	if err != nil {
		logger.Error("could not load users", "error", err)
		users = nil
	}
	logger.Info("user records read", "count", len(users))
	for _, u := range users {
		logger.Debug("user", "record", u.String())
	}

	routes, err := p.LoadRoutes(ctx)
	if err != nil {
		logger.Error("could not load routes", "error", err)
		routes = nil
	}
	logger.Info("route records read", "count", len(routes))
	for _, r := range routes {
		logger.Debug("route", "record", r.String())
	}

	timetable, err := p.LoadTimetable(ctx)
	if err != nil {
		logger.Error("could not load timetable", "error", err)
		timetable = nil
	}
	logger.Info("timetable records read", "count", len(timetable))
	for _, e := range timetable {
		logger.Debug("timetable", "record", e.String())
	}

	return New(users, routes, timetable)
}

func (s *Store) Users() []model.User               { return s.users }
func (s *Store) Routes() []model.Route             { return s.routes }
func (s *Store) Timetable() []model.TimetableEntry { return s.timetable }

// Fingerprint hashes the routes and timetable in load order.  Two stores
// with the same records return the same value.
func (s *Store) Fingerprint() string {
	h := fnv.New64a()
	for _, r := range s.routes {
		fmt.Fprintf(h, "r|%d|%s|%g|%s|%s\n", r.ID, r.Description, r.Cost, r.Type, r.TypeDescription)
	}
	for _, e := range s.timetable {
		fmt.Fprintf(h, "t|%d|%s|%s\n", e.RouteID, e.Day, e.Time)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
