package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/bordrail/internal/model"
)

// RouteRepo reads tickets from the 'routes' table.
type RouteRepo struct{ DB *sql.DB }

func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{DB: db} }

// List returns every route record in load order, duplicates included.
func (r *RouteRepo) List(ctx context.Context) ([]model.Route, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,description,cost,type,type_description FROM routes ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()
	var out []model.Route
	for rows.Next() {
		var rt model.Route
		if err := rows.Scan(&rt.ID, &rt.Description, &rt.Cost, &rt.Type, &rt.TypeDescription); err != nil {
			return nil, fmt.Errorf("scan routes: %w", err)
		}
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return out, nil
}

// TimetableRepo reads the 'timetable' table.
type TimetableRepo struct{ DB *sql.DB }

func NewTimetableRepo(db *sql.DB) *TimetableRepo { return &TimetableRepo{DB: db} }

// List returns every timetable entry in load order.
func (r *TimetableRepo) List(ctx context.Context) ([]model.TimetableEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT route_id,day,time FROM timetable ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query timetable: %w", err)
	}
	defer rows.Close()
	var out []model.TimetableEntry
	for rows.Next() {
		var e model.TimetableEntry
		if err := rows.Scan(&e.RouteID, &e.Day, &e.Time); err != nil {
			return nil, fmt.Errorf("scan timetable: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read timetable: %w", err)
	}
	return out, nil
}

// CatalogProvider serves the catalog from MySQL.  It satisfies
// catalog.Provider.
type CatalogProvider struct {
	db        *sql.DB
	Users     *UserRepo
	Routes    *RouteRepo
	Timetable *TimetableRepo
}

func NewCatalogProvider(db *sql.DB) *CatalogProvider {
	return &CatalogProvider{
		db:        db,
		Users:     NewUserRepo(db),
		Routes:    NewRouteRepo(db),
		Timetable: NewTimetableRepo(db),
	}
}

func (p *CatalogProvider) LoadUsers(ctx context.Context) ([]model.User, error) {
	if p.db == nil {
		return nil, ErrNoCatalogDB
	}
	return p.Users.List(ctx)
}

func (p *CatalogProvider) LoadRoutes(ctx context.Context) ([]model.Route, error) {
	if p.db == nil {
		return nil, ErrNoCatalogDB
	}
	return p.Routes.List(ctx)
}

func (p *CatalogProvider) LoadTimetable(ctx context.Context) ([]model.TimetableEntry, error) {
	if p.db == nil {
		return nil, ErrNoCatalogDB
	}
	return p.Timetable.List(ctx)
}
