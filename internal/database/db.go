package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/bordrail/internal/config"
)

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	auth := cfg.User
	if cfg.Pass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.User, cfg.Pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.Host, cfg.Port, cfg.Name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings. Ledger appends are serialized, so a small pool is enough.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// schema lists the tables used by the MySQL catalog provider and ledger.
// seq columns preserve load order, which the protocol exposes.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		seq BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		id INT NOT NULL,
		name VARCHAR(255) NOT NULL,
		address VARCHAR(255) NOT NULL,
		password VARCHAR(255) NOT NULL,
		KEY idx_users_id (id)
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		seq BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		id INT NOT NULL,
		description VARCHAR(255) NOT NULL,
		cost DECIMAL(10,2) NOT NULL,
		type VARCHAR(64) NOT NULL,
		type_description VARCHAR(255) NOT NULL,
		KEY idx_routes_id (id)
	)`,
	`CREATE TABLE IF NOT EXISTS timetable (
		seq BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		route_id INT NOT NULL,
		day VARCHAR(32) NOT NULL,
		time VARCHAR(32) NOT NULL,
		KEY idx_timetable_route (route_id, day)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		seq BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		route_id INT NOT NULL,
		user_id INT NOT NULL,
		day VARCHAR(32) NOT NULL,
		time VARCHAR(32) NULL,
		recorded_at DATETIME(6) NOT NULL
	)`,
}

// EnsureSchema creates any missing table.  Existing tables are left as is.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
