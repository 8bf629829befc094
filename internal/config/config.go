package config // package config loads application configuration from environment variables

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Nothing is required: a server started with only
// a port serves the catalog files from the working directory and appends
// bookings to bookings.txt.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // TCP port of the booking protocol
	AdminAddr      string        // admin HTTP listen address, "off" disables it
	LogLevel       string        // debug, info, warn or error
	DataDir        string        // directory holding users.txt, routes.txt, timetable.txt
	CatalogBackend string        // "file" or "mysql"
	LedgerBackend  string        // "file", "mysql" or "redis"
	LedgerFile     string        // path of the append-only booking file
	LedgerRedisKey string        // Redis list key used by the redis ledger
	DB             DBConfig      // MySQL connection settings
	JWTSecret      string        // secret used to sign operator tokens
	AccessTTLMin   int           // operator token time‑to‑live in minutes
	OperatorIDs    []int         // user IDs granted the OPERATOR role on the admin API
	ReadSize       int           // bytes requested per socket read
	MaxFrameSize   int           // largest frame accepted before the session is dropped
	IdleTimeout    time.Duration // per-read idle timeout, 0 disables it
	WriteTimeout   time.Duration // per-response write timeout, 0 disables it
}

// DBConfig groups the MySQL settings shared by the catalog provider and
// the ledger sink.
type DBConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// Load reads configuration values from environment variables and returns a
// Config.  Missing or malformed values fall back to defaults.
func Load() Config {
	return Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           getenv("APP_PORT", "5000"),
		AdminAddr:      getenv("ADMIN_ADDR", ":8081"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		DataDir:        getenv("DATA_DIR", "."),
		CatalogBackend: strings.ToLower(getenv("CATALOG_BACKEND", "file")),
		LedgerBackend:  strings.ToLower(getenv("LEDGER_BACKEND", "file")),
		LedgerFile:     getenv("LEDGER_FILE", "bookings.txt"),
		LedgerRedisKey: getenv("LEDGER_REDIS_KEY", "bordrail:bookings"),
		DB: DBConfig{
			User: getenv("DB_USER", "root"),
			Pass: os.Getenv("DB_PASS"),
			Host: getenv("DB_HOST", "localhost"),
			Port: getenv("DB_PORT", "3306"),
			Name: getenv("DB_NAME", "bordrail"),
		},
		JWTSecret:    getenv("JWT_SECRET", "change-me"),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 15),
		OperatorIDs:  parseIDs(os.Getenv("OPERATOR_USER_IDS")),
		ReadSize:     envInt("FRAME_READ_SIZE", 80),
		MaxFrameSize: envInt("FRAME_MAX_SIZE", 4096),
		IdleTimeout:  envDur("SESSION_IDLE_TIMEOUT", 0),
		WriteTimeout: envDur("SESSION_WRITE_TIMEOUT", 10*time.Second),
	}
}

// LoadEnvFile loads variables from a dotenv file without overriding
// variables already present in the environment.  A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// IsOperator reports whether the user ID is listed in OPERATOR_USER_IDS.
func (c Config) IsOperator(userID int) bool {
	for _, id := range c.OperatorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseIDs(s string) []int {
	var ids []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}
