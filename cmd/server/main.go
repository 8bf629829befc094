// bordrail-server serves the BordRail ticket booking protocol on a TCP
// port and, unless disabled, a small admin HTTP API next to it.
//
// Usage:
//
//	bordrail-server [flags] PORT
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/iliyamo/bordrail/internal/catalog"
	"github.com/iliyamo/bordrail/internal/config"
	"github.com/iliyamo/bordrail/internal/database"
	"github.com/iliyamo/bordrail/internal/dispatch"
	"github.com/iliyamo/bordrail/internal/handler"
	"github.com/iliyamo/bordrail/internal/ledger"
	"github.com/iliyamo/bordrail/internal/queue"
	"github.com/iliyamo/bordrail/internal/repository"
	"github.com/iliyamo/bordrail/internal/router"
	"github.com/iliyamo/bordrail/internal/server"
	"github.com/iliyamo/bordrail/internal/service"
	"github.com/iliyamo/bordrail/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile, adminAddr, dataDir, catalogBackend, ledgerBackend string

	flagSet := pflag.NewFlagSet("bordrail-server", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flagSet.StringVar(&adminAddr, "admin-addr", "", `admin HTTP listen address, "off" to disable (default $ADMIN_ADDR or :8081)`)
	flagSet.StringVar(&dataDir, "data-dir", "", "directory holding users.txt, routes.txt and timetable.txt (default $DATA_DIR or .)")
	flagSet.StringVar(&catalogBackend, "catalog", "", `catalog source: "file" or "mysql" (default $CATALOG_BACKEND or file)`)
	flagSet.StringVar(&ledgerBackend, "ledger", "", `booking ledger: "file", "mysql" or "redis" (default $LEDGER_BACKEND or file)`)
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bordrail-server [flags] PORT\n\nFlags:\n%s", flagSet.FlagUsages())
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := config.LoadEnvFile(envFile); err != nil {
		return fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg := config.Load()
	if flagSet.Changed("admin-addr") {
		cfg.AdminAddr = adminAddr
	}
	if flagSet.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flagSet.Changed("catalog") {
		cfg.CatalogBackend = strings.ToLower(catalogBackend)
	}
	if flagSet.Changed("ledger") {
		cfg.LedgerBackend = strings.ToLower(ledgerBackend)
	}
	switch args := flagSet.Args(); len(args) {
	case 0:
	case 1:
		cfg.Port = args[0]
	default:
		flagSet.Usage()
		return fmt.Errorf("unexpected argument: %s", args[1])
	}
	if p, err := strconv.Atoi(cfg.Port); err != nil || p < 0 || p > 65535 {
		return fmt.Errorf("invalid port %q", cfg.Port)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.CatalogBackend == "mysql" || cfg.LedgerBackend == "mysql" {
		db = openDatabase(ctx, cfg, logger)
		if db != nil {
			defer db.Close()
		}
	}
	var rdb *redis.Client
	if cfg.LedgerBackend == "redis" || cfg.AdminAddr != "off" {
		rdb = config.NewRedisClient(ctx)
		if rdb != nil {
			defer rdb.Close()
		} else {
			logger.Info("redis not available, admin rate limit and cache disabled")
		}
	}

	store := catalog.Load(ctx, catalogProvider(cfg, db, logger), logger)

	var opts []ledger.Option
	amqpCfg := config.LoadAMQPConfig()
	if amqpCfg.Enabled {
		pub := service.NewPublisher(amqpCfg, logger)
		opts = append(opts, ledger.WithObserver(pub))
		go pub.Run(ctx)
		logger.Info("publishing booking events", "queue", amqpCfg.Queue)
	}
	if amqpCfg.ConsumerEnabled {
		go func() {
			if err := queue.StartAuditConsumer(ctx, amqpCfg, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("audit consumer stopped", "error", err)
			}
		}()
	}
	sink, err := ledgerSink(cfg, db, rdb, logger)
	if err != nil {
		return err
	}
	svc := service.NewTicketService(store, ledger.New(sink, opts...), logger)

	srv, err := server.Listen(net.JoinHostPort("", cfg.Port), session.Config{
		Dispatcher:   dispatch.New(svc, logger),
		Log:          logger,
		ReadSize:     cfg.ReadSize,
		MaxFrameSize: cfg.MaxFrameSize,
		IdleTimeout:  cfg.IdleTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return err
	}
	svc.OnShutdown(srv.StopAccepting)

	var admin *http.Server
	if cfg.AdminAddr != "off" && cfg.AdminAddr != "" {
		cacheCfg := config.LoadCacheConfig()
		cacheCfg.Version = store.Fingerprint()
		e := router.New(router.Deps{
			Cfg:       cfg,
			RateLimit: config.LoadRateLimitConfig(),
			Cache:     cacheCfg,
			Redis:     rdb,
			Auth:      handler.NewAuthHandler(cfg, svc),
			Catalog:   &handler.CatalogHandler{Tickets: svc},
			Status:    &handler.StatusHandler{Sessions: srv, State: svc},
			Admin:     &handler.AdminHandler{Shutdown: svc},
		})
		admin = &http.Server{Addr: cfg.AdminAddr, Handler: e, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("admin api listening", "addr", cfg.AdminAddr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("admin api stopped", "error", err)
			}
		}()
	}

	logger.Info("server started", "port", cfg.Port, "env", cfg.Env)
	if err := srv.Serve(ctx); err != nil {
		return err
	}

	if n := srv.SessionCount(); n > 0 {
		logger.Warn("still serving sessions", "live", n)
	}
	if ctx.Err() != nil {
		srv.Close()
	} else {
		srv.Wait()
	}

	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin api shutdown", "error", err)
		}
	}
	logger.Info("server stopped")
	return nil
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// openDatabase connects to MySQL and creates missing tables.  It returns
// nil when the database is unreachable; callers fall back.
func openDatabase(ctx context.Context, cfg config.Config, logger *slog.Logger) *sql.DB {
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		logger.Error("mysql unavailable", "error", err)
		return nil
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		logger.Error("mysql schema", "error", err)
		db.Close()
		return nil
	}
	return db
}

func catalogProvider(cfg config.Config, db *sql.DB, logger *slog.Logger) catalog.Provider {
	if cfg.CatalogBackend == "mysql" {
		return repository.NewCatalogProvider(db)
	}
	return catalog.NewFileProvider(cfg.DataDir, logger)
}

func ledgerSink(cfg config.Config, db *sql.DB, rdb *redis.Client, logger *slog.Logger) (ledger.Sink, error) {
	switch cfg.LedgerBackend {
	case "mysql":
		if db != nil {
			return repository.NewBookingRepo(db), nil
		}
		logger.Warn("mysql ledger unavailable, falling back to file", "path", cfg.LedgerFile)
	case "redis":
		if rdb != nil {
			return ledger.NewRedisSink(rdb, cfg.LedgerRedisKey), nil
		}
		logger.Warn("redis ledger unavailable, falling back to file", "path", cfg.LedgerFile)
	}
	path := cfg.LedgerFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.DataDir, path)
	}
	fs, err := ledger.NewFileSink(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	return fs, nil
}
