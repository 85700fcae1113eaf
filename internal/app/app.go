// Package app wires the booking core to its backings and exposes it over
// HTTP.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxstd "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"github.com/seatwise/booking-engine/internal/booking"
	"github.com/seatwise/booking-engine/internal/domain"
	"github.com/seatwise/booking-engine/internal/repository"
	appvalidator "github.com/seatwise/booking-engine/internal/validator"
	"github.com/seatwise/booking-engine/internal/vcs"
)

var (
	version = vcs.Version()
)

const (
	SeatStorePostgres = "postgres"
	SeatStoreRedis    = "redis"
)

type Application struct {
	config      Config
	logger      *slog.Logger
	db          *pgxpool.Pool
	redis       redis.UniversalClient
	validator   *validator.Validate
	coordinator *booking.Coordinator
}

type Config struct {
	Port             int
	Env              string
	SeatStore        string
	OtelCollectorUrl string
	MigrationsPath   string
	DB               DBConfig
	Redis            RedisConfig
}

type DBConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleTime  time.Duration
}

type RedisConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

func Run() error {
	var cfg Config

	flag.IntVar(&cfg.Port, "port", 3000, "server port")
	flag.StringVar(&cfg.Env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.DB.DSN, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.DB.MaxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.DB.MaxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.Redis.URL, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.SeatStore, "seat-store", SeatStorePostgres, "Seat state backing (postgres|redis)")
	flag.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")
	flag.StringVar(&cfg.MigrationsPath, "migrations-path", "", "Run database migrations from this path on startup")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	app, err := New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		return err
	}
	defer app.Close()

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.Serve()
}

// New builds an Application from the given config: connection pools are
// opened and pinged, migrations run when a path is configured, and the
// coordinator is wired to the selected seat-state backing.
func New(cfg Config, logger *slog.Logger) (*Application, error) {
	if cfg.SeatStore != SeatStorePostgres && cfg.SeatStore != SeatStoreRedis {
		return nil, fmt.Errorf("unknown seat store backing: %q", cfg.SeatStore)
	}

	db, err := newDatabasePool(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MigrationsPath != "" {
		err = runMigrations(cfg.DB.DSN, cfg.MigrationsPath)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	var redisClient redis.UniversalClient

	if cfg.Redis.URL != "" {
		redisClient, err = newRedisClient(cfg)
		if err != nil {
			db.Close()
			return nil, err
		}
	} else if cfg.SeatStore == SeatStoreRedis {
		db.Close()
		return nil, errors.New("seat-store=redis requires a redis URL")
	}

	showRepo := repository.NewPostgresShowRepository(db)
	ledger := repository.NewPostgresBookingLedger(db)

	var seatStore domain.SeatStateStore
	switch cfg.SeatStore {
	case SeatStoreRedis:
		seatStore = repository.NewRedisSeatStore(redisClient)
	default:
		seatStore = repository.NewPostgresSeatStore(db)
	}

	coordinator := booking.NewCoordinator(showRepo, seatStore, ledger, booking.NewFlatPricing(), logger)

	app := &Application{
		config:      cfg,
		logger:      logger,
		db:          db,
		redis:       redisClient,
		validator:   appvalidator.NewValidator(),
		coordinator: coordinator,
	}

	return app, nil
}

func (app *Application) Close() {
	if app.db != nil {
		app.db.Close()
	}

	if app.redis != nil {
		app.redis.Close()
	}
}

func newRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.DB.MaxIdleTime
	config.MaxConns = int32(cfg.DB.MaxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func runMigrations(dsn string, migrationsPath string) error {
	config, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	db := pgxstd.OpenDB(*config)
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("pgx migration driver error: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "pgx", driver)
	if err != nil {
		return fmt.Errorf("migrate.New error: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

func (app *Application) Serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "seat_store", app.config.SeatStore)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundHandler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(otelchi.Middleware("booking-engine", otelchi.WithChiRoutes(r)))
	r.Use(app.requestLogger)
	r.Use(app.recoverPanic)

	r.Get("/health", app.GetHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/shows/{showID}", func(r chi.Router) {
			r.Get("/seats", app.GetShowSeatsHandler)
			r.Get("/bookings", app.GetShowBookingsHandler)
			r.Post("/bookings", app.CreateBookingHandler)
		})

		r.Route("/bookings/{bookingID}", func(r chi.Router) {
			r.Get("/", app.GetBookingHandler)
			r.Delete("/", app.CancelBookingHandler)
		})

		r.Get("/users/{userID}/bookings", app.GetUserBookingsHandler)
	})

	return r
}
