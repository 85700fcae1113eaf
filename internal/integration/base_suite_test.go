package integration_test

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/seatwise/booking-engine/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	dbName         = "booking_engine"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"

	migrationsPath = "file://../../migrations"
)

type BaseSuite struct {
	suite.Suite

	// seatStore selects the backing the suite boots the app with.
	seatStore string

	app            *app.Application
	db             *pgxpool.Pool
	cache          redis.UniversalClient
	dbContainer    *PostgresContainer
	cacheContainer *RedisContainer
}

func (s *BaseSuite) SetupSuite() {
	ctx := context.Background()

	postgresContainer, err := getDbContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	redisContainer, err := getCacheContainer(ctx)
	if err != nil {
		log.Printf("failed to start container: %s", err)
		return
	}

	s.dbContainer = postgresContainer
	s.cacheContainer = redisContainer

	cfg := app.Config{
		Port:           3000,
		Env:            "test",
		SeatStore:      s.seatStore,
		MigrationsPath: migrationsPath,
		DB: app.DBConfig{
			DSN:          postgresContainer.ConnectionString,
			MaxOpenConns: 25,
			MaxIdleTime:  2 * time.Minute,
		},
		Redis: app.RedisConfig{
			URL:          redisContainer.ConnectionString,
			MaxOpenConns: 10,
			MaxIdleConns: 10,
			MaxIdleTime:  2 * time.Minute,
		},
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	application, err := app.New(cfg, logger)
	if err != nil {
		log.Printf("cannot initialize app: %s", err)
		return
	}

	s.app = application

	s.db, err = pgxpool.New(ctx, postgresContainer.ConnectionString)
	if err != nil {
		log.Printf("cannot open seed pool: %s", err)
		return
	}

	s.cache = redis.NewClient(&redis.Options{Addr: redisContainer.ConnectionString})
}

func (s *BaseSuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}

	if s.cache != nil {
		s.cache.Close()
	}

	if s.app != nil {
		s.app.Close()
	}

	if s.dbContainer != nil {
		if err := testcontainers.TerminateContainer(s.dbContainer.Container.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}

	if s.cacheContainer != nil {
		if err := testcontainers.TerminateContainer(s.cacheContainer.Container); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}
}

type Scenario struct {
	Name             string
	Method           string
	URL              string
	Body             io.Reader
	ExpectedStatus   int
	ExpectedResponse string
	BeforeTestFunc   func(t testing.TB, s *BaseSuite)
	AfterTestFunc    func(t testing.TB, s *BaseSuite, res *http.Response)
}

func (sc Scenario) Run(t *testing.T, s *BaseSuite) {
	t.Run(sc.Name, func(t *testing.T) {
		req, err := prepareRequest(sc.Method, sc.URL, sc.Body)
		require.NoError(t, err)

		if sc.BeforeTestFunc != nil {
			sc.BeforeTestFunc(t, s)
		}

		rec := httptest.NewRecorder()
		s.app.Routes().ServeHTTP(rec, req)

		res := rec.Result()
		defer res.Body.Close()

		assert.Equal(t, sc.ExpectedStatus, res.StatusCode)

		if sc.ExpectedResponse != "" {
			compareResponse(t, res.Body, sc.ExpectedResponse)
		}

		if sc.AfterTestFunc != nil {
			sc.AfterTestFunc(t, s, res)
		}
	})
}
