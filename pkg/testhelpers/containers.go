// Package testhelpers starts a throwaway PostgreSQL for integration tests.
package testhelpers

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/anass1209/NL2SQL/pkg/models"
)

//go:embed fixtures/*.sql
var fixtureFS embed.FS

const (
	testImage    = "postgres:16-alpine"
	testUser     = "nl2sql"
	testPassword = "test_password"
	testDatabase = "store"
)

// TestDB is a shared PostgreSQL container loaded with the sample store fixture
// (customers, products, orders).
type TestDB struct {
	Container testcontainers.Container
	Config    models.DBConfig
	ConnStr   string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns the shared container, starting it on first use.
// Skips the test under -short.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDatabase,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		testUser, testPassword, host, port.Port(), testDatabase)

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open sql connection: %w", err)
	}
	defer db.Close()

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("database never became reachable: %w", err)
	}

	if err := ApplyFixtures(db, zap.NewNop()); err != nil {
		return nil, err
	}

	return &TestDB{
		Container: container,
		ConnStr:   connStr,
		Config: models.DBConfig{
			Host:     host,
			Port:     port.Int(),
			Name:     testDatabase,
			User:     testUser,
			Password: testPassword,
			SSLMode:  "disable",
		},
	}, nil
}

// ApplyFixtures loads the embedded sample store schema and data.
// Already-applied fixtures are a no-op.
func ApplyFixtures(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(fixtureFS, "fixtures")
	if err != nil {
		return fmt.Errorf("failed to open fixture source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close fixture source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close fixture database", zap.Error(dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("Fixtures already applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to apply fixtures: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("Applied fixtures", zap.Uint("version", version))
	return nil
}
