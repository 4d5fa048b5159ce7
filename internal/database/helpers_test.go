package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

var shared struct {
	once      sync.Once
	db        *DB
	err       error
	terminate func()
}

func TestMain(m *testing.M) {
	code := m.Run()
	if shared.terminate != nil {
		shared.terminate()
	}
	os.Exit(code)
}

func setupSQLiteDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "labelmv_test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// setupPostgresDB shares one container across the package and empties the
// tables before handing it out.
func setupPostgresDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	shared.once.Do(func() {
		shared.db, shared.terminate, shared.err = startPostgres(context.Background())
	})
	if shared.err != nil {
		t.Skipf("PostgreSQL container unavailable: %v", shared.err)
	}

	if err := shared.db.GORM().Exec("TRUNCATE TABLE annotations, projects, users CASCADE").Error; err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
	return shared.db
}

func startPostgres(ctx context.Context) (*DB, func(), error) {
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("labelmv_test"),
		postgres.WithUsername("labelmv_test"),
		postgres.WithPassword("labelmv_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start container: %w", err)
	}
	terminate := func() { pgContainer.Terminate(ctx) }

	host, err := pgContainer.Host(ctx)
	if err != nil {
		terminate()
		return nil, nil, fmt.Errorf("container host: %w", err)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		terminate()
		return nil, nil, fmt.Errorf("container port: %w", err)
	}

	db, err := NewDB(Config{
		Type:     "postgres",
		Host:     host,
		Port:     port.Int(),
		User:     "labelmv_test",
		Password: "labelmv_test_password",
		Name:     "labelmv_test",
	})
	if err != nil {
		terminate()
		return nil, nil, err
	}

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations"), zap.NewNop()); err != nil {
		db.Close()
		terminate()
		return nil, nil, err
	}

	return db, func() {
		db.Close()
		terminate()
	}, nil
}

// forEachBackend runs fn against sqlite and, outside short mode, postgres.
func forEachBackend(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, setupSQLiteDB(t))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, setupPostgresDB(t))
	})
}
