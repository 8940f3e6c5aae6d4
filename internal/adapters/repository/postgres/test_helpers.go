package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migratedTables lists the tables emptied between test cases, children first
var migratedTables = []string{"activities", "upload_snapshots", "works"}

// migrationsURL locates db/migrations from the module root
func migrationsURL() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			u := &url.URL{
				Scheme: "file",
				Path:   filepath.ToSlash(filepath.Join(wd, "db", "migrations")),
			}
			return u.String(), nil
		}
		if wd == filepath.Dir(wd) {
			return "", errors.New("go.mod not found in any parent directory")
		}
		wd = filepath.Dir(wd)
	}
}

// NewTestDB starts a migrated postgres container.
// It returns the connection, a teardown func and a func emptying the migration tables.
func NewTestDB(t *testing.T) (*sql.DB, func(), func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "migration",
			"POSTGRES_PASSWORD": "migration",
			"POSTGRES_DB":       "migration_test",
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
		t.Fatalf("could not start postgres container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("could not read container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("could not read container port: %v", err)
	}
	dbURL := fmt.Sprintf("postgres://migration:migration@%s:%s/migration_test?sslmode=disable", host, port.Port())

	source, err := migrationsURL()
	if err != nil {
		t.Fatalf("could not locate migrations: %v", err)
	}
	m, err := migrate.New(source, dbURL)
	if err != nil {
		t.Fatalf("failed to init migrate with %s: %v", source, err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("failed to run up migrations: %v", err)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}

	teardown := func() {
		db.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate postgres container: %v", err)
		}
	}

	truncate := func() {
		for _, table := range migratedTables {
			if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
				t.Fatalf("failed to truncate %s: %v", table, err)
			}
		}
	}
	return db, teardown, truncate
}
