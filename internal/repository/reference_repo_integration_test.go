//go:build integration
// +build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/GTDGit/tariff_api/internal/catalog"
	"github.com/GTDGit/tariff_api/internal/config"
	"github.com/GTDGit/tariff_api/internal/database"
	"github.com/GTDGit/tariff_api/internal/repository"
)

// setupTestDB starts a PostgreSQL container, applies the migrations, and
// returns a repository on it.
func setupTestDB(t *testing.T) (*repository.ReferenceRepository, func(string, ...interface{})) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "tariff_test",
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
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	db, err := database.Connect(ctx, &config.DatabaseConfig{
		Host:     host,
		Port:     port.Port(),
		User:     "test",
		Password: "test",
		Name:     "tariff_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db.DB, "file://../../migrations"); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	exec := func(query string, args ...interface{}) {
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			t.Fatalf("exec %q: %v", query, err)
		}
	}
	return repository.NewReferenceRepository(db), exec
}

func TestReferenceRepositoryBuildsCatalog(t *testing.T) {
	repo, exec := setupTestDB(t)

	exec(`INSERT INTO tariffs (canton, deductible, age_bracket, tariff_name, premium) VALUES
		('ZH', 'FRA-1000', 'AKL-ERW', 'Basis', 350),
		('Zürich', 'FRA-300', 'AKL-JUG', 'Telmed', 280.55)`)
	exec(`INSERT INTO postal_codes (postal_code, canton) VALUES ('8001', 'Zürich'), ('8050', 'Zürich')`)
	exec(`INSERT INTO value_ranges (domain, code, label) VALUES ('Altersklasse', 'AKL-ERW', 'Erwachsene')`)

	cat, err := catalog.Load(context.Background(), repo)
	if err != nil {
		t.Fatalf("catalog.Load() failed: %v", err)
	}

	stats := cat.Stats()
	if stats.Tariffs != 2 || stats.PostalCodes != 2 || stats.ValueRanges != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	for r := range cat.Tariffs() {
		if r.Canton != "ZH" {
			t.Errorf("tariff %s canton = %s, want ZH", r.TariffName, r.Canton)
		}
	}
}

func TestReferenceRepositoryEmptyTablesFailLoad(t *testing.T) {
	repo, _ := setupTestDB(t)

	if _, err := catalog.Load(context.Background(), repo); err == nil {
		t.Fatal("catalog.Load() should fail on empty tables")
	}
}
