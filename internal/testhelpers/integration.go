//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/kjstillabower/airmap-service/internal/dataset"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	DatabaseURL string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test if DATABASE_URL is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return IntegrationTestConfig{DatabaseURL: dsn}
}

// Measurement is one seeded row.
type Measurement struct {
	Name        string
	Lat, Lon    float64
	Date        time.Time
	PM25        *float64
	Temperature float64
	Humidity    float64
}

// SetupPostgresSource creates a uniquely named measurements table, seeds rows
// and returns a source over it. The cleanup func drops the table and closes the pool.
func SetupPostgresSource(t *testing.T, cfg IntegrationTestConfig, rows []Measurement) (*dataset.PostgresSource, func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := dataset.ConnectPostgres(ctx, cfg.DatabaseURL, 2)
	if err != nil {
		t.Fatalf("ConnectPostgres() error = %v", err)
	}

	table := "measurements_" + uuid.New().String()[:8]
	ident := pgx.Identifier{table}.Sanitize()
	ddl := fmt.Sprintf(`CREATE TABLE %s (
		name text NOT NULL,
		lat double precision,
		lon double precision,
		date date NOT NULL,
		"PM25" double precision,
		temperatura double precision,
		wilgotnosc double precision
	)`, ident)
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		t.Fatalf("create table: %v", err)
	}
	cleanup := func() {
		_, _ = pool.Exec(context.Background(), "DROP TABLE IF EXISTS "+ident)
		pool.Close()
	}

	if err := seed(ctx, pool, ident, rows); err != nil {
		cleanup()
		t.Fatalf("seed: %v", err)
	}

	src, err := dataset.NewPostgresSource(pool, table)
	if err != nil {
		cleanup()
		t.Fatalf("NewPostgresSource() error = %v", err)
	}
	return src, cleanup
}

func seed(ctx context.Context, pool *pgxpool.Pool, ident string, rows []Measurement) error {
	batch := &pgx.Batch{}
	insert := fmt.Sprintf(`INSERT INTO %s (name, lat, lon, date, "PM25", temperatura, wilgotnosc) VALUES ($1, $2, $3, $4, $5, $6, $7)`, ident)
	for _, r := range rows {
		batch.Queue(insert, r.Name, r.Lat, r.Lon, r.Date, r.PM25, r.Temperature, r.Humidity)
	}
	br := pool.SendBatch(ctx, batch)
	defer br.Close()
	for range rows {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
