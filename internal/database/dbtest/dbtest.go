// Package dbtest provides a migrated PostgreSQL database for tests.
//
// DATABASE_URL is used when set. Otherwise, with RELIABILITY_TESTCONTAINERS=1,
// a throwaway postgres container is started once per test binary. In every
// other case the calling test is skipped.
package dbtest

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	once     sync.Once
	shared   string
	startErr error
)

// URL returns a database URL or skips t.
func URL(t *testing.T) string {
	t.Helper()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL
	}
	if os.Getenv("RELIABILITY_TESTCONTAINERS") != "1" {
		t.Skip("DATABASE_URL not set")
	}

	once.Do(func() {
		shared, startErr = startContainer()
	})
	if startErr != nil {
		t.Fatalf("start postgres container: %v", startErr)
	}
	return shared
}

// The container is left for the testcontainers reaper to remove when the
// test binary exits.
func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("reliability"),
		postgres.WithUsername("reliability"),
		postgres.WithPassword("reliability"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		if ctr != nil {
			_ = testcontainers.TerminateContainer(ctr)
		}
		return "", err
	}
	return ctr.ConnectionString(ctx, "sslmode=disable")
}
