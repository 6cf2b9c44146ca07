package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/store"
)

func ProjectRoot() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "../../")
}

// Sessions returns a session store backed by an in-process Redis. The
// server is returned so tests can fast-forward TTLs.
func Sessions(t *testing.T) (*auth.SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return auth.NewSessionStore(rdb), mr
}

// PostgresStore connects to TEST_POSTGRES_DSN, runs every migration and
// rolls them back when the test ends. The test is skipped when the variable
// is not set.
func PostgresStore(t *testing.T) *store.PostgresStore {
	t.Helper()

	_ = godotenv.Load(filepath.Join(ProjectRoot(), ".env"))

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("could not connect to the postgresql database: %v", err)
	}

	s := store.NewPostgresStore(pool)
	if err := s.Reset(ctx); err != nil {
		pool.Close()
		t.Fatalf("Reset() error = %+v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		t.Fatalf("Migrate() error = %+v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.Reset(ctx); err != nil {
			t.Logf("Reset() error = %+v", err)
		}
		pool.Close()
	})

	return s
}
