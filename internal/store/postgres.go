package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// Errors returned by the store. Driver errors are translated into these so
// callers never need to look at Postgres error codes.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrDuplicate     = errors.New("store: duplicate")
	ErrUsernameTaken = fmt.Errorf("%w: username", ErrDuplicate)
	ErrEmailTaken    = fmt.Errorf("%w: email", ErrDuplicate)
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// PostgresStore handles all relational data: users, channels, messages,
// stories and likes.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies all pending schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("store: goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Reset rolls back every migration. Only used by tests.
func (s *PostgresStore) Reset(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("store: goose dialect: %w", err)
	}
	if err := goose.ResetContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("store: reset: %w", err)
	}
	return nil
}

// translate maps driver errors onto the store's sentinel errors.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			switch pgErr.ConstraintName {
			case "users_username_key":
				return ErrUsernameTaken
			case "users_email_key":
				return ErrEmailTaken
			}
			return ErrDuplicate
		case codeForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}
