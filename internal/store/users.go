package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/whisperly/backend/internal/models"
)

const userColumns = `id, username, email, password, accepting_messages, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.AcceptingMessages, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, hashedPassword string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		username, email, hashedPassword,
	))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", translate(err))
	}
	return u, nil
}

// GetUserByIdentifier looks a user up by email or username.
func (s *PostgresStore) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1 LIMIT 1`, identifier,
	))
	if err != nil {
		return nil, fmt.Errorf("get user by identifier: %w", translate(err))
	}
	return u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", translate(err))
	}
	return u, nil
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	))
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", translate(err))
	}
	return u, nil
}

func (s *PostgresStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("username exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) SetAcceptingMessages(ctx context.Context, id uuid.UUID, accepting bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET accepting_messages = $2 WHERE id = $1`, id, accepting,
	)
	if err != nil {
		return fmt.Errorf("set accepting messages: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
