package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/whisperly/backend/internal/models"
)

func (s *PostgresStore) CreateChannel(ctx context.Context, ownerID uuid.UUID, name, slug string) (*models.Channel, error) {
	var c models.Channel
	err := s.pool.QueryRow(ctx,
		`INSERT INTO channels (owner_id, name, slug)
		 VALUES ($1, $2, $3)
		 RETURNING id, owner_id, name, slug, created_at`,
		ownerID, name, slug,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", translate(err))
	}
	return &c, nil
}

func (s *PostgresStore) ListChannels(ctx context.Context, ownerID uuid.UUID) ([]models.Channel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, slug, created_at
		 FROM channels
		 WHERE owner_id = $1
		 ORDER BY created_at DESC, id`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var c models.Channel
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// GetChannelBySlug only ever matches channels of ownerID.
func (s *PostgresStore) GetChannelBySlug(ctx context.Context, ownerID uuid.UUID, slug string) (*models.Channel, error) {
	var c models.Channel
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, slug, created_at
		 FROM channels
		 WHERE owner_id = $1 AND slug = $2`, ownerID, slug,
	).Scan(&c.ID, &c.OwnerID, &c.Name, &c.Slug, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get channel by slug: %w", translate(err))
	}
	return &c, nil
}

// DeleteChannel removes the channel and every message filed under it in one
// transaction. It returns the number of deleted messages.
func (s *PostgresStore) DeleteChannel(ctx context.Context, ownerID, channelID uuid.UUID) (int64, error) {
	var removed int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM messages WHERE channel_id = $1 AND owner_id = $2`, channelID, ownerID,
		)
		if err != nil {
			return err
		}
		removed = tag.RowsAffected()

		tag, err = tx.Exec(ctx,
			`DELETE FROM channels WHERE id = $1 AND owner_id = $2`, channelID, ownerID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete channel: %w", translate(err))
	}
	return removed, nil
}

func (s *PostgresStore) CreateMessage(ctx context.Context, ownerID uuid.UUID, channelID *uuid.UUID, content string) (*models.Message, error) {
	var m models.Message
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages (owner_id, channel_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, owner_id, channel_id, content, created_at`,
		ownerID, channelID, content,
	).Scan(&m.ID, &m.OwnerID, &m.ChannelID, &m.Content, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", translate(err))
	}
	return &m, nil
}

// ListMessages returns ownerID's messages, newest first, narrowed by filter.
func (s *PostgresStore) ListMessages(ctx context.Context, ownerID uuid.UUID, filter models.ChannelFilter) ([]models.Message, error) {
	query := `SELECT id, owner_id, channel_id, content, created_at FROM messages WHERE owner_id = $1`
	args := []any{ownerID}

	switch filter.Mode {
	case models.FilterUnfiled:
		query += ` AND channel_id IS NULL`
	case models.FilterChannel:
		query += ` AND channel_id = $2`
		args = append(args, filter.ChannelID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.ChannelID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *PostgresStore) DeleteMessage(ctx context.Context, ownerID, messageID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM messages WHERE id = $1 AND owner_id = $2`, messageID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
