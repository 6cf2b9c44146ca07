package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/whisperly/backend/internal/models"
)

func (s *PostgresStore) CreateStory(ctx context.Context, authorID uuid.UUID, content string, createdAt, expiresAt time.Time) (*models.Story, error) {
	var st models.Story
	err := s.pool.QueryRow(ctx,
		`INSERT INTO stories (author_id, content, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, author_id, content, created_at, expires_at`,
		authorID, content, createdAt, expiresAt,
	).Scan(&st.ID, &st.AuthorID, &st.Content, &st.CreatedAt, &st.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("create story: %w", translate(err))
	}
	return &st, nil
}

// GetStory returns the story regardless of expiry.
func (s *PostgresStore) GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	var st models.Story
	err := s.pool.QueryRow(ctx,
		`SELECT id, author_id, content, created_at, expires_at FROM stories WHERE id = $1`, id,
	).Scan(&st.ID, &st.AuthorID, &st.Content, &st.CreatedAt, &st.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("get story: %w", translate(err))
	}
	return &st, nil
}

// ListActiveStories returns stories with expires_at after now, newest first.
// Like counts are aggregated on every call. viewerID may be uuid.Nil for an
// anonymous viewer, in which case IsLiked is always false.
func (s *PostgresStore) ListActiveStories(ctx context.Context, now time.Time, viewerID uuid.UUID) ([]models.StoryView, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.author_id, s.content, s.created_at, s.expires_at, u.username,
		        COUNT(l.user_id) AS like_count,
		        COALESCE(BOOL_OR(l.user_id = $2), FALSE) AS is_liked
		 FROM stories s
		 JOIN users u ON u.id = s.author_id
		 LEFT JOIN likes l ON l.story_id = s.id
		 WHERE s.expires_at > $1
		 GROUP BY s.id, u.username
		 ORDER BY s.created_at DESC, s.id`,
		now, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var views []models.StoryView
	for rows.Next() {
		var v models.StoryView
		if err := rows.Scan(&v.ID, &v.AuthorID, &v.Content, &v.CreatedAt, &v.ExpiresAt,
			&v.Username, &v.LikeCount, &v.IsLiked); err != nil {
			return nil, fmt.Errorf("list stories: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// InsertLike relies on the likes primary key to reject a second like of the
// same story by the same user, including concurrent ones.
func (s *PostgresStore) InsertLike(ctx context.Context, storyID, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO likes (story_id, user_id) VALUES ($1, $2)`, storyID, userID,
	)
	if err != nil {
		return fmt.Errorf("insert like: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) DeleteLike(ctx context.Context, storyID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM likes WHERE story_id = $1 AND user_id = $2`, storyID, userID,
	)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpiredStories hard-deletes stories that expired at or before before.
// Their likes go with them through the foreign key.
func (s *PostgresStore) PurgeExpiredStories(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM stories WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge stories: %w", err)
	}
	return tag.RowsAffected(), nil
}
