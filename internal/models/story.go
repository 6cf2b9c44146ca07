package models

import (
	"time"

	"github.com/google/uuid"
)

// Story is a short public post that disappears from every feed once
// ExpiresAt has passed.
type Story struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StoryView is a story as seen by one viewer.
type StoryView struct {
	Story
	Username  string `json:"username"`
	LikeCount int    `json:"likeCount"`
	IsLiked   bool   `json:"isLiked"`
}

// CreateStoryRequest is the JSON body for POST /api/stories.
type CreateStoryRequest struct {
	Content string `json:"content"`
}

// LikeRequest is the JSON body for POST /api/stories/like.
type LikeRequest struct {
	StoryID string `json:"storyId"`
	Action  string `json:"action"`
}
