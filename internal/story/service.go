// Package story implements 24-hour stories and their likes.
//
// A story is visible while now < ExpiresAt. Visibility is decided on every
// read from the current time; purging expired rows is housekeeping only.
package story

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/whisperly/backend/internal/apperr"
	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/models"
	"github.com/whisperly/backend/internal/sanitize"
	"github.com/whisperly/backend/internal/store"
)

// TTL is how long a story stays visible after it is posted.
const TTL = 24 * time.Hour

const maxContentLen = 280

var (
	ErrNotAuthenticated = apperr.New(apperr.Unauthenticated, "Not authenticated")
	ErrStoryNotFound    = apperr.New(apperr.NotFound, "Story not found")
	ErrStoryExpired     = apperr.New(apperr.Forbidden, "Story has expired")
	ErrAlreadyLiked     = apperr.New(apperr.Conflict, "You have already liked this story")
	ErrNotLiked         = apperr.New(apperr.Conflict, "You have not liked this story")
)

// Sort orders a story listing.
type Sort string

const (
	SortNew Sort = "new"
	SortHot Sort = "hot"
)

// ParseSort falls back to SortNew for anything it does not recognize.
func ParseSort(raw string) Sort {
	if Sort(raw) == SortHot {
		return SortHot
	}
	return SortNew
}

// Action is what SetLike does.
type Action string

const (
	Like   Action = "like"
	Unlike Action = "unlike"
)

// Store defines the persistence stories need.
type Store interface {
	CreateStory(ctx context.Context, authorID uuid.UUID, content string, createdAt, expiresAt time.Time) (*models.Story, error)
	GetStory(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListActiveStories(ctx context.Context, now time.Time, viewerID uuid.UUID) ([]models.StoryView, error)
	InsertLike(ctx context.Context, storyID, userID uuid.UUID) error
	DeleteLike(ctx context.Context, storyID, userID uuid.UUID) error
	PurgeExpiredStories(ctx context.Context, before time.Time) (int64, error)
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(s Store) *Service {
	return &Service{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Create posts a story that expires TTL from now.
func (s *Service) Create(ctx context.Context, id auth.Identity, content string) (*models.StoryView, error) {
	if id.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}

	switch {
	case strings.TrimSpace(content) == "":
		return nil, apperr.Invalid("Story content is required")
	case utf8.RuneCountInString(content) > maxContentLen:
		return nil, apperr.Invalid("Story content cannot exceed 280 characters")
	}
	if err := sanitize.CheckPlain(content); err != nil {
		return nil, err
	}

	now := s.now()
	st, err := s.store.CreateStory(ctx, id.UserID, content, now, now.Add(TTL))
	if err != nil {
		return nil, err
	}

	return &models.StoryView{Story: *st, Username: id.Username}, nil
}

// List returns the active stories as seen by viewer, who may be anonymous.
func (s *Service) List(ctx context.Context, viewer auth.Identity, sort Sort) ([]models.StoryView, error) {
	views, err := s.store.ListActiveStories(ctx, s.now(), viewer.UserID)
	if err != nil {
		return nil, err
	}
	if views == nil {
		return []models.StoryView{}, nil
	}

	if viewer.IsAnonymous() {
		for i := range views {
			views[i].IsLiked = false
		}
	}

	if sort == SortHot {
		// Stable on top of the newest-first order from the store, so equal
		// counts stay newest first.
		slices.SortStableFunc(views, func(a, b models.StoryView) int {
			return cmp.Compare(b.LikeCount, a.LikeCount)
		})
	}
	return views, nil
}

// SetLike likes or unlikes a story for the caller. Liking an expired story is
// rejected; unliking one is allowed.
func (s *Service) SetLike(ctx context.Context, id auth.Identity, storyID uuid.UUID, action Action) error {
	if id.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if action != Like && action != Unlike {
		return apperr.Invalid("Action must be like or unlike")
	}

	st, err := s.store.GetStory(ctx, storyID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrStoryNotFound
	}
	if err != nil {
		return err
	}

	if action == Unlike {
		err := s.store.DeleteLike(ctx, storyID, id.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotLiked
		}
		return err
	}

	if !s.now().Before(st.ExpiresAt) {
		return ErrStoryExpired
	}

	err = s.store.InsertLike(ctx, storyID, id.UserID)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return ErrAlreadyLiked
	case errors.Is(err, store.ErrNotFound):
		return ErrStoryNotFound
	}
	return err
}

// Purge deletes every story that has already expired.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	return s.store.PurgeExpiredStories(ctx, s.now())
}
