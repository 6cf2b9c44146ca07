// Package testutil provides test doubles and database helpers shared by the
// package tests.
package testutil

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/whisperly/backend/internal/models"
	"github.com/whisperly/backend/internal/store"
)

// MemStore is an in-memory stand-in for store.PostgresStore. It enforces the
// same unique and ownership constraints and returns the same sentinel errors.
type MemStore struct {
	mu       sync.Mutex
	seq      int64
	users    map[uuid.UUID]*models.User
	channels map[uuid.UUID]*channelRow
	messages map[uuid.UUID]*messageRow
	stories  map[uuid.UUID]*storyRow
	likes    map[likeKey]struct{}

	// Now stamps users, channels and messages. Defaults to time.Now.
	Now func() time.Time
}

type channelRow struct {
	models.Channel
	seq int64
}

type messageRow struct {
	models.Message
	seq int64
}

type storyRow struct {
	models.Story
	seq int64
}

type likeKey struct {
	storyID uuid.UUID
	userID  uuid.UUID
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[uuid.UUID]*models.User),
		channels: make(map[uuid.UUID]*channelRow),
		messages: make(map[uuid.UUID]*messageRow),
		stories:  make(map[uuid.UUID]*storyRow),
		likes:    make(map[likeKey]struct{}),
		Now:      time.Now,
	}
}

func (m *MemStore) next() int64 {
	m.seq++
	return m.seq
}

// ── users ────────────────────────────────────────────────────

func (m *MemStore) CreateUser(_ context.Context, username, email, hashedPw string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			return nil, store.ErrUsernameTaken
		}
		if u.Email == email {
			return nil, store.ErrEmailTaken
		}
	}

	u := &models.User{
		ID:                uuid.New(),
		Username:          username,
		Email:             email,
		Password:          hashedPw,
		AcceptingMessages: true,
		CreatedAt:         m.Now(),
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *MemStore) GetUserByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == identifier || u.Username == identifier {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := m.GetUserByUsername(ctx, username)
	return err == nil, nil
}

func (m *MemStore) SetAcceptingMessages(_ context.Context, id uuid.UUID, accepting bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.AcceptingMessages = accepting
	return nil
}

// ── channels ─────────────────────────────────────────────────

func (m *MemStore) CreateChannel(_ context.Context, ownerID uuid.UUID, name, slug string) (*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[ownerID]; !ok {
		return nil, store.ErrNotFound
	}
	for _, c := range m.channels {
		if c.OwnerID == ownerID && c.Slug == slug {
			return nil, store.ErrDuplicate
		}
	}

	c := &channelRow{
		Channel: models.Channel{ID: uuid.New(), OwnerID: ownerID, Name: name, Slug: slug, CreatedAt: m.Now()},
		seq:     m.next(),
	}
	m.channels[c.ID] = c
	cp := c.Channel
	return &cp, nil
}

func (m *MemStore) ListChannels(_ context.Context, ownerID uuid.UUID) ([]models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []*channelRow
	for _, c := range m.channels {
		if c.OwnerID == ownerID {
			rows = append(rows, c)
		}
	}
	slices.SortFunc(rows, func(a, b *channelRow) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.seq - a.seq)
	})

	var out []models.Channel
	for _, c := range rows {
		out = append(out, c.Channel)
	}
	return out, nil
}

func (m *MemStore) GetChannelBySlug(_ context.Context, ownerID uuid.UUID, slug string) (*models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.channels {
		if c.OwnerID == ownerID && c.Slug == slug {
			cp := c.Channel
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) DeleteChannel(_ context.Context, ownerID, channelID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.channels[channelID]
	if !ok || c.OwnerID != ownerID {
		return 0, store.ErrNotFound
	}

	var removed int64
	for id, msg := range m.messages {
		if msg.ChannelID != nil && *msg.ChannelID == channelID {
			delete(m.messages, id)
			removed++
		}
	}
	delete(m.channels, channelID)
	return removed, nil
}

// ── messages ─────────────────────────────────────────────────

func (m *MemStore) CreateMessage(_ context.Context, ownerID uuid.UUID, channelID *uuid.UUID, content string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[ownerID]; !ok {
		return nil, store.ErrNotFound
	}
	if channelID != nil {
		c, ok := m.channels[*channelID]
		if !ok || c.OwnerID != ownerID {
			return nil, store.ErrNotFound
		}
		id := *channelID
		channelID = &id
	}

	msg := &messageRow{
		Message: models.Message{ID: uuid.New(), OwnerID: ownerID, ChannelID: channelID, Content: content, CreatedAt: m.Now()},
		seq:     m.next(),
	}
	m.messages[msg.ID] = msg
	cp := msg.Message
	return &cp, nil
}

func (m *MemStore) ListMessages(_ context.Context, ownerID uuid.UUID, filter models.ChannelFilter) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []*messageRow
	for _, msg := range m.messages {
		if msg.OwnerID != ownerID {
			continue
		}
		switch filter.Mode {
		case models.FilterUnfiled:
			if msg.ChannelID != nil {
				continue
			}
		case models.FilterChannel:
			if msg.ChannelID == nil || *msg.ChannelID != filter.ChannelID {
				continue
			}
		}
		rows = append(rows, msg)
	}
	slices.SortFunc(rows, func(a, b *messageRow) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.seq - a.seq)
	})

	var out []models.Message
	for _, msg := range rows {
		out = append(out, msg.Message)
	}
	return out, nil
}

func (m *MemStore) DeleteMessage(_ context.Context, ownerID, messageID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.messages[messageID]
	if !ok || msg.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(m.messages, messageID)
	return nil
}

// MessageCount returns the number of stored messages across all users.
func (m *MemStore) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// ── stories and likes ────────────────────────────────────────

func (m *MemStore) CreateStory(_ context.Context, authorID uuid.UUID, content string, createdAt, expiresAt time.Time) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[authorID]; !ok {
		return nil, store.ErrNotFound
	}

	st := &storyRow{
		Story: models.Story{ID: uuid.New(), AuthorID: authorID, Content: content, CreatedAt: createdAt, ExpiresAt: expiresAt},
		seq:   m.next(),
	}
	m.stories[st.ID] = st
	cp := st.Story
	return &cp, nil
}

func (m *MemStore) GetStory(_ context.Context, id uuid.UUID) (*models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.stories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := st.Story
	return &cp, nil
}

func (m *MemStore) ListActiveStories(_ context.Context, now time.Time, viewerID uuid.UUID) ([]models.StoryView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []*storyRow
	for _, st := range m.stories {
		if st.ExpiresAt.After(now) {
			rows = append(rows, st)
		}
	}
	slices.SortFunc(rows, func(a, b *storyRow) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.seq - a.seq)
	})

	var out []models.StoryView
	for _, st := range rows {
		v := models.StoryView{Story: st.Story}
		if u, ok := m.users[st.AuthorID]; ok {
			v.Username = u.Username
		}
		for k := range m.likes {
			if k.storyID == st.ID {
				v.LikeCount++
				if k.userID == viewerID {
					v.IsLiked = true
				}
			}
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *MemStore) InsertLike(_ context.Context, storyID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stories[storyID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := m.users[userID]; !ok {
		return store.ErrNotFound
	}

	k := likeKey{storyID: storyID, userID: userID}
	if _, ok := m.likes[k]; ok {
		return store.ErrDuplicate
	}
	m.likes[k] = struct{}{}
	return nil
}

func (m *MemStore) DeleteLike(_ context.Context, storyID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := likeKey{storyID: storyID, userID: userID}
	if _, ok := m.likes[k]; !ok {
		return store.ErrNotFound
	}
	delete(m.likes, k)
	return nil
}

func (m *MemStore) PurgeExpiredStories(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, st := range m.stories {
		if !st.ExpiresAt.After(before) {
			delete(m.stories, id)
			for k := range m.likes {
				if k.storyID == id {
					delete(m.likes, k)
				}
			}
			n++
		}
	}
	return n, nil
}

// LikeCount returns the number of like rows for a story.
func (m *MemStore) LikeCount(storyID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.likes {
		if k.storyID == storyID {
			n++
		}
	}
	return n
}
