package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisperly/backend/internal/models"
	"github.com/whisperly/backend/internal/store"
	"github.com/whisperly/backend/internal/testutil"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := testutil.PostgresStore(t)

	alice, err := s.CreateUser(ctx, "alice", "alice@test.com", "hash")
	require.NoError(t, err)
	assert.True(t, alice.AcceptingMessages)

	_, err = s.CreateUser(ctx, "alice", "other@test.com", "hash")
	assert.ErrorIs(t, err, store.ErrUsernameTaken)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	_, err = s.CreateUser(ctx, "alice2", "alice@test.com", "hash")
	assert.ErrorIs(t, err, store.ErrEmailTaken)

	for _, ident := range []string{"alice", "alice@test.com"} {
		u, err := s.GetUserByIdentifier(ctx, ident)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, u.ID)
	}

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	exists, err := s.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.SetAcceptingMessages(ctx, alice.ID, false))
	u, err := s.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, u.AcceptingMessages)

	assert.ErrorIs(t, s.SetAcceptingMessages(ctx, uuid.New(), true), store.ErrNotFound)
}

func TestChannelsAndMessages(t *testing.T) {
	ctx := context.Background()
	s := testutil.PostgresStore(t)

	alice, err := s.CreateUser(ctx, "alice", "alice@test.com", "hash")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "bob@test.com", "hash")
	require.NoError(t, err)

	work, err := s.CreateChannel(ctx, alice.ID, "Work", "work")
	require.NoError(t, err)
	_, err = s.CreateChannel(ctx, alice.ID, "Work 2", "work")
	assert.ErrorIs(t, err, store.ErrDuplicate)
	bobWork, err := s.CreateChannel(ctx, bob.ID, "Work", "work")
	require.NoError(t, err)

	// A message cannot be filed under another owner's channel.
	_, err = s.CreateMessage(ctx, alice.ID, &bobWork.ID, "cross")
	assert.ErrorIs(t, err, store.ErrNotFound)

	for range 3 {
		_, err := s.CreateMessage(ctx, alice.ID, &work.ID, "filed")
		require.NoError(t, err)
	}
	unfiled, err := s.CreateMessage(ctx, alice.ID, nil, "unfiled")
	require.NoError(t, err)

	msgs, err := s.ListMessages(ctx, alice.ID, models.ChannelFilter{Mode: models.FilterUnfiled})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, unfiled.ID, msgs[0].ID)

	msgs, err = s.ListMessages(ctx, alice.ID, models.ChannelFilter{Mode: models.FilterChannel, ChannelID: work.ID})
	require.NoError(t, err)
	assert.Len(t, msgs, 3)

	assert.ErrorIs(t, s.DeleteMessage(ctx, bob.ID, unfiled.ID), store.ErrNotFound)

	_, err = s.DeleteChannel(ctx, bob.ID, work.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	removed, err := s.DeleteChannel(ctx, alice.ID, work.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	msgs, err = s.ListMessages(ctx, alice.ID, models.ChannelFilter{Mode: models.FilterAll})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].ChannelID)

	_, err = s.GetChannelBySlug(ctx, alice.ID, "work")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoriesAndLikes(t *testing.T) {
	ctx := context.Background()
	s := testutil.PostgresStore(t)

	alice, err := s.CreateUser(ctx, "alice", "alice@test.com", "hash")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "bob@test.com", "hash")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	live, err := s.CreateStory(ctx, alice.ID, "live", now, now.Add(24*time.Hour))
	require.NoError(t, err)
	gone, err := s.CreateStory(ctx, alice.ID, "gone", now.Add(-25*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)

	require.NoError(t, s.InsertLike(ctx, live.ID, alice.ID))
	require.NoError(t, s.InsertLike(ctx, live.ID, bob.ID))
	assert.ErrorIs(t, s.InsertLike(ctx, live.ID, bob.ID), store.ErrDuplicate)
	assert.ErrorIs(t, s.InsertLike(ctx, uuid.New(), bob.ID), store.ErrNotFound)

	views, err := s.ListActiveStories(ctx, now, bob.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, live.ID, views[0].ID)
	assert.Equal(t, "alice", views[0].Username)
	assert.Equal(t, 2, views[0].LikeCount)
	assert.True(t, views[0].IsLiked)

	require.NoError(t, s.DeleteLike(ctx, live.ID, bob.ID))
	assert.ErrorIs(t, s.DeleteLike(ctx, live.ID, bob.ID), store.ErrNotFound)

	views, err = s.ListActiveStories(ctx, now, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, views[0].LikeCount)
	assert.False(t, views[0].IsLiked)

	n, err := s.PurgeExpiredStories(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetStory(ctx, gone.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInsertLikeConcurrent(t *testing.T) {
	ctx := context.Background()
	s := testutil.PostgresStore(t)

	alice, err := s.CreateUser(ctx, "alice", "alice@test.com", "hash")
	require.NoError(t, err)
	now := time.Now().UTC()
	st, err := s.CreateStory(ctx, alice.ID, "race", now, now.Add(24*time.Hour))
	require.NoError(t, err)

	const n = 2
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.InsertLike(ctx, st.ID, alice.ID)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, store.ErrDuplicate):
			dup++
		default:
			t.Errorf("InsertLike() unexpected error = %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, dup)

	views, err := s.ListActiveStories(ctx, now, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].LikeCount)
}
