// Package inbox implements anonymous message delivery and the channels that
// let a user file incoming messages into sub-inboxes.
package inbox

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/whisperly/backend/internal/apperr"
	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/models"
	"github.com/whisperly/backend/internal/sanitize"
	"github.com/whisperly/backend/internal/store"
)

var (
	ErrNotAuthenticated = apperr.New(apperr.Unauthenticated, "Not authenticated")
	ErrUserNotFound     = apperr.New(apperr.NotFound, "User not found")
	ErrNotAccepting     = apperr.New(apperr.Forbidden, "User is not accepting messages")
	ErrChannelNotFound  = apperr.New(apperr.NotFound, "Channel not found")
	ErrMessageNotFound  = apperr.New(apperr.NotFound, "Message not found")
	ErrDuplicateSlug    = apperr.New(apperr.Conflict, "Channel with this slug already exists")
)

const (
	maxMessageLen     = 300
	maxChannelNameLen = 50
	minSlugLen        = 3
	maxSlugLen        = 30
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Store defines the persistence the inbox needs.
type Store interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	SetAcceptingMessages(ctx context.Context, id uuid.UUID, accepting bool) error

	CreateChannel(ctx context.Context, ownerID uuid.UUID, name, slug string) (*models.Channel, error)
	ListChannels(ctx context.Context, ownerID uuid.UUID) ([]models.Channel, error)
	GetChannelBySlug(ctx context.Context, ownerID uuid.UUID, slug string) (*models.Channel, error)
	DeleteChannel(ctx context.Context, ownerID, channelID uuid.UUID) (int64, error)

	CreateMessage(ctx context.Context, ownerID uuid.UUID, channelID *uuid.UUID, content string) (*models.Message, error)
	ListMessages(ctx context.Context, ownerID uuid.UUID, filter models.ChannelFilter) ([]models.Message, error)
	DeleteMessage(ctx context.Context, ownerID, messageID uuid.UUID) error
}

// Service holds the inbox rules. Every owner-scoped operation takes the
// caller's identity explicitly.
type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

func requireUser(id auth.Identity) error {
	if id.IsAnonymous() {
		return ErrNotAuthenticated
	}
	return nil
}

// SubmitMessage delivers an anonymous message to recipientUsername,
// optionally filed under one of the recipient's channels. Nothing about the
// sender is recorded.
func (s *Service) SubmitMessage(ctx context.Context, recipientUsername, content, channelSlug string) (*models.Message, error) {
	recipient, err := s.store.GetUserByUsername(ctx, recipientUsername)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if !recipient.AcceptingMessages {
		return nil, ErrNotAccepting
	}

	if err := checkMessage(content); err != nil {
		return nil, err
	}

	var channelID *uuid.UUID
	if channelSlug != "" {
		channel, err := s.store.GetChannelBySlug(ctx, recipient.ID, channelSlug)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrChannelNotFound
		}
		if err != nil {
			return nil, err
		}
		channelID = &channel.ID
	}

	msg, err := s.store.CreateMessage(ctx, recipient.ID, channelID, content)
	if errors.Is(err, store.ErrNotFound) {
		// The channel was deleted between lookup and insert.
		return nil, ErrChannelNotFound
	}
	return msg, err
}

// checkMessage validates content without rewriting it. Messages are stored
// exactly as submitted.
func checkMessage(content string) error {
	switch {
	case strings.TrimSpace(content) == "":
		return apperr.Invalid("Content is required")
	case utf8.RuneCountInString(content) > maxMessageLen:
		return apperr.Invalid("Content must not be longer than 300 characters")
	}
	return sanitize.CheckPlain(content)
}

// ParseChannelFilter reads the channelId query value: empty means every
// message, "none" means unfiled messages, anything else must be a channel id.
func ParseChannelFilter(raw string) (models.ChannelFilter, error) {
	switch raw {
	case "", "all":
		return models.ChannelFilter{Mode: models.FilterAll}, nil
	case "none", "null":
		return models.ChannelFilter{Mode: models.FilterUnfiled}, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return models.ChannelFilter{}, apperr.Invalid("Invalid channelId")
	}
	return models.ChannelFilter{Mode: models.FilterChannel, ChannelID: id}, nil
}

// ListMessages returns the caller's own messages, newest first.
func (s *Service) ListMessages(ctx context.Context, id auth.Identity, filter models.ChannelFilter) ([]models.Message, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, id.UserID, filter)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

// DeleteMessage removes one of the caller's messages. Another user's message
// is reported exactly like a missing one.
func (s *Service) DeleteMessage(ctx context.Context, id auth.Identity, messageID uuid.UUID) error {
	if err := requireUser(id); err != nil {
		return err
	}

	err := s.store.DeleteMessage(ctx, id.UserID, messageID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrMessageNotFound
	}
	return err
}

func (s *Service) AcceptingMessages(ctx context.Context, id auth.Identity) (bool, error) {
	if err := requireUser(id); err != nil {
		return false, err
	}

	user, err := s.store.GetUserByID(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return false, ErrUserNotFound
	}
	if err != nil {
		return false, err
	}
	return user.AcceptingMessages, nil
}

func (s *Service) SetAcceptingMessages(ctx context.Context, id auth.Identity, accepting bool) error {
	if err := requireUser(id); err != nil {
		return err
	}

	err := s.store.SetAcceptingMessages(ctx, id.UserID, accepting)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

// ValidateChannel returns the first rule name or slug breaks.
func ValidateChannel(name, slug string) error {
	name = strings.TrimSpace(name)
	nameLen := utf8.RuneCountInString(name)
	slugLen := utf8.RuneCountInString(slug)

	switch {
	case nameLen == 0:
		return apperr.Invalid("Channel name is required")
	case nameLen > maxChannelNameLen:
		return apperr.Invalid("Channel name must be less than 50 characters")
	case slugLen < minSlugLen:
		return apperr.Invalid("Slug must be at least 3 characters")
	case slugLen > maxSlugLen:
		return apperr.Invalid("Slug must be less than 30 characters")
	case !slugPattern.MatchString(slug):
		return apperr.Invalid("Slug can only contain lowercase letters, numbers, and hyphens")
	}
	return nil
}

// CreateChannel adds a channel for the caller. Slugs are unique per owner,
// not globally.
func (s *Service) CreateChannel(ctx context.Context, id auth.Identity, name, slug string) (*models.Channel, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	if err := ValidateChannel(name, slug); err != nil {
		return nil, err
	}

	channel, err := s.store.CreateChannel(ctx, id.UserID, strings.TrimSpace(name), slug)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, ErrDuplicateSlug
	}
	return channel, err
}

// DeleteChannel removes one of the caller's channels together with every
// message filed under it.
func (s *Service) DeleteChannel(ctx context.Context, id auth.Identity, channelID uuid.UUID) error {
	if err := requireUser(id); err != nil {
		return err
	}

	_, err := s.store.DeleteChannel(ctx, id.UserID, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrChannelNotFound
	}
	return err
}

func (s *Service) ListChannels(ctx context.Context, id auth.Identity) ([]models.Channel, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}

	channels, err := s.store.ListChannels(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	return channels, nil
}

// LookupChannel resolves a public /u/{username}/{slug} link.
func (s *Service) LookupChannel(ctx context.Context, username, slug string) (*models.Channel, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	channel, err := s.store.GetChannelBySlug(ctx, user.ID, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrChannelNotFound
	}
	return channel, err
}
