package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel is a named sub-inbox owned by one user.
type Channel struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is an anonymous message delivered to its owner. ChannelID is nil
// for unfiled messages.
type Message struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"userId"`
	ChannelID *uuid.UUID `json:"channelId"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
}

// SendMessageRequest is the JSON body for POST /api/send-message.
type SendMessageRequest struct {
	Username    string `json:"username"`
	Content     string `json:"content"`
	ChannelSlug string `json:"channelSlug,omitempty"`
}

// CreateChannelRequest is the JSON body for POST /api/channels.
type CreateChannelRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// AcceptMessagesRequest is the JSON body for POST /api/accept-messages.
type AcceptMessagesRequest struct {
	AcceptMessages *bool `json:"acceptMessages"`
}

// FilterMode selects which messages of an inbox are listed.
type FilterMode int

const (
	FilterAll FilterMode = iota
	FilterUnfiled
	FilterChannel
)

// ChannelFilter narrows a message listing. ChannelID is only read when Mode
// is FilterChannel.
type ChannelFilter struct {
	Mode      FilterMode
	ChannelID uuid.UUID
}
