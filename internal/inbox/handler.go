package inbox

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/whisperly/backend/internal/apperr"
	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/models"
	"github.com/whisperly/backend/internal/respond"
)

// Handler holds inbox HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// idParam parses a uuid path parameter. A malformed id cannot name anything
// the caller owns, so it is reported as notFound.
func idParam(r *http.Request, name string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

// SendMessage accepts an anonymous message for a user. No authentication.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if req.Username == "" {
		respond.Error(w, r, apperr.Invalid("Username is required"))
		return
	}

	if _, err := h.svc.SubmitMessage(r.Context(), req.Username, req.Content, req.ChannelSlug); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Message(w, http.StatusCreated, "Message sent successfully")
}

// ListMessages returns the caller's inbox, narrowed by ?channelId=.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseChannelFilter(r.URL.Query().Get("channelId"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	msgs, err := h.svc.ListMessages(r.Context(), auth.FromContext(r.Context()), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{"messages": msgs})
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", ErrMessageNotFound)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteMessage(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Message(w, http.StatusOK, "Message deleted")
}

func (h *Handler) GetAcceptMessages(w http.ResponseWriter, r *http.Request) {
	accepting, err := h.svc.AcceptingMessages(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{"isAcceptingMessages": accepting})
}

func (h *Handler) SetAcceptMessages(w http.ResponseWriter, r *http.Request) {
	var req models.AcceptMessagesRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if req.AcceptMessages == nil {
		respond.Error(w, r, apperr.Invalid("acceptMessages is required"))
		return
	}

	if err := h.svc.SetAcceptingMessages(r.Context(), auth.FromContext(r.Context()), *req.AcceptMessages); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{
		"message":             "Message acceptance status updated successfully",
		"isAcceptingMessages": *req.AcceptMessages,
	})
}

func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.svc.ListChannels(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{"channels": channels})
}

func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChannelRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	channel, err := h.svc.CreateChannel(r.Context(), auth.FromContext(r.Context()), req.Name, req.Slug)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusCreated, respond.Body{"channel": channel})
}

func (h *Handler) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", ErrChannelNotFound)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.DeleteChannel(r.Context(), auth.FromContext(r.Context()), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Message(w, http.StatusOK, "Channel deleted successfully")
}

// LookupChannel backs the public /u/{username}/{slug} page.
func (h *Handler) LookupChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := h.svc.LookupChannel(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "slug"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{
		"channelId":   channel.ID,
		"channelName": channel.Name,
	})
}
