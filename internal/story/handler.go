package story

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/whisperly/backend/internal/apperr"
	"github.com/whisperly/backend/internal/auth"
	"github.com/whisperly/backend/internal/models"
	"github.com/whisperly/backend/internal/respond"
)

// Handler holds story HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns active stories. Authentication is optional; it only decides
// isLiked.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context(), auth.FromContext(r.Context()), ParseSort(r.URL.Query().Get("sortBy")))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusOK, respond.Body{"stories": views})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStoryRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	view, err := h.svc.Create(r.Context(), auth.FromContext(r.Context()), req.Content)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.OK(w, http.StatusCreated, respond.Body{"story": view})
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	var req models.LikeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	if req.StoryID == "" {
		respond.Error(w, r, apperr.Invalid("Story ID is required"))
		return
	}

	storyID, err := uuid.Parse(req.StoryID)
	if err != nil {
		respond.Error(w, r, ErrStoryNotFound)
		return
	}

	action := Action(req.Action)
	if err := h.svc.SetLike(r.Context(), auth.FromContext(r.Context()), storyID, action); err != nil {
		respond.Error(w, r, err)
		return
	}

	msg := "Story liked successfully"
	if action == Unlike {
		msg = "Story unliked successfully"
	}
	respond.Message(w, http.StatusOK, msg)
}
