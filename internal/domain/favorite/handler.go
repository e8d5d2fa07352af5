package favorite

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
)

// ItemStore hydrates bookmarked item ids into catalog entries
type ItemStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*item.Item, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*item.Item, error)
}

// Handler for favorites API
type Handler struct {
	repo  *Repository
	items ItemStore
}

// NewHandler creates favorites handler
func NewHandler(repo *Repository, items ItemStore) *Handler {
	return &Handler{repo: repo, items: items}
}

// AddRequest for bookmarking an item
type AddRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
}

// Add handles POST /favorites
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		response.BadRequest(w, "Invalid item_id")
		return
	}

	target, err := h.items.GetByID(r.Context(), itemID)
	if err != nil {
		response.InternalError(w)
		return
	}
	if target == nil {
		response.NotFound(w, "Item not found")
		return
	}

	fav, err := h.repo.Add(r.Context(), userID, itemID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, fav)
}

// Remove handles DELETE /favorites/{itemID}
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		response.BadRequest(w, "Invalid item id")
		return
	}

	if err := h.repo.Remove(r.Context(), userID, itemID); err != nil {
		response.InternalError(w)
		return
	}

	response.NoContent(w)
}

// Check handles GET /favorites/{itemID}/check
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		response.BadRequest(w, "Invalid item id")
		return
	}

	isFavorited, err := h.repo.IsFavorited(r.Context(), userID, itemID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]bool{"is_favorited": isFavorited})
}

// List handles GET /favorites, returning the bookmarked items with
// full catalog data
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	q := r.URL.Query()
	page := parseIntParam(q.Get("page"), 1)
	limit := parseIntParam(q.Get("limit"), 20)
	if limit > 50 {
		limit = 20
	}

	ids, total, err := h.repo.ListItemIDs(r.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	items, err := h.items.ListByIDs(r.Context(), ids)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, item.NewItemResponses(items), response.NewMeta(total, page, limit))
}

// Routes returns favorites routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Add)
	r.Get("/", h.List)
	r.Delete("/{itemID}", h.Remove)
	r.Get("/{itemID}/check", h.Check)

	return r
}

func parseIntParam(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
