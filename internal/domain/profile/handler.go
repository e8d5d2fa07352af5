package profile

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
	"github.com/rewear/rewear-api/internal/pkg/validator"
)

// ItemSource is the slice of the catalog used for a member's public
// listings
type ItemSource interface {
	List(ctx context.Context, filter *item.Filter, sortBy item.SortBy, pagination *item.Pagination) ([]*item.Item, int, error)
}

// Handler handles profile HTTP requests
type Handler struct {
	service *Service
	items   ItemSource
}

// NewHandler creates profile handler
func NewHandler(service *Service, items ItemSource) *Handler {
	return &Handler{service: service, items: items}
}

// Get handles GET /profiles/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid profile id")
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			response.NotFound(w, "Profile not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, NewProfileResponse(p))
}

// UpdateMe handles PATCH /profiles/me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	p, err := h.service.Update(r.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			response.NotFound(w, "Profile not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, NewProfileResponse(p))
}

// Items handles GET /profiles/{id}/items, listing a member's active items
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid profile id")
		return
	}

	q := r.URL.Query()
	pagination := &item.Pagination{
		Page:  parseIntParam(q.Get("page"), 1),
		Limit: parseIntParam(q.Get("limit"), 12),
	}

	active := item.StatusActive
	filter := &item.Filter{OwnerID: &id, Status: &active}
	items, total, err := h.items.List(r.Context(), filter, item.SortByNewest, pagination)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, item.NewItemResponses(items), response.NewMeta(total, pagination.Page, pagination.Limit))
}

// Routes returns profile router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.Get)
	r.Get("/{id}/items", h.Items)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Patch("/me", h.UpdateMe)
	})

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
