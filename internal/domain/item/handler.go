package item

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
	"github.com/rewear/rewear-api/internal/pkg/validator"
)

// Handler handles item HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates item handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /items
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	item, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCategory):
			response.BadRequest(w, "Unknown category")
		case errors.Is(err, ErrImagesRequired):
			response.BadRequest(w, "At least one image is required")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, NewItemResponse(item))
}

// List handles GET /items
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	sortBy := SortBy(q.Get("sort"))
	if errs := validator.Validate(&listQuery{Sort: string(sortBy)}); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	// Public catalog only surfaces active listings
	active := StatusActive
	filter := &Filter{Status: &active}
	if v := q.Get("category"); v != "" {
		filter.CategorySlug = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	pagination := &Pagination{
		Page:  parseIntParam(q.Get("page"), 1),
		Limit: parseIntParam(q.Get("limit"), 12),
	}

	items, total, err := h.service.List(r.Context(), filter, sortBy, pagination)
	if err != nil {
		response.InternalError(w)
		return
	}

	meta := response.NewMeta(total, pagination.Page, pagination.Limit)
	response.WithMeta(w, NewItemResponses(items), meta)
}

// Get handles GET /items/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item id")
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			response.NotFound(w, "Item not found")
			return
		}
		response.InternalError(w)
		return
	}

	go h.service.RecordView(context.WithoutCancel(r.Context()), id)

	response.OK(w, NewItemResponse(item))
}

// Mine handles GET /items/mine
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	items, err := h.service.ListByOwner(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, NewItemResponses(items))
}

// Update handles PATCH /items/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item id")
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	item, err := h.service.Update(r.Context(), userID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			response.NotFound(w, "Item not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "Only the owner can edit this item")
		case errors.Is(err, ErrItemNotActive):
			response.Conflict(w, "Item is no longer active")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, NewItemResponse(item))
}

// Delete handles DELETE /items/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item id")
		return
	}

	err = h.service.Remove(r.Context(), userID, middleware.IsAdmin(r.Context()), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrItemNotFound):
			response.NotFound(w, "Item not found")
		case errors.Is(err, ErrNotOwner):
			response.Forbidden(w, "Only the owner can remove this item")
		case errors.Is(err, ErrItemNotActive):
			response.Conflict(w, "Item is no longer active")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

// Routes returns item router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/mine", h.Mine)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

type listQuery struct {
	Sort string `json:"sort" validate:"item_sort"`
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
