package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/domain/swap"
	"github.com/rewear/rewear-api/internal/domain/user"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
	"github.com/rewear/rewear-api/internal/pkg/validator"
)

// Notifier delivers in-app notifications to affected users
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, body string, referenceID uuid.UUID)
}

// Handler handles admin HTTP requests
type Handler struct {
	repo     *Repository
	users    user.Repository
	items    item.Repository
	swaps    swap.Repository
	ledger   *ledger.Service
	notifier Notifier
}

// NewHandler creates admin handler
func NewHandler(repo *Repository, users user.Repository, items item.Repository, swaps swap.Repository, ledgerService *ledger.Service, notifier Notifier) *Handler {
	return &Handler{
		repo:     repo,
		users:    users,
		items:    items,
		swaps:    swaps,
		ledger:   ledgerService,
		notifier: notifier,
	}
}

// UserResponse is the admin view of a user
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"is_admin"`
	IsBanned  bool      `json:"is_banned"`
	CreatedAt string    `json:"created_at"`
}

// ListUsers handles GET /admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r.URL.Query().Get("page"), 1)
	limit := parseIntParam(r.URL.Query().Get("limit"), 20)
	if limit > 100 {
		limit = 20
	}

	users, total, err := h.users.List(r.Context(), limit, (page-1)*limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, UserResponse{
			ID:        u.ID,
			Email:     u.Email,
			IsAdmin:   u.IsAdmin,
			IsBanned:  u.IsBanned,
			CreatedAt: u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	response.WithMeta(w, out, response.NewMeta(total, page, limit))
}

// Ban handles POST /admin/users/{id}/ban
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

// Unban handles POST /admin/users/{id}/unban
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *Handler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user id")
		return
	}

	if banned && id == middleware.GetUserID(r.Context()) {
		response.BadRequest(w, "Cannot ban yourself")
		return
	}

	if err := h.users.SetBanned(r.Context(), id, banned); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	log.Info().
		Str("user_id", id.String()).
		Str("admin_id", middleware.GetUserID(r.Context()).String()).
		Bool("banned", banned).
		Msg("user ban state changed")

	response.OK(w, map[string]bool{"is_banned": banned})
}

// GrantAdmin handles POST /admin/users/{id}/grant-admin
func (h *Handler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user id")
		return
	}

	if err := h.users.SetAdmin(r.Context(), id, true); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, "User not found")
			return
		}
		response.InternalError(w)
		return
	}

	log.Info().
		Str("user_id", id.String()).
		Str("admin_id", middleware.GetUserID(r.Context()).String()).
		Msg("admin role granted")

	response.OK(w, map[string]bool{"is_admin": true})
}

// GrantPointsRequest is the body for manual point grants
type GrantPointsRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0,lte=100000"`
	Description string `json:"description" validate:"required,min=3,max=200"`
	ReferenceID string `json:"reference_id" validate:"omitempty,max=100"`
}

// GrantPoints handles POST /admin/users/{id}/points
func (h *Handler) GrantPoints(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user id")
		return
	}

	var req GrantPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	err = h.ledger.Grant(r.Context(), id, req.Amount, req.Description, req.ReferenceID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrProfileNotFound):
			response.NotFound(w, "User not found")
		case errors.Is(err, ledger.ErrReferenceConflict):
			response.Conflict(w, "A different grant with this reference already exists")
		default:
			response.InternalError(w)
		}
		return
	}

	log.Info().
		Str("user_id", id.String()).
		Str("admin_id", middleware.GetUserID(r.Context()).String()).
		Int64("amount", req.Amount).
		Msg("points granted")

	if h.notifier != nil {
		h.notifier.Notify(context.WithoutCancel(r.Context()), id, "points_granted",
			"Points granted", req.Description, uuid.Nil)
	}

	balance, err := h.ledger.Balance(r.Context(), id)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]int64{"balance": balance})
}

// ListItems handles GET /admin/items, any status
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := &item.Filter{}
	// No status filter means moderation sees everything
	if v := q.Get("status"); v != "" {
		status := item.Status(v)
		filter.Status = &status
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}

	page := parseIntParam(q.Get("page"), 1)
	limit := parseIntParam(q.Get("limit"), 20)
	if limit > 100 {
		limit = 20
	}

	items, total, err := h.items.List(r.Context(), filter, item.SortByNewest, &item.Pagination{Page: page, Limit: limit})
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, item.NewItemResponses(items), response.NewMeta(total, page, limit))
}

// RemoveItemRequest carries the moderation reason
type RemoveItemRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// RemoveItem handles DELETE /admin/items/{id}
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid item id")
		return
	}

	var req RemoveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	target, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w)
		return
	}
	if target == nil {
		response.NotFound(w, "Item not found")
		return
	}

	if err := h.items.SetStatus(r.Context(), id, item.StatusRemoved); err != nil {
		response.InternalError(w)
		return
	}

	log.Info().
		Str("item_id", id.String()).
		Str("admin_id", middleware.GetUserID(r.Context()).String()).
		Str("reason", req.Reason).
		Msg("item removed by moderation")

	if h.notifier != nil {
		h.notifier.Notify(context.WithoutCancel(r.Context()), target.OwnerID, "item_removed",
			"Listing removed", "\""+target.Title+"\" was removed: "+req.Reason, target.ID)
	}

	response.NoContent(w)
}

// ListPendingSwaps handles GET /admin/swaps/pending
func (h *Handler) ListPendingSwaps(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r.URL.Query().Get("page"), 1)
	limit := parseIntParam(r.URL.Query().Get("limit"), 20)
	if limit > 100 {
		limit = 20
	}

	swaps, total, err := h.swaps.ListByStatus(r.Context(), swap.StatusPending, limit, (page-1)*limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, swap.NewSwapResponses(swaps), response.NewMeta(total, page, limit))
}

// GetStats handles GET /admin/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, stats)
}

// Routes returns admin routes. Everything requires an admin token.
func (h *Handler) Routes(authMiddleware, requireAdmin func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(requireAdmin)

	r.Get("/stats", h.GetStats)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/{id}/ban", h.Ban)
		r.Post("/{id}/unban", h.Unban)
		r.Post("/{id}/grant-admin", h.GrantAdmin)
		r.Post("/{id}/points", h.GrantPoints)
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Delete("/{id}", h.RemoveItem)
	})

	r.Get("/swaps/pending", h.ListPendingSwaps)

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
