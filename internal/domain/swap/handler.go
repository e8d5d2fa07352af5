package swap

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rewear/rewear-api/internal/domain/item"
	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
	"github.com/rewear/rewear-api/internal/pkg/validator"
)

// Handler handles swap HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates swap handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /swaps
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req CreateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	sw, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidOffer):
			response.BadRequest(w, "Offer exactly one of an item or points")
		case errors.Is(err, item.ErrItemNotFound):
			response.NotFound(w, "Item not found")
		case errors.Is(err, item.ErrItemNotActive):
			response.Conflict(w, "Item is no longer available")
		case errors.Is(err, ErrSelfSwap):
			response.BadRequest(w, "Cannot request your own item")
		case errors.Is(err, ErrOfferedItemInvalid):
			response.BadRequest(w, "Offered item must be your own active item")
		case errors.Is(err, ErrInsufficientBalance):
			response.Conflict(w, "Not enough points for this offer")
		case errors.Is(err, ErrDuplicateRequest):
			response.Conflict(w, "You already have a pending request for this item")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, NewSwapResponse(sw))
}

// List handles GET /swaps
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	q := r.URL.Query()
	direction := Direction(q.Get("direction"))
	if direction != DirectionAll && direction != DirectionIncoming && direction != DirectionOutgoing {
		response.BadRequest(w, "direction must be incoming or outgoing")
		return
	}

	page := parseIntParam(q.Get("page"), 1)
	limit := parseIntParam(q.Get("limit"), 20)

	swaps, total, err := h.service.List(r.Context(), userID, direction, Status(q.Get("status")), page, limit)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, NewSwapResponses(swaps), response.NewMeta(total, page, limit))
}

// Get handles GET /swaps/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(actorID, id uuid.UUID) (*Swap, error) {
		return h.service.Get(r.Context(), actorID, id)
	}, http.StatusOK)
}

// Accept handles POST /swaps/{id}/accept
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(actorID, id uuid.UUID) (*Swap, error) {
		return h.service.Accept(r.Context(), actorID, id)
	}, http.StatusOK)
}

// Reject handles POST /swaps/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(actorID, id uuid.UUID) (*Swap, error) {
		return h.service.Reject(r.Context(), actorID, id)
	}, http.StatusOK)
}

// Cancel handles POST /swaps/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(actorID, id uuid.UUID) (*Swap, error) {
		return h.service.Cancel(r.Context(), actorID, id)
	}, http.StatusOK)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, fn func(actorID, id uuid.UUID) (*Swap, error), status int) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid swap id")
		return
	}

	sw, err := fn(userID, id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, status, NewSwapResponse(sw))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSwapNotFound):
		response.NotFound(w, "Swap not found")
	case errors.Is(err, ErrNotParticipant):
		response.Forbidden(w, "Not a participant of this swap")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(w, "Only the item owner can decide")
	case errors.Is(err, ErrNotRequester):
		response.Forbidden(w, "Only the requester can cancel")
	case errors.Is(err, ErrNotPending):
		response.Conflict(w, "Swap is no longer pending")
	case errors.Is(err, item.ErrItemNotActive):
		response.Conflict(w, "Item is no longer available")
	case errors.Is(err, ledger.ErrInsufficientPoints):
		response.Conflict(w, "Requester no longer has enough points")
	default:
		response.InternalError(w)
	}
}

// Routes returns swap router. Everything requires authentication.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/accept", h.Accept)
	r.Post("/{id}/reject", h.Reject)
	r.Post("/{id}/cancel", h.Cancel)

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
