// Package dashboard aggregates a user's activity into one overview:
// points balance, listing counts, swap counts, and recent ledger
// entries.
package dashboard

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rewear/rewear-api/internal/domain/ledger"
	"github.com/rewear/rewear-api/internal/middleware"
	"github.com/rewear/rewear-api/internal/pkg/response"
)

// Overview is the dashboard payload
type Overview struct {
	Points       PointsSummary              `json:"points"`
	Items        map[string]int             `json:"items"`
	Swaps        SwapSummary                `json:"swaps"`
	RecentLedger []*ledger.PointTransaction `json:"recent_ledger"`
}

// PointsSummary holds balance and lifetime totals
type PointsSummary struct {
	Balance     int64 `json:"balance"`
	TotalEarned int64 `json:"total_earned"`
	TotalSpent  int64 `json:"total_spent"`
}

// SwapSummary holds swap counts by side
type SwapSummary struct {
	IncomingPending int `json:"incoming_pending"`
	OutgoingPending int `json:"outgoing_pending"`
	Completed       int `json:"completed"`
}

// Repository reads the aggregate views
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates dashboard repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// PointsSummary returns balance and lifetime earned/spent totals
func (r *Repository) PointsSummary(ctx context.Context, userID uuid.UUID) (*PointsSummary, error) {
	var s PointsSummary
	err := r.db.GetContext(ctx, &s.Balance, `SELECT points FROM profiles WHERE id = $1`, userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0) AS earned,
			COALESCE(-SUM(amount) FILTER (WHERE amount < 0), 0) AS spent
		FROM point_transactions
		WHERE user_id = $1
	`
	row := r.db.QueryRowxContext(ctx, query, userID)
	if err := row.Scan(&s.TotalEarned, &s.TotalSpent); err != nil {
		return nil, err
	}

	return &s, nil
}

// ItemCounts returns the user's listing counts grouped by status
func (r *Repository) ItemCounts(ctx context.Context, userID uuid.UUID) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT status, COUNT(*) FROM items WHERE owner_id = $1 GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{
		"active":  0,
		"pending": 0,
		"swapped": 0,
		"removed": 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// SwapCounts returns pending counts per side plus completed swaps
func (r *Repository) SwapCounts(ctx context.Context, userID uuid.UUID) (*SwapSummary, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE owner_id = $1 AND status = 'pending') AS incoming,
			COUNT(*) FILTER (WHERE requester_id = $1 AND status = 'pending') AS outgoing,
			COUNT(*) FILTER (WHERE (owner_id = $1 OR requester_id = $1) AND status = 'completed') AS completed
		FROM swaps
	`
	var s SwapSummary
	row := r.db.QueryRowxContext(ctx, query, userID)
	if err := row.Scan(&s.IncomingPending, &s.OutgoingPending, &s.Completed); err != nil {
		return nil, err
	}
	return &s, nil
}

// Handler serves the dashboard endpoint
type Handler struct {
	repo   *Repository
	ledger *ledger.Service
}

// NewHandler creates dashboard handler
func NewHandler(repo *Repository, ledgerService *ledger.Service) *Handler {
	return &Handler{repo: repo, ledger: ledgerService}
}

// Get handles GET /dashboard
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	ctx := r.Context()

	points, err := h.repo.PointsSummary(ctx, userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	items, err := h.repo.ItemCounts(ctx, userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	swaps, err := h.repo.SwapCounts(ctx, userID)
	if err != nil {
		response.InternalError(w)
		return
	}

	recent, _, err := h.ledger.History(ctx, userID, 5, 0)
	if err != nil {
		response.InternalError(w)
		return
	}
	if recent == nil {
		recent = []*ledger.PointTransaction{}
	}

	response.OK(w, Overview{
		Points:       *points,
		Items:        items,
		Swaps:        *swaps,
		RecentLedger: recent,
	})
}

// Routes returns dashboard routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.Get)

	return r
}
